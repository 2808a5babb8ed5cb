// Package mcp implements a Model Context Protocol server exposing the locale
// key catalogue as MCP tools over stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
)

const (
	serverName = "localekeys"

	// spanPrefix prefixes tool span names and RED operation labels.
	spanPrefix = "mcp."

	// traceIDPrefix starts the content item carrying the trace of a sampled call.
	traceIDPrefix = "trace_id="
)

// ErrNoLoader is returned by NewServer when ServerDeps.Loader is nil.
var ErrNoLoader = errors.New("mcp: catalogue loader is required")

// Loader extracts the catalogue of the locale files under root.
type Loader func(ctx context.Context, root string) ([]locale.Locale, error)

// ServerDeps holds injectable dependencies for the MCP server.
type ServerDeps struct {
	// Loader builds catalogues for tool calls. Required.
	Loader Loader

	// DefaultRoot is used when a tool call omits root. Empty makes root mandatory.
	DefaultRoot string

	// Version is reported to clients. Empty means "dev".
	Version string

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans.
	Tracer trace.Tracer
}

// Server exposes the locale key tools over MCP.
type Server struct {
	inner  *mcpsdk.Server
	tools  []string
	deps   ServerDeps
	logger *slog.Logger
}

// toolHandler is the typed handler signature accepted by mcpsdk.AddTool.
type toolHandler[In any] func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error)

// NewServer creates an MCP server with the catalogue and key lookup tools.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Loader == nil {
		return nil, ErrNoLoader
	}

	if deps.Version == "" {
		deps.Version = "dev"
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer(serverName)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		inner: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: serverName, Version: deps.Version},
			&mcpsdk.ServerOptions{Logger: deps.Logger},
		),
		deps:   deps,
		logger: logger,
	}

	addTool(srv, ToolNameCatalogue, catalogueToolDescription, srv.handleCatalogue)
	addTool(srv, ToolNameKeyLookup, keyLookupToolDescription, srv.handleKeyLookup)

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	return slices.Sorted(slices.Values(s.tools))
}

// Run serves MCP over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves MCP over transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func addTool[In any](s *Server, name, description string, handler toolHandler[In]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: name, Description: description}, mcpsdk.ToolHandlerFor[In, ToolOutput](instrument(s, name, handler)))

	s.tools = append(s.tools, name)
}

// instrument wraps handler with a server span, RED metrics and log context.
// Sampled calls get a trailing trace_id content item.
func instrument[In any](s *Server, name string, handler toolHandler[In]) toolHandler[In] {
	op := spanPrefix + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		ctx, span := s.deps.Tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", name)),
		)
		defer span.End()

		ctx = observability.ContextWithLogAttrs(ctx, slog.String("mcp.tool", name))

		done := s.deps.Metrics.TrackInflight(ctx, op)
		defer done()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
			span.SetStatus(codes.Error, "tool call failed")
			s.logger.WarnContext(ctx, "tool call failed", slog.String("error", failureText(result, err)))
		}

		s.deps.Metrics.RecordRequest(ctx, op, status, time.Since(start))

		if sc := span.SpanContext(); sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{Text: traceIDPrefix + sc.TraceID().String()})
		}

		return result, output, err
	}
}

// failureText extracts the message of a failed call for logging.
func failureText(result *mcpsdk.CallToolResult, err error) string {
	if err != nil {
		return err.Error()
	}

	if len(result.Content) > 0 {
		if text, ok := result.Content[0].(*mcpsdk.TextContent); ok {
			return text.Text
		}
	}

	return "unknown error"
}

const (
	catalogueToolDescription = "Extract the locale key catalogue of a project. " +
		"Returns every key per locale file with its source location, " +
		"or only per-language key counts when summary is set."

	keyLookupToolDescription = "Look up a translation key in the locale catalogue of a project. " +
		"Returns where the key is defined for each language, which languages lack it, " +
		"and similar known keys when it is undefined."
)
