// Package lsp provides a Language Server Protocol server that resolves
// translation keys in source files against the extracted catalogue.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
)

const serverName = "localekeys"

// ErrNoLoader is returned by NewServer when Deps.Loader is nil.
var ErrNoLoader = errors.New("lsp: catalogue loader is required")

// Loader rebuilds the catalogue from disk.
type Loader func(ctx context.Context) ([]locale.Locale, error)

// Deps holds the server collaborators. Zero values select defaults.
type Deps struct {
	// Loader produces the catalogue. Required.
	Loader Loader
	// Watches reports whether saving path should trigger a reload even when
	// the current catalogue does not reference it yet.
	Watches func(path string) bool
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.REDMetrics
	Version string
}

// Server implements the locale key language server.
type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	deps    Deps

	mu    sync.RWMutex
	index *locale.Index
	base  context.Context //nolint:containedctx // lifetime of Run, used by notification handlers
}

// NewServer creates a server with an empty catalogue. Call Reload or Run to load it.
func NewServer(deps Deps) (*Server, error) {
	if deps.Loader == nil {
		return nil, ErrNoLoader
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer(serverName)
	}

	if deps.Version == "" {
		deps.Version = "dev"
	}

	srv := &Server{
		store: NewDocumentStore(),
		deps:  deps,
		index: locale.NewIndex(nil),
		base:  context.Background(),
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCompletion: srv.completion,
		TextDocumentHover:      srv.hover,
		TextDocumentDefinition: srv.definition,
	}

	return srv, nil
}

// Run loads the catalogue and serves LSP on stdio until the client disconnects.
func (srv *Server) Run(ctx context.Context) error {
	srv.base = ctx

	err := srv.Reload(ctx)
	if err != nil {
		srv.deps.Logger.WarnContext(ctx, "initial catalogue load failed", "error", err)
	}

	lspServer := server.NewServer(&srv.handler, serverName, false)

	err = lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

// Reload rebuilds the catalogue index through the Loader. On failure the
// previous index stays in place.
func (srv *Server) Reload(ctx context.Context) error {
	return srv.observe(ctx, "reload", func(ctx context.Context, span trace.Span) error {
		locales, err := srv.deps.Loader(ctx)
		if err != nil {
			return fmt.Errorf("reload catalogue: %w", err)
		}

		idx := locale.NewIndex(locales)
		span.SetAttributes(
			attribute.Int("catalog.locales", len(locales)),
			attribute.Int("catalog.keys", len(idx.Keys())),
		)

		srv.mu.Lock()
		srv.index = idx
		srv.mu.Unlock()

		srv.deps.Logger.InfoContext(ctx, "catalogue loaded",
			"locales", len(locales), "keys", len(idx.Keys()))

		return nil
	})
}

// Index returns the current catalogue index.
func (srv *Server) Index() *locale.Index {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.index
}

// observe runs fn inside an lsp.<op> span and records RED metrics for it.
func (srv *Server) observe(ctx context.Context, op string, fn func(context.Context, trace.Span) error) error {
	name := "lsp." + op

	ctx, span := srv.deps.Tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	ctx = observability.ContextWithLogAttrs(ctx, slog.String("lsp.method", op))

	done := srv.deps.Metrics.TrackInflight(ctx, name)
	defer done()

	start := time.Now()
	err := fn(ctx, span)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	srv.deps.Metrics.RecordRequest(ctx, name, status, time.Since(start))

	return err
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	version := srv.deps.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv.store.Set(params.TextDocument.URI, params.TextDocument.Text)

	return nil
}

func (srv *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			srv.store.Set(uri, c.Text)
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				srv.store.Set(uri, c.Text)

				continue
			}

			srv.store.Edit(uri, position(c.Range.Start), position(c.Range.End), c.Text)
		}
	}

	return nil
}

// didSave reloads the catalogue when a catalogue file or a watched file is saved.
func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	path := pathFromURI(uri)
	if path == "" || !srv.tracks(path) {
		return nil
	}

	err := srv.Reload(srv.base)
	if err != nil {
		srv.deps.Logger.WarnContext(srv.base, "catalogue reload failed", "path", path, "error", err)
		notify(ctx, "window/showMessage", &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: err.Error(),
		})
	}

	return nil
}

func (srv *Server) tracks(path string) bool {
	if srv.Index().Covers(path) {
		return true
	}

	return srv.deps.Watches != nil && srv.deps.Watches(path)
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.Delete(params.TextDocument.URI)

	return nil
}

func notify(ctx *glsp.Context, method string, params any) {
	if ctx == nil || ctx.Notify == nil {
		return
	}

	ctx.Notify(method, params)
}

func position(p protocol.Position) Position {
	return Position{Line: int(p.Line), Character: int(p.Character)}
}
