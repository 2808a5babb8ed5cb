package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/localekeys/pkg/catalog"
	"github.com/Sumatoshi-tech/localekeys/pkg/config"
	"github.com/Sumatoshi-tech/localekeys/pkg/discovery"
	"github.com/Sumatoshi-tech/localekeys/pkg/extract"
	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/syntax"
	"github.com/Sumatoshi-tech/localekeys/pkg/version"
)

const (
	meterName             = "localekeys"
	metricsReadTimeout    = 5 * time.Second
	metricsShutdownPeriod = 2 * time.Second
)

// app is the wiring shared by every command: settings, telemetry and one
// extractor whose cache outlives individual catalogue builds.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	fs        afero.Fs
	extractor *extract.Extractor
	metrics   *observability.ExtractMetrics
	meter     metric.Meter
	closers   []func(context.Context) error
}

// newApp loads configuration and initializes telemetry for mode. Logs go to logOut.
func newApp(opts *globalOptions, mode observability.AppMode, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}

	obsCfg := observabilityConfig(cfg, mode, opts)
	obsCfg.LogLevel = level
	obsCfg.LogOutput = logOut

	if opts.verbose {
		obsCfg.LogLevel = slog.LevelDebug
	} else if opts.quiet && level < slog.LevelWarn {
		obsCfg.LogLevel = slog.LevelWarn
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	a := &app{
		cfg:       cfg,
		providers: providers,
		fs:        afero.NewOsFs(),
		meter:     providers.Meter,
		closers:   []func(context.Context) error{providers.Shutdown},
	}

	return a, nil
}

func observabilityConfig(cfg *config.Config, mode observability.AppMode, opts *globalOptions) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Environment = envOr("LOCALEKEYS_ENVIRONMENT", "")
	obsCfg.OTLPEndpoint = envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(envOr("OTEL_EXPORTER_OTLP_HEADERS", ""))
	obsCfg.OTLPInsecure = envOr("OTEL_EXPORTER_OTLP_INSECURE", "") == "true"
	obsCfg.TraceVerbose = envOr("LOCALEKEYS_TRACE_VERBOSE", "") == "true"
	obsCfg.DebugTrace = opts.verbose
	obsCfg.LogJSON = cfg.Logging.JSON || mode != observability.ModeCLI
	obsCfg.NoColor = opts.noColor

	if root, err := filepath.Abs(cfg.Locales.Root); err == nil {
		obsCfg.PathRoot = root
	}

	return obsCfg
}

// serveMetrics swaps the meter for a Prometheus-backed one scraped on addr.
// An empty addr leaves the OTLP meter in place.
func (a *app) serveMetrics(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mp, handler, err := observability.PrometheusProvider()
	if err != nil {
		return err
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			a.logger().Error("metrics server stopped", "error", serveErr)
		}
	}()

	a.meter = mp.Meter(meterName)
	a.closers = append(a.closers, func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, metricsShutdownPeriod)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	a.logger().Info("serving metrics", "addr", listener.Addr().String(), "path", "/metrics")

	return nil
}

func (a *app) logger() *slog.Logger {
	return a.providers.Logger
}

// close flushes telemetry and stops the metrics endpoint.
func (a *app) close() {
	ctx := context.Background()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger().Warn("shutdown failed", "error", err)
		}
	}
}

// initExtractor builds the shared extractor once the final meter is known.
func (a *app) initExtractor() error {
	metrics, err := observability.NewExtractMetrics(a.meter)
	if err != nil {
		return fmt.Errorf("create extract metrics: %w", err)
	}

	maxFileSize, err := a.cfg.Extract.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	extractor, err := extract.New(extract.Deps{
		Fs:          a.fs,
		Parser:      syntax.NewParser(),
		Logger:      a.logger(),
		Tracer:      a.providers.Tracer,
		Metrics:     metrics,
		MaxFileSize: maxFileSize,
		CacheSize:   a.cfg.Extract.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	a.extractor = extractor
	a.metrics = metrics

	return nil
}

// finder creates a Finder over root, falling back to the configured root.
func (a *app) finder(root string) (*discovery.Finder, error) {
	if root == "" {
		root = a.cfg.Locales.Root
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	return discovery.NewFinder(a.fs, discovery.Config{
		Root:       abs,
		Include:    a.cfg.Locales.Include,
		Exclude:    a.cfg.Locales.Exclude,
		StrictTags: a.cfg.Locales.StrictTags,
	})
}

// builder creates a catalogue builder for finder with the given worker count.
// Zero workers uses the configured value.
func (a *app) builder(finder *discovery.Finder, workers int) *catalog.Builder {
	if workers == 0 {
		workers = a.cfg.Extract.Workers
	}

	return catalog.NewBuilder(catalog.Deps{
		Discoverer: finder,
		Extractor:  a.extractor,
		Workers:    workers,
		Logger:     a.logger(),
		Tracer:     a.providers.Tracer,
		Metrics:    a.metrics,
	})
}

// load builds the catalogue under root without progress reporting.
func (a *app) load(ctx context.Context, root string) ([]locale.Locale, error) {
	finder, err := a.finder(root)
	if err != nil {
		return nil, err
	}

	return a.builder(finder, 0).ParseLocales(ctx, catalog.NopSink{})
}
