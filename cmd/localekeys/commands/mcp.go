package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/localekeys/pkg/mcp"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/version"
)

func newMCPCommand(g *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the locale key catalogue as tools that AI agents can
discover and invoke:
  - locale_catalogue: every key of a project, or per-language counts
  - locale_key_lookup: where a key is defined and which languages lack it`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(g, observability.ModeMCP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			err = a.serveMetrics(cmd.Context(), metricsAddr)
			if err != nil {
				return err
			}

			err = a.initExtractor()
			if err != nil {
				return err
			}

			red, err := observability.NewREDMetrics(a.meter)
			if err != nil {
				return fmt.Errorf("create request metrics: %w", err)
			}

			defaultRoot, err := filepath.Abs(a.cfg.Locales.Root)
			if err != nil {
				return fmt.Errorf("resolve root %s: %w", a.cfg.Locales.Root, err)
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Loader:      a.load,
				DefaultRoot: defaultRoot,
				Version:     version.Version,
				Logger:      a.logger(),
				Metrics:     red,
				Tracer:      a.providers.Tracer,
			})
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}
