package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/localekeys/pkg/catalog"
	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/lsp"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/version"
)

func newLSPCommand(g *globalOptions) *cobra.Command {
	var root, metricsAddr string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server (stdio)",
		Long: `Start a language server on stdio. Hovering a quoted key shows where it is
defined per language, go-to-definition jumps to every definition and completion
offers all known keys. Saving a locale file reloads the catalogue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(g, observability.ModeLSP, cmd.ErrOrStderr())
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

			finder, err := a.finder(root)
			if err != nil {
				return err
			}

			red, err := observability.NewREDMetrics(a.meter)
			if err != nil {
				return fmt.Errorf("create request metrics: %w", err)
			}

			builder := a.builder(finder, 0)

			srv, err := lsp.NewServer(lsp.Deps{
				Loader: func(ctx context.Context) ([]locale.Locale, error) {
					return builder.ParseLocales(ctx, catalog.NopSink{})
				},
				Watches: finder.Matches,
				Logger:  a.logger(),
				Tracer:  a.providers.Tracer,
				Metrics: red,
				Version: version.Version,
			})
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory holding the locale files (default: locales.root from the config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}
