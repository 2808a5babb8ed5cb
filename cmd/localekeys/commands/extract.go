package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/localekeys/pkg/catalog"
	"github.com/Sumatoshi-tech/localekeys/pkg/config"
	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/render"
)

type extractOptions struct {
	output  string
	format  string
	workers int
}

func newExtractCommand(g *globalOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [root]",
		Short: "Build the key catalogue of a project",
		Long: `Walk root (default: locales.root from the config) for locale files, extract
their keys concurrently and write the catalogue.

Examples:
  localekeys extract src/locales
  localekeys extract -f table
  localekeys extract -f html -o keys.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, g, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the catalogue to this file instead of stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "",
		"output format: "+strings.Join(render.Formats, ", ")+" (default: output.format from the config)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "concurrent extractions (0 = extract.workers from the config)")

	return cmd
}

func runExtract(cmd *cobra.Command, g *globalOptions, opts *extractOptions, args []string) error {
	if opts.workers < 0 {
		return fmt.Errorf("%w: --workers %d", config.ErrInvalidWorkers, opts.workers)
	}

	a, err := newApp(g, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	format := opts.format
	if format == "" {
		format = a.cfg.Output.Format
	}

	if !slices.Contains(render.Formats, format) {
		return fmt.Errorf("%w: %q", render.ErrUnknownFormat, format)
	}

	err = a.initExtractor()
	if err != nil {
		return err
	}

	root := ""
	if len(args) > 0 {
		root = args[0]
	}

	finder, err := a.finder(root)
	if err != nil {
		return err
	}

	prog := newProgress(cmd.ErrOrStderr(), g.quiet, g.noColor)
	sink := catalog.NewChannelSink()
	consumed := make(chan struct{})

	go func() {
		defer close(consumed)

		prog.consume(sink.Events())
	}()

	started := time.Now()
	locales, err := a.builder(finder, opts.workers).ParseLocales(cmd.Context(), sink)

	sink.Close()
	<-consumed

	if err != nil {
		return err
	}

	err = writeCatalogue(cmd.OutOrStdout(), opts.output, format, locales)
	if err != nil {
		return err
	}

	prog.finish(render.Summary(locales), time.Since(started))

	return nil
}

func writeCatalogue(stdout io.Writer, path, format string, locales []locale.Locale) error {
	if path == "" {
		return render.Write(stdout, format, locales)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writeErr := render.Write(f, format, locales)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}
