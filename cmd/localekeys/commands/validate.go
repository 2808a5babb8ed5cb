package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/localekeys/pkg/render"
)

// ErrInvalidCatalogue is returned when a catalogue violates the schema.
var ErrInvalidCatalogue = errors.New("catalogue does not match the schema")

const stdinArg = "-"

func newValidateCommand(g *globalOptions) *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a JSON catalogue against the catalogue schema",
		Long: `Validate a catalogue written by "extract -f json" against the embedded schema.

Examples:
  localekeys validate keys.json
  localekeys extract | localekeys validate -
  localekeys validate --schema`,
		Args: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				return cobra.NoArgs(cmd, args)
			}

			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				_, err := cmd.OutOrStdout().Write(render.Schema())

				return err
			}

			return runValidate(cmd, g, args[0])
		},
	}

	cmd.Flags().BoolVar(&printSchema, "schema", false, "print the catalogue JSON schema and exit")

	return cmd
}

func runValidate(cmd *cobra.Command, g *globalOptions, inputPath string) error {
	input, label, closeInput, err := openInput(cmd.InOrStdin(), inputPath)
	if err != nil {
		return err
	}
	defer closeInput()

	problems, err := render.Validate(input)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if g.noColor {
		green.DisableColor()
		red.DisableColor()
	}

	if len(problems) == 0 {
		if !g.quiet {
			green.Fprintf(out, "catalogue is valid (%s)\n", label)
		}

		return nil
	}

	red.Fprintf(out, "catalogue validation failed (%s)\n", label)

	for _, p := range problems {
		red.Fprintf(out, "  - %s\n", p)
	}

	return fmt.Errorf("%w: %d problem(s) in %s", ErrInvalidCatalogue, len(problems), label)
}

func openInput(stdin io.Reader, path string) (io.Reader, string, func(), error) {
	if path == stdinArg {
		return stdin, "stdin", func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open %s: %w", path, err)
	}

	return f, path, func() { _ = f.Close() }, nil
}
