// Package commands implements CLI command handlers for localekeys.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultEnvFile = ".env"

	exitFailure           = 1
	exitValidationFailure = 2
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
	verbose    bool
	quiet      bool
	noColor    bool
}

// NewRootCommand builds the localekeys command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "localekeys",
		Short: "Extract translation keys from TypeScript and JavaScript locale modules",
		Long: `localekeys finds locale files whose default export is an object literal,
extracts every key with its source location and follows spreads of imported
locale objects.

Commands:
  extract   Build the key catalogue of a project
  validate  Check a JSON catalogue against the catalogue schema
  lsp       Serve key hover, definition and completion to editors
  mcp       Expose the catalogue to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: .localekeys.yaml in . or $HOME)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before configuration (default: .env when present)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress and informational output")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newExtractCommand(opts),
		newValidateCommand(opts),
		newLSPCommand(opts),
		newMCPCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. The default file is optional; an explicit
// one must exist.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load env file %s: %w", path, err)
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, ErrInvalidCatalogue) {
		return exitValidationFailure
	}

	return exitFailure
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}
