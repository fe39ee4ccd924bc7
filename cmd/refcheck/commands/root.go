// Package commands implements the refcheck CLI.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/refcheck/internal/logging"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitFindings = 2
)

// errFindings is returned by check when --fail-on-findings is set and the
// run produced diagnostics.
var errFindings = errors.New("findings reported")

type rootOptions struct {
	logLevel  string
	logFormat string
	noColor   bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "refcheck",
		Short: "Check referenceable game records for data problems",
		Long: `refcheck audits referenceable records (books, activators, potions,
apparati) and reports every problem it finds, one line per problem:

  Book: b1|b1 has an empty name

Records marked deleted are skipped.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if opts.noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newCheckCmd(), newKindsCmd())
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	cmd := NewRootCmd(version)
	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFindings):
		return exitFindings
	default:
		red := color.New(color.FgRed, color.Bold)
		red.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
}
