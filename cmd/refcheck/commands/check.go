package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/JonMunkholm/refcheck/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	failOnFindings bool
	format         string
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <dataset.yaml|dataset.json>",
		Short: "Run the referenceable check over a dataset file",
		Long: `Loads a dataset file and checks every record in it.

A dataset maps kind keys to record lists; each record may carry
"deleted: true". Run "refcheck kinds" for the keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.failOnFindings, "fail-on-findings", false, "exit with status 2 when any problem is reported")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text or json")
	return cmd
}

func runCheck(cmd *cobra.Command, path string, opts *checkOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	ctx := core.ContextWithTrigger(cmd.Context(), "cli")
	records, err := store.NewFileSource(path).Load(ctx)
	if err != nil {
		if core.IsUserFacing(err) {
			return fmt.Errorf("load %s: %w\n%s", path, err, core.FormatUserError(err))
		}
		return fmt.Errorf("load %s: %w", path, err)
	}

	stage := core.NewReferenceableCheckStage(records, nil)
	result := core.RunStages(ctx, []core.Stage{stage}, &core.MessageLog{}, core.RunOptions{
		RunID: "cli",
		OnProgress: func(p core.RunProgress) {
			slog.Debug("progress", "phase", p.Phase, "steps", p.StepsDone, "of", p.TotalSteps)
		},
	})
	result.TriggeredBy = core.TriggeredByFromContext(ctx)

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(out, &result)
	}

	if result.Phase != core.PhaseComplete {
		return fmt.Errorf("check %s: %s", result.Phase, result.Error)
	}
	if opts.failOnFindings && len(result.Messages) > 0 {
		return errFindings
	}
	return nil
}

// printResult writes one line per diagnostic, with the universal id
// highlighted, followed by a summary line.
func printResult(w io.Writer, result *core.RunResult) {
	idColor := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for _, msg := range result.Messages {
		id, rest, ok := strings.Cut(msg, "|")
		if !ok {
			fmt.Fprintln(w, msg)
			continue
		}
		idColor.Fprint(w, id)
		fmt.Fprintf(w, "|%s\n", rest)
	}

	summary := fmt.Sprintf("%d records scanned, %d problems found", result.StepsDone, len(result.Messages))
	if len(result.Messages) == 0 {
		green.Fprintf(w, "✓ %s\n", summary)
	} else {
		yellow.Fprintf(w, "%s\n", summary)
	}
}
