package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List record kinds and their dataset keys, in check order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bold := color.New(color.Bold)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			bold.Fprintln(tw, "KEY\tTYPE\tLABEL")
			for _, def := range core.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Kind.Key(), def.Kind, def.Label)
			}
			return tw.Flush()
		},
	}
}
