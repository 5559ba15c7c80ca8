package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/streamparse/internal/harness"
)

// NewRecognizersCommand creates the recognizers command.
func NewRecognizersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recognizers",
		Short: "List the recognizer catalog",
		Long: `List the recognizers scenarios can name.

Capturers finish with status "captured"; the rest are matchers. Entries
marked "test" need a scenario integer test.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			infos := harness.Recognizers()
			if formatter.JSON() {
				return formatter.Success(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tTEST\tDESCRIPTION")
			for _, info := range infos {
				kind := "matcher"
				if info.Capturer {
					kind = "capturer"
				}
				test := "-"
				if info.NeedsTest {
					test = "test"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, kind, test, info.Description)
			}
			return tw.Flush()
		},
	}
}
