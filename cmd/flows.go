package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/brogergvhs/democap/internal/flows"

	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the built-in capture flows",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := flows.All()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tLOGIN\tOUTPUT\tDESCRIPTION")
		for _, sc := range all {
			output := sc.OutputName()
			if !sc.CapturesFrames() {
				output = "(stills)"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Name, sc.Login.EffectiveMode(), output, sc.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
}
