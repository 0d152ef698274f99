package cmd

import (
	"fmt"

	"github.com/brogergvhs/democap/internal/config"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-flow>",
	Short: "Check a scenario file and print the steps it would run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := resolveScenario(args[0])
		if err != nil {
			return err
		}

		cfg, _, err := loadConfig(config.Options{})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printPlan(out, sc, cfg.BaseURL, settingsFor(cfg, sc, func(string) bool { return false }))
		fmt.Fprintf(out, "\n%s is valid.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
