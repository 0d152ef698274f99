package cmd

import (
	"fmt"

	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/util"

	"github.com/spf13/cobra"
)

var flagCleanOutput string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove frame directories left behind by interrupted or failed captures",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(config.Options{Output: flagCleanOutput})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		removed := util.CleanupStagingDirs(cfg.Output)
		if len(removed) == 0 {
			fmt.Fprintf(out, "Nothing to clean in %s\n", cfg.Output)
			return nil
		}

		for _, dir := range removed {
			fmt.Fprintf(out, "Removed %s\n", dir)
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&flagCleanOutput, "output", "", "output folder to clean")
	rootCmd.AddCommand(cleanCmd)
}
