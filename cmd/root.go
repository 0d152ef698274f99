package cmd

import (
	"github.com/brogergvhs/democap/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
)

// newStore is swapped in tests to keep profiles inside a temp dir.
var newStore = config.DefaultStore

var rootCmd = &cobra.Command{
	Use:           "democap",
	Short:         "Record UI walkthroughs of a web app as looping GIFs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(opts config.Options) (*config.Config, string, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = flagDebug
	return newStore().LoadMerged(opts)
}
