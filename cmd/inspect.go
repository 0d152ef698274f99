package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brogergvhs/democap/internal/browser"
	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/inspect"
	"github.com/brogergvhs/democap/internal/scenario"
	"github.com/brogergvhs/democap/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagInspectURL    string
	flagInspectFile   string
	flagInspectFilter string
	flagInspectWait   time.Duration
	flagInspectHeaded bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the data-testid elements a page renders, for writing scenario selectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (flagInspectURL == "") == (flagInspectFile == "") {
			return errors.New("exactly one of --url or --file is required")
		}

		var html string
		if flagInspectFile != "" {
			data, err := os.ReadFile(flagInspectFile)
			if err != nil {
				return err
			}
			html = string(data)
		} else {
			var err error
			if html, err = renderedHTML(cmd); err != nil {
				return err
			}
		}

		ids, err := inspect.TestIDs(html)
		if err != nil {
			return err
		}
		ids = inspect.Filter(ids, flagInspectFilter)

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No data-testid elements found.")
			return nil
		}
		return inspect.Format(out, ids)
	},
}

func renderedHTML(cmd *cobra.Command) (string, error) {
	cfg, _, err := loadConfig(config.Options{})
	if err != nil {
		return "", err
	}

	logSvc := ui.NewLoggerTo(cmd.ErrOrStderr(), cfg.Debug)
	target := scenario.ResolveURL(cfg.BaseURL, flagInspectURL)
	logSvc.Infof("Opening %s", target)

	session, err := browser.Launch(cmd.Context(), browser.Options{
		Headless:   !flagInspectHeaded,
		Width:      cfg.ViewportWidth,
		Height:     cfg.ViewportHeight,
		Scale:      cfg.DeviceScaleFactor,
		ChromePath: cfg.ChromePath,
		CDPURL:     cfg.CDPURL,
		UserAgent:  cfg.UserAgent,
		Debugf:     logSvc.Debugf,
	})
	if err != nil {
		return "", err
	}
	defer session.Close()

	ctx := cmd.Context()
	if err := session.Navigate(ctx, target); err != nil {
		return "", err
	}

	t := time.NewTimer(flagInspectWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
	}

	return session.HTML(ctx)
}

func init() {
	inspectCmd.Flags().StringVar(&flagInspectURL, "url", "", "page to open, absolute or relative to base_url")
	inspectCmd.Flags().StringVar(&flagInspectFile, "file", "", "read HTML from a saved file instead of a browser")
	inspectCmd.Flags().StringVar(&flagInspectFilter, "filter", "", "only show test ids containing this text")
	inspectCmd.Flags().DurationVar(&flagInspectWait, "wait", 2*time.Second, "time to let the page render before reading it")
	inspectCmd.Flags().BoolVar(&flagInspectHeaded, "headed", false, "show the browser window")

	rootCmd.AddCommand(inspectCmd)
}
