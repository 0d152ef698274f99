package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/brogergvhs/democap/internal/capture"
	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/encoder"
	"github.com/brogergvhs/democap/internal/ui"
	"github.com/brogergvhs/democap/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagEncodeOut       string
	flagEncodeEncoder   string
	flagEncodeFFmpeg    string
	flagEncodeFramerate int
	flagEncodeScale     int
	flagEncodeColors    int
)

var encodeCmd = &cobra.Command{
	Use:   "encode <frames-dir>",
	Short: "Assemble a kept frame directory (f000.png, f001.png, ...) into a GIF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(config.Options{
			Encoder:    flagEncodeEncoder,
			FFmpegPath: flagEncodeFFmpeg,
			Framerate:  flagEncodeFramerate,
			ScaleWidth: flagEncodeScale,
		})
		if err != nil {
			return err
		}

		frames, err := capture.OpenFrameStore(args[0])
		if err != nil {
			return fmt.Errorf("open frames: %w", err)
		}
		if frames.Count() == 0 {
			return fmt.Errorf("%s: %w", args[0], encoder.ErrNoFrames)
		}

		output := flagEncodeOut
		if output == "" {
			output = defaultGIFName(frames.Dir())
		}

		colors := cfg.MaxColors
		if flagEncodeColors > 0 {
			colors = flagEncodeColors
		}

		enc, err := newEncoder(cfg.Encoder, cfg.FFmpegPath)
		if err != nil {
			return err
		}

		logSvc := ui.NewLoggerTo(cmd.OutOrStdout(), cfg.Debug)
		logSvc.Infof("Encoding %d frames with %s...", frames.Count(), enc.Name())

		start := time.Now()
		err = enc.Encode(cmd.Context(), encoder.Job{
			FramesDir:  frames.Dir(),
			Pattern:    capture.FramePattern,
			Count:      frames.Count(),
			Output:     output,
			Framerate:  cfg.Framerate,
			ScaleWidth: cfg.ScaleWidth,
			MaxColors:  colors,
		})
		if err != nil {
			var encErr *encoder.Error
			if errors.As(err, &encErr) && encErr.Stderr != "" {
				logSvc.Errorf("%s error: %s", encErr.Encoder, encErr.Stderr)
			}
			return err
		}

		logSvc.Infof("GIF created: %s (%s, %s)", output, util.Human(util.FileSize(output)), util.HumanDuration(time.Since(start)))
		return nil
	},
}

// defaultGIFName derives "<output>/<name>.gif" from a staging directory
// named "<name>_<runid>_tmp".
func defaultGIFName(dir string) string {
	dir = filepath.Clean(dir)
	base := strings.TrimSuffix(filepath.Base(dir), util.StagingSuffix)
	if i := strings.LastIndex(base, "_"); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(dir), base+".gif")
}

func init() {
	encodeCmd.Flags().StringVarP(&flagEncodeOut, "output", "o", "", "GIF path (default: next to the frame directory)")
	encodeCmd.Flags().StringVar(&flagEncodeEncoder, "encoder", "", "GIF encoder: auto, ffmpeg or native")
	encodeCmd.Flags().StringVar(&flagEncodeFFmpeg, "ffmpeg", "", "path to the ffmpeg binary")
	encodeCmd.Flags().IntVar(&flagEncodeFramerate, "framerate", 0, "frames per second")
	encodeCmd.Flags().IntVar(&flagEncodeScale, "scale", 0, "GIF width in pixels")
	encodeCmd.Flags().IntVar(&flagEncodeColors, "max-colors", 0, "palette size (2-256)")

	rootCmd.AddCommand(encodeCmd)
}
