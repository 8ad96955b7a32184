package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/slopstudio/internal/config"
	"github.com/kikiluvv/slopstudio/internal/ffmpeg"
	"github.com/kikiluvv/slopstudio/internal/gui"
	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/media"
	"github.com/kikiluvv/slopstudio/internal/playback"
	"github.com/kikiluvv/slopstudio/internal/runloop"
	"github.com/kikiluvv/slopstudio/internal/studio"
	"github.com/kikiluvv/slopstudio/internal/subtitles"
	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

var (
	cfgFile string
	verbose bool
	logFile string

	subtitleFile string
	watch        bool

	frameAt      string
	frameOut     string
	frameTimeout time.Duration
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slopstudio",
	Short: "slopStudio - timeline video composition editor",
	Long:  "Arrange video, images, text and subtitles on tracks, animate them with keyframes and preview the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			logging.Init(verbose, f)
		} else {
			logging.Init(verbose)
		}

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./slopstudio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	editCmd.Flags().StringVarP(&subtitleFile, "subtitles", "s", "", "SRT or WebVTT file to load")
	editCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the subtitle file when it changes")

	frameCmd.Flags().StringVarP(&subtitleFile, "subtitles", "s", "", "SRT or WebVTT file to load")
	frameCmd.Flags().StringVar(&frameAt, "at", "0", "timeline time (seconds or HH:MM:SS.mmm)")
	frameCmd.Flags().StringVarP(&frameOut, "out", "o", "frame.png", "output PNG path")
	frameCmd.Flags().DurationVar(&frameTimeout, "timeout", 30*time.Second, "how long to wait for media to load")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(subtitlesCmd)
	rootCmd.AddCommand(configCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit [media...]",
	Short: "Open the editor window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		return gui.Run(logging.WithComponent("gui"), cfg, gui.Options{
			Media:     args,
			Subtitles: subtitleFile,
			Watch:     watch,
		})
	},
}

var frameCmd = &cobra.Command{
	Use:   "frame [media...]",
	Short: "Compose media and subtitles and write one frame as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		at, err := util.ParseSeconds(frameAt)
		if err != nil {
			return err
		}

		loop := runloop.New()
		defer loop.Close()
		st, err := studio.New(log.Logger, cfg, studio.Options{
			Dispatcher: loop,
			Frames:     &playback.ManualSource{},
		})
		if err != nil {
			return err
		}
		defer st.Close()

		var failed int
		st.OnError = func(clipID string, err error) { failed++ }

		for _, path := range args {
			if _, err := st.AddMedia(path); err != nil {
				return err
			}
		}
		if subtitleFile != "" {
			data, err := os.ReadFile(subtitleFile)
			if err != nil {
				return fmt.Errorf("failed to read subtitles: %w", err)
			}
			if err := st.SubtitlesReady(string(data)); err != nil && !errors.Is(err, subtitles.ErrNoEntries) {
				return err
			}
		}

		if !loop.RunUntil(st.Loaded, frameTimeout) {
			return fmt.Errorf("media did not load within %s", frameTimeout)
		}
		if failed > 0 {
			log.Warn().Int("clips", failed).Msg("some media failed to load and was left out")
		}

		img, err := st.Export(cmd.Context(), at)
		if err != nil {
			return err
		}
		if err := ffmpeg.WritePNG(frameOut, img); err != nil {
			return err
		}

		log.Info().
			Str("output", frameOut).
			Float64("at", at).
			Float64("duration", st.Snapshot().TotalDuration).
			Msg("frame written")
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [file]",
	Short: "Show what the editor detects in a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		out := cmd.OutOrStdout()

		kind, err := media.SniffKind(args[0])
		if err != nil {
			return err
		}

		if kind == timeline.KindImage {
			meta, err := media.NewImageHandle(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "kind:     %s\nsize:     %dx%d\n", kind, meta.Width, meta.Height)
			return nil
		}

		exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
			FFmpegPath:  cfg.FFmpeg.BinaryPath,
			FFprobePath: cfg.FFmpeg.ProbePath,
			Threads:     cfg.FFmpeg.Threads,
		})
		if err != nil {
			return err
		}
		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "kind:     %s\nsize:     %dx%d\nduration: %s\nfps:      %.2f\ncodec:    %s\naudio:    %t\n",
			kind, info.Width, info.Height, util.FormatDuration(info.Duration), info.FPS, info.VideoCodec, info.HasAudio)
		return nil
	},
}

var subtitlesCmd = &cobra.Command{
	Use:   "subtitles [file]",
	Short: "List the entries parsed from an SRT or WebVTT file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := subtitles.ParseFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, e := range entries {
			fmt.Fprintf(out, "%3d  %s --> %s  %q\n", i+1, util.FormatSeconds(e.StartTime), util.FormatSeconds(e.EndTime), e.Text)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.FromContext(cmd.Context()).Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "slopstudio.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
