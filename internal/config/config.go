package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Where temporary local copies of ingested media live
	StagingDir string `yaml:"staging_dir" toml:"staging_dir"`

	Canvas     CanvasConfig    `yaml:"canvas" toml:"canvas"`
	Playback   PlaybackConfig  `yaml:"playback" toml:"playback"`
	Timeline   TimelineConfig  `yaml:"timeline" toml:"timeline"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails" toml:"thumbnails"`
	Subtitles  SubtitleConfig  `yaml:"subtitles" toml:"subtitles"`
	Text       TextConfig      `yaml:"text" toml:"text"`
	FFmpeg     FFmpegConfig    `yaml:"ffmpeg" toml:"ffmpeg"`
}

type CanvasConfig struct {
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Background string `yaml:"background" toml:"background"`
}

type PlaybackConfig struct {
	FPS            int     `yaml:"fps" toml:"fps"`
	Rate           float64 `yaml:"rate" toml:"rate"`
	DriftTolerance float64 `yaml:"drift_tolerance_s" toml:"drift_tolerance_s"`
}

type TimelineConfig struct {
	MinClipDuration          float64 `yaml:"min_clip_duration_s" toml:"min_clip_duration_s"`
	TextClipDuration         float64 `yaml:"text_clip_duration_s" toml:"text_clip_duration_s"`
	ImageClipDuration        float64 `yaml:"image_clip_duration_s" toml:"image_clip_duration_s"`
	PlaceholderVideoDuration float64 `yaml:"placeholder_video_duration_s" toml:"placeholder_video_duration_s"`
	PixelsPerSecond          float64 `yaml:"pixels_per_second" toml:"pixels_per_second"`
}

type ThumbnailConfig struct {
	Lead     float64 `yaml:"lead_s" toml:"lead_s"`
	Interval float64 `yaml:"interval_s" toml:"interval_s"`
	Tail     float64 `yaml:"tail_s" toml:"tail_s"`
	Width    int     `yaml:"width" toml:"width"`
}

type SubtitleConfig struct {
	FontFamily   string  `yaml:"font_family" toml:"font_family"`
	FontSize     float64 `yaml:"font_size" toml:"font_size"`
	Alignment    string  `yaml:"alignment" toml:"alignment"`
	Bold         bool    `yaml:"bold" toml:"bold"`
	Italic       bool    `yaml:"italic" toml:"italic"`
	Underline    bool    `yaml:"underline" toml:"underline"`
	Color        string  `yaml:"color" toml:"color"`
	Background   string  `yaml:"background" toml:"background"`
	BottomMargin float64 `yaml:"bottom_margin" toml:"bottom_margin"`
}

type TextConfig struct {
	FontFamily string  `yaml:"font_family" toml:"font_family"`
	FontSize   float64 `yaml:"font_size" toml:"font_size"`
	Color      string  `yaml:"color" toml:"color"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	ProbePath  string `yaml:"probe_path" toml:"probe_path"`
	Threads    int    `yaml:"threads" toml:"threads"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal toml config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal returns the YAML encoding of the configuration
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		StagingDir: filepath.Join(os.TempDir(), "slopstudio"),
		Canvas: CanvasConfig{
			Width:      1920,
			Height:     1080,
			Background: "#000000",
		},
		Playback: PlaybackConfig{
			FPS:            60,
			Rate:           1.0,
			DriftTolerance: 0.25,
		},
		Timeline: TimelineConfig{
			MinClipDuration:          0.1,
			TextClipDuration:         5,
			ImageClipDuration:        5,
			PlaceholderVideoDuration: 5,
			PixelsPerSecond:          50,
		},
		Thumbnails: ThumbnailConfig{
			Lead:     0.1,
			Interval: 5,
			Tail:     0.1,
			Width:    160,
		},
		Subtitles: SubtitleConfig{
			FontFamily:   "Go",
			FontSize:     48,
			Alignment:    "center",
			Color:        "#FFFFFF",
			Background:   "#00000099",
			BottomMargin: 0.08,
		},
		Text: TextConfig{
			FontFamily: "Go",
			FontSize:   64,
			Color:      "#FFFFFF",
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
	}
}

// ApplyDefaults fills zero values a partial file left behind
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.StagingDir == "" {
		c.StagingDir = d.StagingDir
	}
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = d.Canvas.Width
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = d.Canvas.Height
	}
	if c.Canvas.Background == "" {
		c.Canvas.Background = d.Canvas.Background
	}
	if c.Playback.FPS <= 0 {
		c.Playback.FPS = d.Playback.FPS
	}
	if c.Playback.Rate <= 0 {
		c.Playback.Rate = d.Playback.Rate
	}
	if c.Playback.DriftTolerance <= 0 {
		c.Playback.DriftTolerance = d.Playback.DriftTolerance
	}
	if c.Timeline.MinClipDuration <= 0 {
		c.Timeline.MinClipDuration = d.Timeline.MinClipDuration
	}
	if c.Timeline.TextClipDuration <= 0 {
		c.Timeline.TextClipDuration = d.Timeline.TextClipDuration
	}
	if c.Timeline.ImageClipDuration <= 0 {
		c.Timeline.ImageClipDuration = d.Timeline.ImageClipDuration
	}
	if c.Timeline.PlaceholderVideoDuration <= 0 {
		c.Timeline.PlaceholderVideoDuration = d.Timeline.PlaceholderVideoDuration
	}
	if c.Timeline.PixelsPerSecond <= 0 {
		c.Timeline.PixelsPerSecond = d.Timeline.PixelsPerSecond
	}
	if c.Thumbnails.Lead <= 0 {
		c.Thumbnails.Lead = d.Thumbnails.Lead
	}
	if c.Thumbnails.Interval <= 0 {
		c.Thumbnails.Interval = d.Thumbnails.Interval
	}
	if c.Thumbnails.Tail <= 0 {
		c.Thumbnails.Tail = d.Thumbnails.Tail
	}
	if c.Thumbnails.Width <= 0 {
		c.Thumbnails.Width = d.Thumbnails.Width
	}
	if c.Subtitles.FontFamily == "" {
		c.Subtitles.FontFamily = d.Subtitles.FontFamily
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = d.Subtitles.FontSize
	}
	if c.Subtitles.Alignment == "" {
		c.Subtitles.Alignment = d.Subtitles.Alignment
	}
	if c.Subtitles.Color == "" {
		c.Subtitles.Color = d.Subtitles.Color
	}
	if c.Subtitles.Background == "" {
		c.Subtitles.Background = d.Subtitles.Background
	}
	if c.Subtitles.BottomMargin <= 0 {
		c.Subtitles.BottomMargin = d.Subtitles.BottomMargin
	}
	if c.Text.FontFamily == "" {
		c.Text.FontFamily = d.Text.FontFamily
	}
	if c.Text.FontSize <= 0 {
		c.Text.FontSize = d.Text.FontSize
	}
	if c.Text.Color == "" {
		c.Text.Color = d.Text.Color
	}
}

func findConfigFile() string {
	candidates := []string{
		"./slopstudio.yaml",
		"./slopstudio.yml",
		"./slopstudio.toml",
		filepath.Join(os.Getenv("HOME"), ".slopstudio", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
