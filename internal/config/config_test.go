package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slopstudio.yaml")
	contents := []byte(`
canvas:
  width: 1080
  height: 1920
subtitles:
  font_size: 30
  underline: true
`)
	require.NoError(t, os.WriteFile(path, contents, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1080, cfg.Canvas.Width)
	assert.Equal(t, 1920, cfg.Canvas.Height)
	assert.Equal(t, "#000000", cfg.Canvas.Background)
	assert.Equal(t, 30.0, cfg.Subtitles.FontSize)
	assert.True(t, cfg.Subtitles.Underline)
	assert.Equal(t, "center", cfg.Subtitles.Alignment)
	assert.Equal(t, 0.1, cfg.Timeline.MinClipDuration)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slopstudio.toml")
	contents := []byte(`
staging_dir = "/tmp/stage"

[playback]
fps = 30

[timeline]
pixels_per_second = 100.0
`)
	require.NoError(t, os.WriteFile(path, contents, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stage", cfg.StagingDir)
	assert.Equal(t, 30, cfg.Playback.FPS)
	assert.Equal(t, 100.0, cfg.Timeline.PixelsPerSecond)
	assert.Equal(t, 1.0, cfg.Playback.Rate)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Canvas.Width = 640
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, loaded.Canvas.Width)
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Canvas.Width = 1
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, 1920, FromContext(context.Background()).Canvas.Width)
}
