package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/slopstudio/internal/config"
	"github.com/kikiluvv/slopstudio/internal/media"
	"github.com/kikiluvv/slopstudio/internal/playback"
	"github.com/kikiluvv/slopstudio/internal/runloop"
	"github.com/kikiluvv/slopstudio/internal/subtitles"
	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

var red = color.RGBA{R: 255, A: 255}

type harness struct {
	studio *Studio
	loop   *runloop.Loop
	frames *playback.ManualSource
	cfg    *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Canvas.Width, cfg.Canvas.Height = 64, 36
	cfg.StagingDir = t.TempDir()

	h := &harness{loop: runloop.New(), frames: &playback.ManualSource{}, cfg: cfg}
	s, err := New(zerolog.Nop(), cfg, Options{
		Dispatcher: h.loop,
		Frames:     h.frames,
		Opener:     media.DefaultOpener{},
	})
	require.NoError(t, err)
	h.studio = s
	t.Cleanup(func() {
		s.Close()
		h.loop.Close()
	})
	return h
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	require.True(t, h.loop.RunUntil(h.studio.Loaded, 5*time.Second), "media never loaded")
	h.loop.RunPending()
}

func pngBytes(t *testing.T, c color.Color, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, c color.Color, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, c, w, h), 0o644))
	return path
}

func TestNewRequiresDispatcher(t *testing.T) {
	_, err := New(zerolog.Nop(), config.Default(), Options{})
	assert.Error(t, err)
}

func TestNewRejectsBadAlignment(t *testing.T) {
	cfg := config.Default()
	cfg.Subtitles.Alignment = "justify"
	_, err := New(zerolog.Nop(), cfg, Options{Dispatcher: runloop.New(), Opener: media.DefaultOpener{}})
	assert.Error(t, err)
}

func TestAddMediaDrawsSurface(t *testing.T) {
	h := newHarness(t)
	clip, err := h.studio.AddMedia(writePNG(t, red, 64, 36))
	require.NoError(t, err)
	assert.Equal(t, timeline.KindImage, clip.Kind)

	h.settle(t)

	got, ok := h.studio.Snapshot().Clip(clip.ID)
	require.True(t, ok)
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 36, got.Height)
	assert.Equal(t, red, h.studio.Surface().RGBAAt(32, 18))

	sel, ok := h.studio.Selected()
	require.True(t, ok)
	assert.Equal(t, clip.ID, sel.ID)
}

func TestExportCapturesFrame(t *testing.T) {
	h := newHarness(t)
	_, err := h.studio.AddMedia(writePNG(t, red, 32, 36))
	require.NoError(t, err)
	h.settle(t)

	img, err := h.studio.Export(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, red, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(50, 10))
}

func TestMediaFailureEvictsClip(t *testing.T) {
	h := newHarness(t)
	var failed []string
	h.studio.OnError = func(id string, err error) { failed = append(failed, id) }

	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	clip, err := h.studio.AddMedia(path)
	require.NoError(t, err)

	require.True(t, h.loop.RunUntil(func() bool { return len(failed) == 1 }, 5*time.Second))
	assert.Equal(t, []string{clip.ID}, failed)
	_, ok := h.studio.Snapshot().Clip(clip.ID)
	assert.False(t, ok)
	assert.Empty(t, h.studio.Snapshot().Assets)
	assert.Len(t, h.studio.Snapshot().Tracks, 1)
}

func TestUploadStagesUntilReleased(t *testing.T) {
	h := newHarness(t)
	asset, err := h.studio.Upload("pic.png", bytes.NewReader(pngBytes(t, red, 8, 8)))
	require.NoError(t, err)
	require.True(t, util.Within(h.cfg.StagingDir, asset.LocalPath))
	assert.True(t, util.FileExists(asset.LocalPath))
	assert.Equal(t, "png", util.GetExtension(asset.LocalPath))

	_, err = h.studio.AssetIngested(asset.ID, "")
	require.NoError(t, err)
	h.settle(t)
	assert.True(t, util.FileExists(asset.LocalPath))
	assert.Len(t, h.studio.Staged(), 1)

	require.NoError(t, h.studio.Editor().Delete())
	assert.False(t, util.FileExists(asset.LocalPath))
	assert.Empty(t, h.studio.Staged())
}

func TestDurableLocatorReplacesStagedCopy(t *testing.T) {
	body := pngBytes(t, red, 16, 9)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	h := newHarness(t)
	asset, err := h.studio.Upload("pic.png", bytes.NewReader(body))
	require.NoError(t, err)

	clip, err := h.studio.AssetIngested(asset.ID, srv.URL+"/pic.png")
	require.NoError(t, err)
	assert.False(t, util.FileExists(asset.LocalPath))

	h.settle(t)
	src, ok := h.studio.Media().Source(clip.ID)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/pic.png", src)
	got, _ := h.studio.Snapshot().Clip(clip.ID)
	assert.Equal(t, 16, got.Width)
}

func TestUploadRejectsUnknownMedia(t *testing.T) {
	h := newHarness(t)
	_, err := h.studio.Upload("notes.txt", bytes.NewReader([]byte("hello")))
	assert.ErrorIs(t, err, media.ErrUnsupported)
	assert.Empty(t, h.studio.Staged())
	entries, err := os.ReadDir(h.cfg.StagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubtitlesReady(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.studio.SubtitlesReady("00:00:01,000 --> 00:00:02,500\nHello"))

	p := h.studio.Snapshot()
	require.Len(t, p.Subtitles, 1)
	assert.Equal(t, 1.0, p.Subtitles[0].StartTime)
	assert.Equal(t, 2.5, p.Subtitles[0].EndTime)
	assert.Equal(t, "Hello", p.Subtitles[0].Text)
	assert.Equal(t, 2.5, p.TotalDuration)
	assert.Equal(t, timeline.SubtitleTrackID, p.Tracks[len(p.Tracks)-1].ID)

	err := h.studio.SubtitlesReady("nothing useful")
	assert.ErrorIs(t, err, subtitles.ErrNoEntries)
	assert.Empty(t, h.studio.Snapshot().Subtitles)
}

func TestTranscriptReady(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.studio.TranscriptReady([]subtitles.Segment{
		{Start: "00:00:00.500", End: "00:00:01.500", Text: "one"},
		{Start: "2", End: "3", Text: "two"},
	}))
	assert.Len(t, h.studio.Snapshot().Subtitles, 2)
}

func TestContainerResized(t *testing.T) {
	h := newHarness(t)
	assert.True(t, h.studio.ContainerResized(32, 36))
	assert.InDelta(t, 0.5, h.studio.Snapshot().Zoom.Level, 1e-9)
	assert.False(t, h.studio.ContainerResized(32, 36))
}

func TestRateAndMute(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.studio.SetRate(0), ErrInvalidRate)
	require.NoError(t, h.studio.SetRate(2))
	h.studio.SetMuted(true)

	p := h.studio.Snapshot()
	assert.Equal(t, 2.0, p.Playback.Rate)
	assert.True(t, p.Playback.Muted)
}

func TestPlaybackAndClose(t *testing.T) {
	h := newHarness(t)
	_, err := h.studio.Editor().AddTextClip("hi")
	require.NoError(t, err)

	var draws int
	h.studio.OnDraw = func(*image.RGBA) { draws++ }

	require.NoError(t, h.studio.Player().Play())
	assert.True(t, h.studio.Playing())
	assert.Equal(t, 1, h.frames.Pending())

	h.frames.Fire(time.Now().Add(time.Second))
	assert.Positive(t, h.studio.Time())
	assert.Positive(t, draws)

	require.NoError(t, h.studio.Close())
	assert.False(t, h.studio.Playing())
	assert.Zero(t, h.frames.Pending())
	assert.Zero(t, h.studio.Media().Len())
}
