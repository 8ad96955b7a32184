package gesture

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

type nopReleaser struct{}

func (nopReleaser) Release(string) {}

type fixture struct {
	store   *timeline.Store
	manager *editor.Manager
	now     float64
	box     *Box
	preview *PreviewController
	strip   *TimelineController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: timeline.NewStore(timeline.New(1920, 1080), 0.1),
		box:   &Box{},
	}
	f.manager = editor.New(zerolog.Nop(), f.store, nopReleaser{}, editor.Options{
		TextDuration: 5, ImageDuration: 4, PlaceholderVideoDuration: 3,
	})
	f.preview = NewPreviewController(zerolog.Nop(), f.store, f.manager, func() float64 { return f.now }, f.box)
	f.strip = NewTimelineController(zerolog.Nop(), f.store, f.manager, 100, &Box{H: 30})
	return f
}

func (f *fixture) addText(t *testing.T) timeline.Clip {
	t.Helper()
	c, err := f.manager.AddTextClip("hi")
	require.NoError(t, err)
	return c
}

func (f *fixture) clip(t *testing.T, id string) timeline.Clip {
	t.Helper()
	c, ok := f.store.Snapshot().Clip(id)
	require.True(t, ok)
	return c
}

func TestDragOneCanvasWidth(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)
	f.now = 2

	require.NoError(t, f.preview.Drag(1920, 0))

	got := f.clip(t, c.ID)
	assert.InDelta(t, 1.0, got.Position.X, 1e-9)
	assert.InDelta(t, 0.0, got.Position.Y, 1e-9)
	require.Len(t, got.Keyframes[timeline.PropPosition], 1)
	kf := got.Keyframes[timeline.PropPosition][0]
	assert.Equal(t, 2.0, kf.Time)
	assert.InDelta(t, 1.0, kf.Value.X, 1e-9)

	x, _ := f.box.Position()
	assert.InDelta(t, 1920, x, 1e-6)
}

func TestDragHonorsZoom(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)
	f.store.Update(func(p *timeline.Project) { p.Zoom.Level = 0.5 })

	require.NoError(t, f.preview.Drag(0, 270))
	assert.InDelta(t, 0.5, f.clip(t, c.ID).Position.Y, 1e-9)
}

func TestDragStartsFromInterpolatedValue(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)
	require.NoError(t, f.manager.SetKeyframe(timeline.PropPosition, 0, timeline.Vec2{}))
	require.NoError(t, f.manager.SetKeyframe(timeline.PropPosition, 4, timeline.Vec2{X: 0.4}))
	f.now = 2

	require.NoError(t, f.preview.Drag(192, 0))

	got := f.clip(t, c.ID)
	frames := got.Keyframes[timeline.PropPosition]
	require.Len(t, frames, 3)
	assert.Equal(t, 2.0, frames[1].Time)
	assert.InDelta(t, 0.3, frames[1].Value.X, 1e-9)
}

func TestZeroDragWritesNoKeyframe(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)

	require.NoError(t, f.preview.Drag(0, 0))
	assert.Empty(t, f.clip(t, c.ID).Keyframes[timeline.PropPosition])
}

func TestResizeUsesIntrinsicSize(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)
	f.store.Update(func(p *timeline.Project) {
		p.UpdateClip(c.ID, func(c *timeline.Clip) { c.Width, c.Height = 400, 200 })
	})

	require.NoError(t, f.preview.Resize(200, 100))
	got := f.clip(t, c.ID)
	assert.InDelta(t, 0.5, got.Scale.X, 1e-9)
	assert.InDelta(t, 0.5, got.Scale.Y, 1e-9)
	require.Len(t, got.Keyframes[timeline.PropScale], 1)

	w, h := f.box.Size()
	assert.InDelta(t, 200, w, 1e-9)
	assert.InDelta(t, 100, h, 1e-9)

	require.NoError(t, f.preview.Resize(1, 1))
	assert.Equal(t, MinScale, f.clip(t, c.ID).Scale.X)
}

func TestResizeFallsBackToOnScreenBox(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)

	err := f.preview.Resize(100, 50)
	assert.ErrorIs(t, err, ErrDegenerate)

	f.box.SetSize(80, 40)
	require.NoError(t, f.preview.Resize(160, 80))
	assert.InDelta(t, 2.0, f.clip(t, c.ID).Scale.X, 1e-9)
}

func TestRotateNormalizes(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)

	require.NoError(t, f.preview.Rotate(-90))
	got := f.clip(t, c.ID)
	assert.Equal(t, 270.0, got.Rotation)
	require.Len(t, got.Keyframes[timeline.PropRotation], 1)
	assert.Equal(t, 270.0, got.Keyframes[timeline.PropRotation][0].Value.X)
	assert.Equal(t, 270.0, f.box.Rotation())
}

func TestNormalizeDegrees(t *testing.T) {
	tests := map[float64]float64{0: 0, 360: 0, 370: 10, -10: 350, 720.5: 0.5}
	for in, want := range tests {
		assert.InDelta(t, want, NormalizeDegrees(in), 1e-9, "in=%v", in)
	}
}

func TestSubtitleTargetRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.IngestSubtitles([]timeline.SubtitleEntry{{StartTime: 0, EndTime: 1, Text: "Hi"}}))
	id := f.store.Snapshot().Subtitles[0].ID
	f.store.Update(func(p *timeline.Project) { p.Playback.SelectedClipID = id })
	before := f.store.Snapshot()

	*f.box = Box{X: 10, Y: 10, W: 50, H: 50, Degrees: 45}
	assert.ErrorIs(t, f.preview.Drag(10, 10), ErrRejected)
	assert.Equal(t, Box{}, *f.box)
	assert.ErrorIs(t, f.preview.Rotate(30), ErrRejected)
	assert.ErrorIs(t, f.strip.Drag(100), ErrRejected)
	assert.Same(t, before, f.store.Snapshot())
}

func TestNoSelection(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.preview.Drag(1, 1), editor.ErrNoSelection)
	assert.ErrorIs(t, f.strip.ResizeEnd(1), editor.ErrNoSelection)
}

func TestTimelineDrag(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)

	require.NoError(t, f.strip.Drag(250))
	got := f.clip(t, c.ID)
	assert.InDelta(t, 2.5, got.StartTime, 1e-9)
	assert.InDelta(t, 7.5, got.EndTime, 1e-9)
	x, _ := f.strip.Target().Position()
	assert.InDelta(t, 250, x, 1e-9)

	require.NoError(t, f.strip.Drag(-1000))
	assert.Equal(t, 0.0, f.clip(t, c.ID).StartTime)
}

func TestTimelineResizeEnd(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)

	require.NoError(t, f.strip.ResizeEnd(-200))
	assert.InDelta(t, 3.0, f.clip(t, c.ID).Duration, 1e-9)

	require.NoError(t, f.strip.ResizeEnd(-10000))
	assert.InDelta(t, 0.1, f.clip(t, c.ID).Duration, 1e-9)
	w, h := f.strip.Target().Size()
	assert.InDelta(t, 10, w, 1e-9)
	assert.Equal(t, 30.0, h)
}

func TestTimelineResizeStartKeepsEnd(t *testing.T) {
	f := newFixture(t)
	c := f.addText(t)
	require.NoError(t, f.strip.Drag(100))

	require.NoError(t, f.strip.ResizeStart(200))
	got := f.clip(t, c.ID)
	assert.InDelta(t, 3.0, got.StartTime, 1e-9)
	assert.InDelta(t, 6.0, got.EndTime, 1e-9)

	require.NoError(t, f.strip.ResizeStart(10000))
	got = f.clip(t, c.ID)
	assert.InDelta(t, 5.9, got.StartTime, 1e-9)
	assert.InDelta(t, 0.1, got.Duration, 1e-9)

	require.NoError(t, f.strip.ResizeStart(-10000))
	got = f.clip(t, c.ID)
	assert.Equal(t, 0.0, got.StartTime)
	assert.InDelta(t, 6.0, got.EndTime, 1e-9)
}

func TestTimelineDegenerate(t *testing.T) {
	f := newFixture(t)
	f.addText(t)
	f.strip.PixelsPerSecond = 0
	assert.ErrorIs(t, f.strip.Drag(10), ErrDegenerate)
}
