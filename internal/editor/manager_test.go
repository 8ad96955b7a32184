package editor

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/slopstudio/internal/timeline"
)

type recordingReleaser struct {
	released []string
}

func (r *recordingReleaser) Release(id string) {
	r.released = append(r.released, id)
}

func newTestManager(t *testing.T) (*Manager, *timeline.Store, *recordingReleaser) {
	t.Helper()
	store := timeline.NewStore(timeline.New(1920, 1080), 0.1)
	rel := &recordingReleaser{}
	m := New(zerolog.Nop(), store, rel, Options{
		TextDuration:             5,
		ImageDuration:            4,
		PlaceholderVideoDuration: 3,
	})
	m.Sniff = func(path string) (timeline.Kind, error) {
		if path == "photo.png" {
			return timeline.KindImage, nil
		}
		return timeline.KindVideo, nil
	}
	return m, store, rel
}

func ptr[T any](v T) *T { return &v }

// withSubtitle ingests one subtitle and returns its id
func withSubtitle(t *testing.T, m *Manager, store *timeline.Store) string {
	t.Helper()
	require.NoError(t, m.IngestSubtitles([]timeline.SubtitleEntry{{StartTime: 1, EndTime: 2.5, Text: "Hello"}}))
	p := store.Snapshot()
	require.Len(t, p.Subtitles, 1)
	return p.Subtitles[0].ID
}

func TestAddTextClipAppendsAfterEverything(t *testing.T) {
	m, store, _ := newTestManager(t)

	first, err := m.AddTextClip("one")
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.StartTime)
	assert.Equal(t, 5.0, first.EndTime)

	second, err := m.AddTextClip("two")
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.StartTime)
	assert.Equal(t, 10.0, second.EndTime)

	p := store.Snapshot()
	assert.Equal(t, second.ID, p.Playback.SelectedClipID)
	assert.Equal(t, 10.0, p.TotalDuration)
	assert.Len(t, p.Tracks[0].Clips, 2)
	assert.Equal(t, timeline.KindText, second.Kind)
	assert.Equal(t, timeline.Vec2{X: 1, Y: 1}, second.Scale)
	assert.Equal(t, 1.0, second.Opacity)
}

func TestAddTextClipAfterSubtitles(t *testing.T) {
	m, store, _ := newTestManager(t)
	require.NoError(t, m.IngestSubtitles([]timeline.SubtitleEntry{{StartTime: 10, EndTime: 20, Text: "late"}}))
	require.Equal(t, 20.0, store.Snapshot().TotalDuration)

	c, err := m.AddTextClip("x")
	require.NoError(t, err)
	assert.Equal(t, 20.0, c.StartTime)
	assert.Equal(t, 25.0, store.Snapshot().TotalDuration)
}

func TestSelect(t *testing.T) {
	m, store, _ := newTestManager(t)
	c, _ := m.AddTextClip("a")
	subID := withSubtitle(t, m, store)

	require.NoError(t, m.Select(""))
	assert.Empty(t, store.Snapshot().Playback.SelectedClipID)

	require.NoError(t, m.Select(c.ID))
	assert.Equal(t, c.ID, store.Snapshot().Playback.SelectedClipID)

	assert.ErrorIs(t, m.Select(subID), ErrSubtitleClip)
	assert.Equal(t, c.ID, store.Snapshot().Playback.SelectedClipID)

	assert.ErrorIs(t, m.Select("missing"), ErrClipNotFound)
}

func TestDeleteOnlyClipKeepsOneTrack(t *testing.T) {
	m, store, rel := newTestManager(t)
	c, _ := m.AddTextClip("a")

	require.NoError(t, m.Delete())
	p := store.Snapshot()
	require.Len(t, p.Tracks, 1)
	assert.Empty(t, p.Tracks[0].Clips)
	assert.Empty(t, p.Playback.SelectedClipID)
	assert.Zero(t, p.TotalDuration)
	assert.Equal(t, []string{c.ID}, rel.released)

	assert.ErrorIs(t, m.Delete(), ErrNoSelection)
}

func TestDeleteReleasesUnreferencedAsset(t *testing.T) {
	m, store, _ := newTestManager(t)
	asset, err := m.BeginIngest("clip.mp4", "/tmp/clip.mp4")
	require.NoError(t, err)
	first, err := m.IngestMedia(asset.ID, "https://cdn/clip.mp4")
	require.NoError(t, err)

	// a second clip sharing the asset keeps it alive
	store.Update(func(p *timeline.Project) {
		dup := first
		dup.ID = "dup"
		dup.StartTime = 20
		p.AppendClip(0, dup)
	})

	require.NoError(t, m.Select(first.ID))
	require.NoError(t, m.Delete())
	_, ok := store.Snapshot().Asset(asset.ID)
	assert.True(t, ok)

	require.NoError(t, m.Select("dup"))
	require.NoError(t, m.Delete())
	_, ok = store.Snapshot().Asset(asset.ID)
	assert.False(t, ok)
}

func TestUpdateProperty(t *testing.T) {
	m, store, _ := newTestManager(t)
	c, _ := m.AddTextClip("a")

	require.NoError(t, m.UpdateProperty(Patch{
		Position: &timeline.Vec2{X: 0.25, Y: 0.5},
		Opacity:  ptr(1.7),
		Rotation: ptr(45.0),
		Start:    ptr(2.0),
		Duration: ptr(0.01),
	}))

	got, _ := store.Snapshot().Clip(c.ID)
	assert.Equal(t, timeline.Vec2{X: 0.25, Y: 0.5}, got.Position)
	assert.Equal(t, 1.0, got.Opacity)
	assert.Equal(t, 45.0, got.Rotation)
	assert.Equal(t, 2.0, got.StartTime)
	assert.Equal(t, 0.1, got.Duration, "duration never drops below the minimum")
	assert.Equal(t, got.StartTime+got.Duration, got.EndTime)
	assert.Empty(t, got.Keyframes)
}

func TestUpdateText(t *testing.T) {
	m, store, _ := newTestManager(t)
	c, _ := m.AddTextClip("before")
	require.NoError(t, m.UpdateText("after"))
	got, _ := store.Snapshot().Clip(c.ID)
	assert.Equal(t, "after", got.Source)

	asset, _ := m.BeginIngest("photo", "photo.png")
	_, err := m.IngestMedia(asset.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, m.UpdateText("nope"), ErrNotText)
}

func TestAddOrUpdateKeyframeSnapshotsEffectiveValue(t *testing.T) {
	m, store, _ := newTestManager(t)
	c, _ := m.AddTextClip("a")

	require.NoError(t, m.UpdateProperty(Patch{Opacity: ptr(0.5)}))
	require.NoError(t, m.AddOrUpdateKeyframe(timeline.PropOpacity, 1))

	got, _ := store.Snapshot().Clip(c.ID)
	require.Len(t, got.Keyframes[timeline.PropOpacity], 1)
	assert.Equal(t, 0.5, got.Keyframes[timeline.PropOpacity][0].Value.X)

	// a second keyframe, then one between them takes the interpolated value
	require.NoError(t, m.SetKeyframe(timeline.PropOpacity, 3, timeline.Scalar(1)))
	require.NoError(t, m.AddOrUpdateKeyframe(timeline.PropOpacity, 2))
	got, _ = store.Snapshot().Clip(c.ID)
	frames := got.Keyframes[timeline.PropOpacity]
	require.Len(t, frames, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{frames[0].Time, frames[1].Time, frames[2].Time})
	assert.InDelta(t, 0.75, frames[1].Value.X, 1e-9)

	// same time replaces
	require.NoError(t, m.SetKeyframe(timeline.PropOpacity, 2, timeline.Scalar(0.1)))
	got, _ = store.Snapshot().Clip(c.ID)
	require.Len(t, got.Keyframes[timeline.PropOpacity], 3)
	assert.Equal(t, 0.1, got.Keyframes[timeline.PropOpacity][1].Value.X)
}

func TestKeyframeNonAnimatable(t *testing.T) {
	m, store, _ := newTestManager(t)
	m.AddTextClip("a")
	before := store.Snapshot()

	assert.ErrorIs(t, m.AddOrUpdateKeyframe(timeline.PropStart, 0), ErrNotAnimatable)
	assert.ErrorIs(t, m.SetKeyframe(timeline.PropText, 0, timeline.Value{}), ErrNotAnimatable)
	assert.Same(t, before, store.Snapshot(), "rejected mutations publish nothing")
}

func TestNonFiniteValuesRejected(t *testing.T) {
	m, store, _ := newTestManager(t)
	_, err := m.AddTextClip("a")
	require.NoError(t, err)
	require.NoError(t, m.SetKeyframe(timeline.PropOpacity, 1, timeline.Scalar(0.5)))
	before := store.Snapshot()

	nan, inf := math.NaN(), math.Inf(1)
	patches := map[string]Patch{
		"duration": {Duration: ptr(nan)},
		"start":    {Start: ptr(inf)},
		"opacity":  {Opacity: ptr(nan)},
		"rotation": {Rotation: ptr(math.Inf(-1))},
		"position": {Position: &timeline.Vec2{X: nan}},
		"scale":    {Scale: &timeline.Vec2{Y: inf}},
		"mixed":    {Opacity: ptr(0.5), Duration: ptr(nan)},
	}
	for name, patch := range patches {
		assert.ErrorIs(t, m.UpdateProperty(patch), ErrNotFinite, name)
	}
	assert.ErrorIs(t, m.AddOrUpdateKeyframe(timeline.PropOpacity, nan), ErrNotFinite)
	assert.ErrorIs(t, m.SetKeyframe(timeline.PropOpacity, inf, timeline.Scalar(1)), ErrNotFinite)
	assert.ErrorIs(t, m.SetKeyframe(timeline.PropPosition, 2, timeline.Vec2{X: nan}), ErrNotFinite)
	assert.Same(t, before, store.Snapshot(), "rejected mutations publish nothing")

	c, _ := m.Selected()
	assert.Equal(t, 5.0, c.Duration)
	assert.Equal(t, c.StartTime+c.Duration, c.EndTime)
}

func TestIngestSubtitlesSkipsNonFiniteEntries(t *testing.T) {
	m, store, _ := newTestManager(t)
	require.NoError(t, m.IngestSubtitles([]timeline.SubtitleEntry{
		{StartTime: 0, EndTime: math.Inf(1), Text: "forever"},
		{StartTime: math.NaN(), EndTime: 1, Text: "never"},
		{StartTime: 1, EndTime: 2, Text: "ok"},
	}))
	p := store.Snapshot()
	require.Len(t, p.Subtitles, 1)
	assert.Equal(t, "ok", p.Subtitles[0].Text)
	assert.Equal(t, 2.0, p.TotalDuration)
}

func TestSubtitleClipsRejectGenericMutation(t *testing.T) {
	m, store, _ := newTestManager(t)
	subID := withSubtitle(t, m, store)

	// force the selection past Select to exercise every guard
	store.Update(func(p *timeline.Project) { p.Playback.SelectedClipID = subID })
	before := store.Snapshot()

	assert.ErrorIs(t, m.UpdateProperty(Patch{Opacity: ptr(0.2)}), ErrSubtitleClip)
	assert.ErrorIs(t, m.UpdateText("x"), ErrSubtitleClip)
	assert.ErrorIs(t, m.AddOrUpdateKeyframe(timeline.PropOpacity, 1), ErrSubtitleClip)
	assert.ErrorIs(t, m.SetKeyframe(timeline.PropPosition, 1, timeline.Vec2{}), ErrSubtitleClip)
	assert.ErrorIs(t, m.Delete(), ErrSubtitleClip)
	assert.Same(t, before, store.Snapshot())

	c, ok := store.Snapshot().Clip(subID)
	require.True(t, ok)
	assert.Equal(t, "Hello", c.Source)
}

func TestNoSelection(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.UpdateProperty(Patch{Rotation: ptr(1.0)}), ErrNoSelection)
	assert.ErrorIs(t, m.UpdateText("x"), ErrNoSelection)
	assert.ErrorIs(t, m.AddOrUpdateKeyframe(timeline.PropScale, 0), ErrNoSelection)
	_, ok := m.Selected()
	assert.False(t, ok)
}
