package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// SubtitleTrackID is the id of the track that holds subtitle-backed clips
const SubtitleTrackID = "subtitles"

// Track is an ordered lane of clips, sorted by start time
type Track struct {
	ID    string
	Clips []Clip
}

// MediaAsset is an ingested media file. LocalPath is the temporary locator
// used before upload completes; RemoteURL is the durable one afterwards.
type MediaAsset struct {
	ID        string
	Name      string
	Kind      Kind
	LocalPath string
	RemoteURL string
}

// Locator returns the durable locator when present, else the temporary one
func (a MediaAsset) Locator() string {
	if a.RemoteURL != "" {
		return a.RemoteURL
	}
	return a.LocalPath
}

// SubtitleEntry is one timed line of text
type SubtitleEntry struct {
	ID        string
	StartTime float64
	EndTime   float64
	Text      string
}

// Alignment of subtitle text
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// SubtitleStyle applies to every subtitle entry
type SubtitleStyle struct {
	FontFamily   string
	FontSize     float64
	Alignment    Alignment
	Bold         bool
	Italic       bool
	Underline    bool
	Color        string
	Background   string
	BottomMargin float64 // canvas fraction
}

// PlaybackState is the transport state shared with the UI
type PlaybackState struct {
	Playing        bool
	Muted          bool
	Rate           float64
	SelectedClipID string
}

// ZoomMode selects how the preview zoom level is derived
type ZoomMode string

const (
	ZoomFit     ZoomMode = "fit"
	ZoomFill    ZoomMode = "fill"
	ZoomPercent ZoomMode = "percent"
)

// Zoom is the preview zoom state
type Zoom struct {
	Level   float64
	Mode    ZoomMode
	Percent float64 // only meaningful in ZoomPercent mode
}

// Label is the user-facing name of the zoom mode ("fit", "fill", "150%")
func (z Zoom) Label() string {
	if z.Mode == ZoomPercent {
		return fmt.Sprintf("%g%%", z.Percent)
	}
	return string(z.Mode)
}

// Project is the single owned aggregate of editor state. Snapshots handed out
// by a Store must be treated as immutable.
type Project struct {
	Width  int
	Height int

	Tracks        []Track
	Assets        []MediaAsset
	Subtitles     []SubtitleEntry
	SubtitleStyle SubtitleStyle

	Playback PlaybackState
	Zoom     Zoom

	TotalDuration float64
}

// New returns an empty project with one track
func New(width, height int) *Project {
	p := &Project{
		Width:    width,
		Height:   height,
		Playback: PlaybackState{Rate: 1},
		Zoom:     Zoom{Level: 1, Mode: ZoomFit},
	}
	p.Normalize(0)
	return p
}

// Clone returns a deep copy sharing nothing mutable with p
func (p *Project) Clone() *Project {
	out := *p
	out.Tracks = make([]Track, len(p.Tracks))
	for i, tr := range p.Tracks {
		clips := make([]Clip, len(tr.Clips))
		for j, c := range tr.Clips {
			clips[j] = c.clone()
		}
		out.Tracks[i] = Track{ID: tr.ID, Clips: clips}
	}
	out.Assets = append([]MediaAsset(nil), p.Assets...)
	out.Subtitles = append([]SubtitleEntry(nil), p.Subtitles...)
	return &out
}

// Normalize restores every model invariant after a mutation
func (p *Project) Normalize(minDuration float64) {
	regular := make([]Track, 0, len(p.Tracks))
	var subs *Track
	for i := range p.Tracks {
		tr := p.Tracks[i]
		if tr.ID == SubtitleTrackID {
			subs = &tr
			continue
		}
		regular = append(regular, tr)
	}
	if len(regular) == 0 {
		regular = append(regular, Track{ID: uuid.NewString()})
	}
	if subs != nil && len(subs.Clips) > 0 {
		regular = append(regular, *subs)
	}
	p.Tracks = regular

	total := 0.0
	for ti := range p.Tracks {
		tr := &p.Tracks[ti]
		for ci := range tr.Clips {
			c := &tr.Clips[ci]
			if c.StartTime < 0 || math.IsNaN(c.StartTime) {
				c.StartTime = 0
			}
			if c.Duration < minDuration || math.IsNaN(c.Duration) {
				c.Duration = minDuration
			}
			c.EndTime = c.StartTime + c.Duration
			c.TrackID = tr.ID
			for prop, frames := range c.Keyframes {
				if len(frames) == 0 {
					delete(c.Keyframes, prop)
					continue
				}
				c.Keyframes[prop] = sortKeyframes(frames)
			}
			if c.EndTime > total {
				total = c.EndTime
			}
		}
		sort.SliceStable(tr.Clips, func(i, j int) bool {
			return tr.Clips[i].StartTime < tr.Clips[j].StartTime
		})
	}
	p.TotalDuration = total
}

// Clip looks up a clip by id
func (p *Project) Clip(id string) (Clip, bool) {
	ti, ci := p.locate(id)
	if ti < 0 {
		return Clip{}, false
	}
	return p.Tracks[ti].Clips[ci], true
}

// Clips returns every clip in track order
func (p *Project) Clips() []Clip {
	var out []Clip
	for _, tr := range p.Tracks {
		out = append(out, tr.Clips...)
	}
	return out
}

// IsSubtitle reports whether id is backed by an entry of the subtitle list
func (p *Project) IsSubtitle(id string) bool {
	for _, s := range p.Subtitles {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SubtitleIDs returns the subtitle membership set
func (p *Project) SubtitleIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Subtitles))
	for _, s := range p.Subtitles {
		ids[s.ID] = struct{}{}
	}
	return ids
}

// MaxEndTime returns the end of the latest clip, subtitle clips included
func (p *Project) MaxEndTime() float64 {
	end := 0.0
	for _, tr := range p.Tracks {
		for _, c := range tr.Clips {
			if c.EndTime > end {
				end = c.EndTime
			}
		}
	}
	return end
}

// Asset looks up a media asset by id
func (p *Project) Asset(id string) (MediaAsset, bool) {
	for _, a := range p.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return MediaAsset{}, false
}

// ResolvedSource returns the locator a media handle for c must be bound to
func (p *Project) ResolvedSource(c Clip) string {
	if c.AssetID != "" {
		if a, ok := p.Asset(c.AssetID); ok && a.Locator() != "" {
			return a.Locator()
		}
	}
	return c.Source
}

// UpdateClip applies fn to the clip with the given id
func (p *Project) UpdateClip(id string, fn func(c *Clip)) bool {
	ti, ci := p.locate(id)
	if ti < 0 {
		return false
	}
	fn(&p.Tracks[ti].Clips[ci])
	return true
}

// AppendClip adds c to the track at index ti, creating tracks as needed
func (p *Project) AppendClip(ti int, c Clip) {
	for len(p.Tracks) <= ti {
		p.Tracks = append(p.Tracks, Track{ID: uuid.NewString()})
	}
	c.TrackID = p.Tracks[ti].ID
	p.Tracks[ti].Clips = append(p.Tracks[ti].Clips, c)
}

// RemoveClip deletes the clip from its track. A track left empty is removed
// only while another track remains.
func (p *Project) RemoveClip(id string) (Clip, bool) {
	ti, ci := p.locate(id)
	if ti < 0 {
		return Clip{}, false
	}
	tr := &p.Tracks[ti]
	removed := tr.Clips[ci]
	tr.Clips = append(tr.Clips[:ci:ci], tr.Clips[ci+1:]...)
	if len(tr.Clips) == 0 && len(p.Tracks) > 1 {
		p.Tracks = append(p.Tracks[:ti:ti], p.Tracks[ti+1:]...)
	}
	if len(p.Tracks) == 0 {
		p.Tracks = []Track{{ID: uuid.NewString()}}
	}
	return removed, true
}

// ReleaseAsset drops the asset when no clip references it any more
func (p *Project) ReleaseAsset(assetID string) (MediaAsset, bool) {
	if assetID == "" {
		return MediaAsset{}, false
	}
	for _, c := range p.Clips() {
		if c.AssetID == assetID {
			return MediaAsset{}, false
		}
	}
	for i, a := range p.Assets {
		if a.ID == assetID {
			p.Assets = append(p.Assets[:i:i], p.Assets[i+1:]...)
			return a, true
		}
	}
	return MediaAsset{}, false
}

// UpdateAsset applies fn to the asset with the given id
func (p *Project) UpdateAsset(id string, fn func(a *MediaAsset)) bool {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			fn(&p.Assets[i])
			return true
		}
	}
	return false
}

// SetKeyframe inserts or replaces a keyframe on one property of a clip. A
// NaN time would break the ordering and is refused.
func (p *Project) SetKeyframe(id string, prop Property, k Keyframe) bool {
	if math.IsNaN(k.Time) {
		return false
	}
	return p.UpdateClip(id, func(c *Clip) {
		if c.Keyframes == nil {
			c.Keyframes = make(Keyframes)
		}
		c.Keyframes[prop] = InsertKeyframe(c.Keyframes[prop], k)
	})
}

// ActiveClip is a clip visible at some instant together with its subtitle flag
type ActiveClip struct {
	Clip     Clip
	Subtitle bool
}

// ActiveAt returns the clips containing t in drawing order (track order,
// then start time). Each id appears at most once.
func (p *Project) ActiveAt(t float64) []ActiveClip {
	subs := p.SubtitleIDs()
	seen := make(map[string]struct{})
	var out []ActiveClip
	for _, tr := range p.Tracks {
		for _, c := range tr.Clips {
			if !c.Contains(t) {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			_, isSub := subs[c.ID]
			out = append(out, ActiveClip{Clip: c, Subtitle: isSub})
		}
	}
	return out
}

func (p *Project) locate(id string) (int, int) {
	if id == "" {
		return -1, -1
	}
	for ti, tr := range p.Tracks {
		for ci, c := range tr.Clips {
			if c.ID == id {
				return ti, ci
			}
		}
	}
	return -1, -1
}
