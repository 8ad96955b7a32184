// Package editor implements the clip lifecycle operations. Every generic
// operation refuses subtitle-backed clips; those change only through the
// subtitle operations.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/media"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

var (
	ErrSubtitleClip  = errors.New("subtitle clips can only change through subtitle operations")
	ErrNoSelection   = errors.New("no clip selected")
	ErrClipNotFound  = errors.New("clip not found")
	ErrNotAnimatable = errors.New("property cannot be keyframed")
	ErrNotText       = errors.New("clip is not a text clip")
	ErrUnknownAsset  = errors.New("unknown media asset")
	ErrInvalidStyle  = errors.New("invalid subtitle style")
	ErrNotFinite     = errors.New("value must be a finite number")
)

// Releaser drops the media handle bound to a clip
type Releaser interface {
	Release(clipID string)
}

// Options holds clip defaults
type Options struct {
	TextDuration             float64
	ImageDuration            float64
	PlaceholderVideoDuration float64
}

// Manager mutates the project held by a store. It must be used from the
// editor goroutine.
type Manager struct {
	logger   zerolog.Logger
	store    *timeline.Store
	releaser Releaser
	opts     Options

	// Sniff classifies ingested files; defaults to media.SniffKind
	Sniff func(path string) (timeline.Kind, error)
}

// New creates a manager. releaser may be nil.
func New(logger zerolog.Logger, store *timeline.Store, releaser Releaser, opts Options) *Manager {
	return &Manager{
		logger:   logging.Component(logger, "editor"),
		store:    store,
		releaser: releaser,
		opts:     opts,
		Sniff:    media.SniffKind,
	}
}

// Patch holds optional static field updates for UpdateProperty
type Patch struct {
	Position *timeline.Vec2
	Scale    *timeline.Vec2
	Rotation *float64
	Opacity  *float64
	Start    *float64
	Duration *float64
}

func (p Patch) empty() bool {
	return p.Position == nil && p.Scale == nil && p.Rotation == nil &&
		p.Opacity == nil && p.Start == nil && p.Duration == nil
}

// finite reports whether every field the patch sets is a real number
func (p Patch) finite() bool {
	ok := true
	if p.Position != nil {
		ok = ok && finite(p.Position.X, p.Position.Y)
	}
	if p.Scale != nil {
		ok = ok && finite(p.Scale.X, p.Scale.Y)
	}
	for _, v := range []*float64{p.Rotation, p.Opacity, p.Start, p.Duration} {
		if v != nil {
			ok = ok && finite(*v)
		}
	}
	return ok
}

// Select makes id the selected clip; an empty id clears the selection
func (m *Manager) Select(id string) error {
	if id != "" {
		p := m.store.Snapshot()
		if p.IsSubtitle(id) {
			return m.reject("select", id, ErrSubtitleClip)
		}
		if _, ok := p.Clip(id); !ok {
			return m.reject("select", id, ErrClipNotFound)
		}
	}
	m.store.Update(func(p *timeline.Project) {
		p.Playback.SelectedClipID = id
	})
	return nil
}

// Selected returns the selected clip, if any
func (m *Manager) Selected() (timeline.Clip, bool) {
	p := m.store.Snapshot()
	return p.Clip(p.Playback.SelectedClipID)
}

// AddTextClip appends a text clip after every existing clip on the first
// track and selects it
func (m *Manager) AddTextClip(text string) (timeline.Clip, error) {
	id := uuid.NewString()
	snap := m.store.Update(func(p *timeline.Project) {
		c := newClip(id, timeline.KindText, text, p.MaxEndTime(), m.opts.TextDuration)
		c.Name = "Text"
		p.AppendClip(0, c)
		p.Playback.SelectedClipID = id
	})

	c, _ := snap.Clip(id)
	m.logger.Debug().Str("clip", id).Float64("start", c.StartTime).Msg("text clip added")
	return c, nil
}

// Delete removes the selected clip, its media handle, and its asset when no
// other clip references it
func (m *Manager) Delete() error {
	c, err := m.selected("delete")
	if err != nil {
		return err
	}

	if m.releaser != nil {
		m.releaser.Release(c.ID)
	}
	m.store.Update(func(p *timeline.Project) {
		if _, ok := p.RemoveClip(c.ID); ok {
			if a, released := p.ReleaseAsset(c.AssetID); released {
				m.logger.Debug().Str("asset", a.ID).Msg("asset released")
			}
		}
		p.Playback.SelectedClipID = ""
	})

	m.logger.Debug().Str("clip", c.ID).Msg("clip deleted")
	return nil
}

// UpdateProperty merges patch into the selected clip's static fields.
// Keyframes are left alone.
func (m *Manager) UpdateProperty(patch Patch) error {
	c, err := m.selected("update")
	if err != nil {
		return err
	}
	if patch.empty() {
		return nil
	}
	if !patch.finite() {
		return m.reject("update", c.ID, ErrNotFinite)
	}

	m.store.Update(func(p *timeline.Project) {
		p.UpdateClip(c.ID, func(c *timeline.Clip) {
			if patch.Position != nil {
				c.Position = *patch.Position
			}
			if patch.Scale != nil {
				c.Scale = *patch.Scale
			}
			if patch.Rotation != nil {
				c.Rotation = *patch.Rotation
			}
			if patch.Opacity != nil {
				c.Opacity = math.Max(0, math.Min(1, *patch.Opacity))
			}
			if patch.Start != nil {
				c.StartTime = *patch.Start
			}
			if patch.Duration != nil {
				c.Duration = *patch.Duration
			}
		})
	})
	return nil
}

// UpdateText replaces the content of the selected text clip
func (m *Manager) UpdateText(text string) error {
	c, err := m.selected("update_text")
	if err != nil {
		return err
	}
	if c.Kind != timeline.KindText {
		return m.reject("update_text", c.ID, ErrNotText)
	}

	m.store.Update(func(p *timeline.Project) {
		p.UpdateClip(c.ID, func(c *timeline.Clip) {
			c.Source = text
		})
	})
	return nil
}

// AddOrUpdateKeyframe pins the property's current effective value at the
// given time
func (m *Manager) AddOrUpdateKeyframe(prop timeline.Property, at float64) error {
	c, err := m.keyframeTarget(prop, at)
	if err != nil {
		return err
	}
	value, _ := c.ValueAt(prop, at)
	m.setKeyframe(c.ID, prop, at, value)
	return nil
}

// SetKeyframe inserts or replaces a keyframe with an explicit value
func (m *Manager) SetKeyframe(prop timeline.Property, at float64, value timeline.Value) error {
	c, err := m.keyframeTarget(prop, at)
	if err != nil {
		return err
	}
	if !finite(value.X, value.Y) {
		return m.reject("keyframe", c.ID, ErrNotFinite)
	}
	m.setKeyframe(c.ID, prop, at, value)
	return nil
}

func (m *Manager) keyframeTarget(prop timeline.Property, at float64) (timeline.Clip, error) {
	c, err := m.selected("keyframe")
	if err != nil {
		return timeline.Clip{}, err
	}
	if !prop.Animatable() {
		return timeline.Clip{}, m.reject("keyframe", c.ID, fmt.Errorf("%s: %w", prop, ErrNotAnimatable))
	}
	if !finite(at) {
		return timeline.Clip{}, m.reject("keyframe", c.ID, fmt.Errorf("keyframe time: %w", ErrNotFinite))
	}
	return c, nil
}

func (m *Manager) setKeyframe(id string, prop timeline.Property, at float64, value timeline.Value) {
	m.store.Update(func(p *timeline.Project) {
		p.SetKeyframe(id, prop, timeline.Keyframe{Time: at, Value: value})
	})
	m.logger.Debug().
		Str("clip", id).
		Str("property", string(prop)).
		Float64("at", at).
		Msg("keyframe set")
}

// selected returns the selected clip if it may be edited generically
func (m *Manager) selected(op string) (timeline.Clip, error) {
	p := m.store.Snapshot()
	id := p.Playback.SelectedClipID
	if id == "" {
		return timeline.Clip{}, m.reject(op, "", ErrNoSelection)
	}
	if p.IsSubtitle(id) {
		return timeline.Clip{}, m.reject(op, id, ErrSubtitleClip)
	}
	c, ok := p.Clip(id)
	if !ok {
		return timeline.Clip{}, m.reject(op, id, ErrClipNotFound)
	}
	return c, nil
}

func (m *Manager) reject(op, id string, err error) error {
	m.logger.Warn().
		Err(err).
		Str("op", op).
		Str("clip", id).
		Msg("mutation rejected")
	return err
}

func newClip(id string, kind timeline.Kind, source string, start, duration float64) timeline.Clip {
	t := timeline.DefaultTransform()
	return timeline.Clip{
		ID:        id,
		Kind:      kind,
		Source:    source,
		StartTime: start,
		Duration:  duration,
		Position:  t.Position,
		Scale:     t.Scale,
		Rotation:  t.Rotation,
		Opacity:   t.Opacity,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
