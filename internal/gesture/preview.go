package gesture

import (
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// PreviewController handles drag, resize and rotate on the preview, where
// the target lives in screen pixels
type PreviewController struct {
	logger zerolog.Logger
	store  *timeline.Store
	editor Editor
	now    func() float64
	target Target
}

// NewPreviewController creates a controller. now returns the playback time
// keyframes are written at.
func NewPreviewController(logger zerolog.Logger, store *timeline.Store, ed Editor, now func() float64, target Target) *PreviewController {
	return &PreviewController{
		logger: logging.Component(logger, "gesture").With().Str("space", "preview").Logger(),
		store:  store,
		editor: ed,
		now:    now,
		target: target,
	}
}

// Target is the on-screen handle driven by this controller
func (c *PreviewController) Target() Target {
	return c.target
}

// Drag moves the selected clip by a screen delta
func (c *PreviewController) Drag(dx, dy float64) error {
	p, clip, err := c.begin("drag")
	if err != nil {
		return err
	}
	zoom := p.Zoom.Level
	if zoom <= 0 || p.Width <= 0 || p.Height <= 0 {
		return c.degenerate("drag")
	}

	t := c.now()
	before, _ := clip.ValueAt(timeline.PropPosition, t)
	after := timeline.Vec2{
		X: before.X + dx/zoom/float64(p.Width),
		Y: before.Y + dy/zoom/float64(p.Height),
	}

	if err := c.apply(timeline.PropPosition, t, before, after, editor.Patch{Position: &after}); err != nil {
		return err
	}
	c.target.SetPosition(after.X*float64(p.Width)*zoom, after.Y*float64(p.Height)*zoom)
	return nil
}

// Resize sets a uniform scale from the new on-screen box width
func (c *PreviewController) Resize(w, h float64) error {
	p, clip, err := c.begin("resize")
	if err != nil {
		return err
	}
	zoom := p.Zoom.Level
	if zoom <= 0 || w <= 0 || h <= 0 {
		return c.degenerate("resize")
	}

	t := c.now()
	before, _ := clip.ValueAt(timeline.PropScale, t)
	iw, ih := float64(clip.Width), float64(clip.Height)
	if iw <= 0 || ih <= 0 {
		// no intrinsic size yet: derive it from the box currently on screen
		tw, th := c.target.Size()
		if tw <= 0 || th <= 0 || before.X <= 0 || before.Y <= 0 {
			return c.degenerate("resize")
		}
		iw, ih = tw/zoom/before.X, th/zoom/before.Y
	}

	s := max(MinScale, (w/zoom)/iw)
	after := timeline.Vec2{X: s, Y: s}
	if err := c.apply(timeline.PropScale, t, before, after, editor.Patch{Scale: &after}); err != nil {
		return err
	}
	c.target.SetSize(iw*s*zoom, ih*s*zoom)
	return nil
}

// Rotate sets the absolute rotation in degrees
func (c *PreviewController) Rotate(deg float64) error {
	_, clip, err := c.begin("rotate")
	if err != nil {
		return err
	}

	t := c.now()
	before, _ := clip.ValueAt(timeline.PropRotation, t)
	rot := NormalizeDegrees(deg)
	after := timeline.Scalar(rot)
	if err := c.apply(timeline.PropRotation, t, before, after, editor.Patch{Rotation: &rot}); err != nil {
		return err
	}
	c.target.SetRotation(rot)
	return nil
}

// begin resolves the selected clip, rejecting subtitle-backed ones
func (c *PreviewController) begin(op string) (*timeline.Project, timeline.Clip, error) {
	return resolve(c.logger, c.store, c.target, op)
}

// apply writes the static value and keyframes it when it moved
func (c *PreviewController) apply(prop timeline.Property, t float64, before, after timeline.Value, patch editor.Patch) error {
	if err := c.editor.UpdateProperty(patch); err != nil {
		return err
	}
	if !changed(before, after) {
		return nil
	}
	return c.editor.SetKeyframe(prop, t, after)
}

func (c *PreviewController) degenerate(op string) error {
	c.logger.Debug().Str("op", op).Msg("gesture abandoned: degenerate geometry")
	return ErrDegenerate
}

func resolve(logger zerolog.Logger, store *timeline.Store, target Target, op string) (*timeline.Project, timeline.Clip, error) {
	p := store.Snapshot()
	id := p.Playback.SelectedClipID
	if id == "" {
		return nil, timeline.Clip{}, editor.ErrNoSelection
	}
	if p.IsSubtitle(id) {
		logger.Warn().Str("op", op).Str("clip", id).Msg("gesture rejected: subtitle clip")
		target.Reset()
		return nil, timeline.Clip{}, ErrRejected
	}
	clip, ok := p.Clip(id)
	if !ok {
		return nil, timeline.Clip{}, editor.ErrClipNotFound
	}
	return p, clip, nil
}
