package gesture

import (
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// TimelineController handles clip drags and edge resizes on the timeline
// strip, where the target's x axis is time scaled by pixels per second
type TimelineController struct {
	logger zerolog.Logger
	store  *timeline.Store
	editor Editor
	target Target

	// PixelsPerSecond is the timeline's horizontal zoom
	PixelsPerSecond float64
}

// NewTimelineController creates a controller
func NewTimelineController(logger zerolog.Logger, store *timeline.Store, ed Editor, pps float64, target Target) *TimelineController {
	return &TimelineController{
		logger:          logging.Component(logger, "gesture").With().Str("space", "timeline").Logger(),
		store:           store,
		editor:          ed,
		target:          target,
		PixelsPerSecond: pps,
	}
}

// Target is the on-screen handle driven by this controller
func (c *TimelineController) Target() Target {
	return c.target
}

// Drag shifts the selected clip in time
func (c *TimelineController) Drag(dx float64) error {
	clip, err := c.begin("timeline_drag")
	if err != nil {
		return err
	}
	start := max(0, clip.StartTime+dx/c.PixelsPerSecond)
	return c.write(start, clip.Duration, editor.Patch{Start: &start})
}

// ResizeEnd moves the clip's end edge
func (c *TimelineController) ResizeEnd(dx float64) error {
	clip, err := c.begin("timeline_resize_end")
	if err != nil {
		return err
	}
	dur := max(c.store.MinDuration(), clip.Duration+dx/c.PixelsPerSecond)
	return c.write(clip.StartTime, dur, editor.Patch{Duration: &dur})
}

// ResizeStart moves the clip's start edge, keeping its end fixed
func (c *TimelineController) ResizeStart(dx float64) error {
	clip, err := c.begin("timeline_resize_start")
	if err != nil {
		return err
	}
	minDur := c.store.MinDuration()
	end := clip.EndTime
	start := max(0, clip.StartTime+dx/c.PixelsPerSecond)
	if end-start < minDur {
		start = max(0, end-minDur)
	}
	dur := end - start
	return c.write(start, dur, editor.Patch{Start: &start, Duration: &dur})
}

func (c *TimelineController) begin(op string) (timeline.Clip, error) {
	if c.PixelsPerSecond <= 0 {
		c.logger.Debug().Str("op", op).Msg("gesture abandoned: degenerate geometry")
		return timeline.Clip{}, ErrDegenerate
	}
	_, clip, err := resolve(c.logger, c.store, c.target, op)
	return clip, err
}

func (c *TimelineController) write(start, dur float64, patch editor.Patch) error {
	if err := c.editor.UpdateProperty(patch); err != nil {
		return err
	}
	_, y := c.target.Position()
	_, h := c.target.Size()
	c.target.SetPosition(start*c.PixelsPerSecond, y)
	c.target.SetSize(dur*c.PixelsPerSecond, h)
	return nil
}
