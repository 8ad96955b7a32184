// Package viewport derives the preview zoom level from the container size
// and the selected zoom mode.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

var (
	ErrDegenerate  = errors.New("degenerate viewport size")
	ErrInvalidZoom = errors.New("invalid zoom selection")
)

// Presets are the percent zoom choices offered next to fit and fill
var Presets = []float64{25, 50, 75, 100, 150, 200}

// Size is a width and height in pixels
type Size struct {
	W float64
	H float64
}

// Compute returns the zoom level for a container showing a canvas. Fit shows
// the whole canvas, fill covers the container.
func Compute(container, canvas Size, zoom timeline.Zoom) (float64, error) {
	if zoom.Mode == timeline.ZoomPercent {
		if zoom.Percent <= 0 {
			return 0, fmt.Errorf("zoom percent %g: %w", zoom.Percent, ErrDegenerate)
		}
		return zoom.Percent / 100, nil
	}
	if container.W <= 0 || container.H <= 0 || canvas.W <= 0 || canvas.H <= 0 {
		return 0, ErrDegenerate
	}
	sx := container.W / canvas.W
	sy := container.H / canvas.H
	switch zoom.Mode {
	case timeline.ZoomFill:
		return math.Max(sx, sy), nil
	default:
		return math.Min(sx, sy), nil
	}
}

// Controller keeps the store's zoom in step with the container size
type Controller struct {
	logger    zerolog.Logger
	store     *timeline.Store
	container Size
}

// NewController creates a controller
func NewController(logger zerolog.Logger, store *timeline.Store) *Controller {
	return &Controller{
		logger: logging.Component(logger, "viewport"),
		store:  store,
	}
}

// Container is the last reported container size
func (c *Controller) Container() Size {
	return c.container
}

// Resize records a new container size and recomputes the level
func (c *Controller) Resize(container Size) bool {
	c.container = container
	return c.apply(c.store.Snapshot().Zoom)
}

// SelectMode switches to fit or fill. Percent zoom goes through
// SelectPercent.
func (c *Controller) SelectMode(mode timeline.ZoomMode) (bool, error) {
	if mode != timeline.ZoomFit && mode != timeline.ZoomFill {
		return false, c.reject(fmt.Errorf("mode %q: %w", mode, ErrInvalidZoom))
	}
	return c.apply(timeline.Zoom{Mode: mode}), nil
}

// SelectPercent switches to a fixed percent zoom
func (c *Controller) SelectPercent(percent float64) (bool, error) {
	if !(percent > 0) || math.IsInf(percent, 0) {
		return false, c.reject(fmt.Errorf("percent %g: %w", percent, ErrInvalidZoom))
	}
	return c.apply(timeline.Zoom{Mode: timeline.ZoomPercent, Percent: percent}), nil
}

func (c *Controller) reject(err error) error {
	c.logger.Warn().Err(err).Msg("zoom selection rejected")
	return err
}

// Level is the current zoom level
func (c *Controller) Level() float64 {
	return c.store.Snapshot().Zoom.Level
}

// Mode is the current zoom state
func (c *Controller) Mode() timeline.Zoom {
	return c.store.Snapshot().Zoom
}

// apply writes z with a recomputed level and reports whether anything changed.
// A degenerate size keeps the previous level.
func (c *Controller) apply(z timeline.Zoom) bool {
	p := c.store.Snapshot()
	level, err := Compute(c.container, Size{W: float64(p.Width), H: float64(p.Height)}, z)
	if err != nil {
		c.logger.Debug().Err(err).Str("mode", z.Label()).Msg("zoom not recomputed")
		level = p.Zoom.Level
	}
	z.Level = level
	if z == p.Zoom {
		return false
	}
	c.store.Update(func(p *timeline.Project) {
		p.Zoom = z
	})
	c.logger.Debug().Str("mode", z.Label()).Float64("level", level).Msg("zoom changed")
	return true
}
