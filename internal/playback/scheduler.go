// Package playback owns the current time and drives the frame loop.
package playback

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// ErrNotEditing is returned by Play outside editor mode
var ErrNotEditing = errors.New("playback requires editor mode")

// MediaSync keeps media handles aligned with the timeline
type MediaSync interface {
	SyncPlayback(p *timeline.Project, t float64, playing, force bool)
}

// Drawer composites the frame at t
type Drawer interface {
	Draw(t float64)
}

// DrawFunc adapts a function to a Drawer
type DrawFunc func(t float64)

// Draw calls f(t)
func (f DrawFunc) Draw(t float64) { f(t) }

// Scheduler is the paused/playing state machine. The playing flag lives in
// the project's playback state; the current time lives here. All methods run
// on the editor goroutine.
type Scheduler struct {
	logger zerolog.Logger
	store  *timeline.Store
	media  MediaSync
	drawer Drawer
	task   *FrameTask
	clock  func() time.Time

	editing bool
	time    float64
	last    time.Time
}

// NewScheduler creates a paused scheduler outside editor mode. media may be
// nil; clock defaults to time.Now.
func NewScheduler(logger zerolog.Logger, store *timeline.Store, media MediaSync, drawer Drawer, frames FrameSource, clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	s := &Scheduler{
		logger: logging.Component(logger, "playback"),
		store:  store,
		media:  media,
		drawer: drawer,
		clock:  clock,
	}
	s.task = NewFrameTask(frames, s.Tick)
	return s
}

// SetEditing enters or leaves editor mode. Leaving stops playback.
func (s *Scheduler) SetEditing(editing bool) {
	if s.editing == editing {
		return
	}
	s.editing = editing
	if !editing {
		s.Stop()
		return
	}
	s.Redraw()
}

// Editing reports whether the scheduler is in editor mode
func (s *Scheduler) Editing() bool {
	return s.editing
}

// Play starts the frame loop. Playing from the end restarts at zero.
func (s *Scheduler) Play() error {
	if !s.editing {
		s.logger.Warn().Msg("play rejected outside editor mode")
		s.Stop()
		return ErrNotEditing
	}
	if s.Playing() {
		return nil
	}

	total := s.store.Snapshot().TotalDuration
	if s.time >= total {
		s.time = 0
	}
	p := s.setPlaying(true)
	s.last = s.clock()
	s.sync(p, true, true)
	s.task.Arm()

	s.logger.Debug().Float64("at", s.time).Msg("playing")
	return nil
}

// Pause stops the frame loop and draws the current time once
func (s *Scheduler) Pause() {
	s.task.Disarm()
	p := s.store.Snapshot()
	if p.Playback.Playing {
		p = s.setPlaying(false)
	}
	s.sync(p, false, false)
	s.drawer.Draw(s.time)
}

// Toggle switches between playing and paused
func (s *Scheduler) Toggle() error {
	if s.Playing() {
		s.Pause()
		return nil
	}
	return s.Play()
}

// Seek moves the current time, clamped to the project length. The next
// composited frame reflects the new time.
func (s *Scheduler) Seek(t float64) {
	p := s.store.Snapshot()
	s.time = clamp(t, p.TotalDuration)

	if p.Playback.Playing {
		s.sync(p, true, true)
		return
	}
	s.sync(p, false, true)
	s.drawer.Draw(s.time)
}

// Tick advances time by the elapsed wall time scaled by the playback rate,
// draws, and re-arms while still playing
func (s *Scheduler) Tick(now time.Time) {
	p := s.store.Snapshot()
	if !p.Playback.Playing {
		return
	}

	elapsed := now.Sub(s.last).Seconds()
	s.last = now
	if elapsed < 0 {
		elapsed = 0
	}
	rate := p.Playback.Rate
	if rate <= 0 {
		rate = 1
	}

	s.time += elapsed * rate
	if s.time >= p.TotalDuration {
		s.time = p.TotalDuration
		p = s.setPlaying(false)
		s.logger.Debug().Float64("at", s.time).Msg("reached end")
	}

	playing := p.Playback.Playing
	s.sync(p, playing, false)
	s.drawer.Draw(s.time)
	if playing {
		s.task.Arm()
	}
}

// Redraw re-composites the current time while paused. The time is clamped
// when the project got shorter.
func (s *Scheduler) Redraw() {
	p := s.store.Snapshot()
	s.time = clamp(s.time, p.TotalDuration)
	if p.Playback.Playing {
		return
	}
	s.sync(p, false, false)
	s.drawer.Draw(s.time)
}

// Stop cancels the frame loop without drawing
func (s *Scheduler) Stop() {
	s.task.Disarm()
	if s.Playing() {
		p := s.setPlaying(false)
		s.sync(p, false, false)
	}
}

// Time is the current playback time in seconds
func (s *Scheduler) Time() float64 {
	return s.time
}

// Playing reports the project's playing flag
func (s *Scheduler) Playing() bool {
	return s.store.Snapshot().Playback.Playing
}

func (s *Scheduler) setPlaying(playing bool) *timeline.Project {
	return s.store.Update(func(p *timeline.Project) {
		p.Playback.Playing = playing
	})
}

func (s *Scheduler) sync(p *timeline.Project, playing, force bool) {
	if s.media != nil {
		s.media.SyncPlayback(p, s.time, playing, force)
	}
}

func clamp(t, total float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if t > total {
		return total
	}
	return t
}
