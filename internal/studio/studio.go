// Package studio wires the editor components into one facade that hosts
// (the GUI window, the CLI) drive.
package studio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/compositor"
	"github.com/kikiluvv/slopstudio/internal/config"
	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/ffmpeg"
	"github.com/kikiluvv/slopstudio/internal/fonts"
	"github.com/kikiluvv/slopstudio/internal/gesture"
	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/media"
	"github.com/kikiluvv/slopstudio/internal/playback"
	"github.com/kikiluvv/slopstudio/internal/runloop"
	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/internal/viewport"
)

// ErrInvalidRate is returned for non-positive playback rates
var ErrInvalidRate = errors.New("playback rate must be positive")

// Options configures a Studio
type Options struct {
	// Dispatcher posts work to the editor goroutine. Required.
	Dispatcher runloop.Dispatcher
	// Frames drives playback; defaults to a timer at the configured FPS
	Frames playback.FrameSource
	// Opener creates media handles; defaults to ffmpeg-backed decoding
	Opener media.Opener
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Studio owns one editing session. Every method runs on the editor
// goroutine unless noted.
type Studio struct {
	logger zerolog.Logger
	cfg    *config.Config

	store      *timeline.Store
	media      *media.Synchronizer
	editor     *editor.Manager
	player     *playback.Scheduler
	compositor *compositor.Compositor
	viewport   *viewport.Controller
	preview    *gesture.PreviewController
	strip      *gesture.TimelineController
	staging    *staging

	surface     *image.RGBA
	unsubscribe func()
	closed      bool

	// OnDraw is called after the surface was re-composited
	OnDraw func(surface *image.RGBA)
	// OnChange is called with every new project snapshot
	OnChange func(p *timeline.Project)
	// OnError is told about clips removed because their media failed
	OnError func(clipID string, err error)
}

// New creates a session with an empty project sized to the configured canvas
func New(logger zerolog.Logger, cfg *config.Config, opts Options) (*Studio, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("studio requires a dispatcher")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.Component(logger, "studio")

	style, err := SubtitleStyle(cfg.Subtitles)
	if err != nil {
		return nil, err
	}

	registry, err := fonts.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}
	comp, err := compositor.New(logger, registry, compositor.Options{
		Background: cfg.Canvas.Background,
		Text: compositor.TextStyle{
			FontFamily: cfg.Text.FontFamily,
			FontSize:   cfg.Text.FontSize,
			Color:      cfg.Text.Color,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize compositor: %w", err)
	}

	opener := opts.Opener
	if opener == nil {
		opener = defaultOpener(logger, cfg)
	}
	frames := opts.Frames
	if frames == nil {
		frames = playback.TimerSource{
			Interval:   time.Second / time.Duration(max(1, cfg.Playback.FPS)),
			Dispatcher: opts.Dispatcher,
		}
	}

	project := timeline.New(cfg.Canvas.Width, cfg.Canvas.Height)
	project.Playback.Rate = cfg.Playback.Rate
	project.SubtitleStyle = style
	store := timeline.NewStore(project, cfg.Timeline.MinClipDuration)

	s := &Studio{
		logger:     logger,
		cfg:        cfg,
		store:      store,
		compositor: comp,
		staging:    newStaging(logger, cfg.StagingDir),
		surface:    image.NewRGBA(image.Rect(0, 0, cfg.Canvas.Width, cfg.Canvas.Height)),
	}

	s.media = media.NewSynchronizer(logger, store, opener, opts.Dispatcher, media.Options{
		Thumbnails: media.ThumbnailOptions{
			Lead:     cfg.Thumbnails.Lead,
			Interval: cfg.Thumbnails.Interval,
			Tail:     cfg.Thumbnails.Tail,
			Width:    uint(cfg.Thumbnails.Width),
		},
		DriftTolerance: cfg.Playback.DriftTolerance,
	})
	s.media.OnError = s.mediaFailed
	s.media.OnFrame = s.mediaFrame

	s.editor = editor.New(logger, store, s.media, editor.Options{
		TextDuration:             cfg.Timeline.TextClipDuration,
		ImageDuration:            cfg.Timeline.ImageClipDuration,
		PlaceholderVideoDuration: cfg.Timeline.PlaceholderVideoDuration,
	})
	s.player = playback.NewScheduler(logger, store, s.media, playback.DrawFunc(s.draw), frames, opts.Clock)
	s.viewport = viewport.NewController(logger, store)
	s.preview = gesture.NewPreviewController(logger, store, s.editor, s.player.Time, &gesture.Box{})
	s.strip = gesture.NewTimelineController(logger, store, s.editor, cfg.Timeline.PixelsPerSecond, &gesture.Box{})

	s.unsubscribe = store.Subscribe(s.changed)
	s.player.SetEditing(true)

	logger.Info().
		Int("width", cfg.Canvas.Width).
		Int("height", cfg.Canvas.Height).
		Msg("studio ready")
	return s, nil
}

func defaultOpener(logger zerolog.Logger, cfg *config.Config) media.Opener {
	exec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
	if err != nil {
		// images still work; video clips are evicted when they fail to open
		logger.Warn().Err(err).Msg("ffmpeg unavailable, video playback disabled")
		return media.DefaultOpener{}
	}
	return media.DefaultOpener{Decoder: exec, DecodeWidth: cfg.Canvas.Width}
}

// changed runs after every committed project update
func (s *Studio) changed(p *timeline.Project) {
	s.media.Reconcile(p)
	s.staging.collect(p)
	if !p.Playback.Playing {
		s.player.Redraw()
	}
	if s.OnChange != nil {
		s.OnChange(p)
	}
}

func (s *Studio) draw(t float64) {
	s.compositor.Render(s.surface, t, s.store.Snapshot(), s.media)
	if s.OnDraw != nil {
		s.OnDraw(s.surface)
	}
}

func (s *Studio) mediaFrame(string) {
	if !s.player.Playing() {
		s.draw(s.player.Time())
	}
}

func (s *Studio) mediaFailed(clipID string, err error) {
	if s.OnError != nil {
		s.OnError(clipID, err)
	}
}

// Snapshot is the current project
func (s *Studio) Snapshot() *timeline.Project { return s.store.Snapshot() }

// Store is the project store
func (s *Studio) Store() *timeline.Store { return s.store }

// Editor performs clip lifecycle operations
func (s *Studio) Editor() *editor.Manager { return s.editor }

// Player is the transport
func (s *Studio) Player() *playback.Scheduler { return s.player }

// Viewport is the preview zoom controller
func (s *Studio) Viewport() *viewport.Controller { return s.viewport }

// Preview handles gestures on the preview surface
func (s *Studio) Preview() *gesture.PreviewController { return s.preview }

// Timeline handles gestures on the timeline strip
func (s *Studio) Timeline() *gesture.TimelineController { return s.strip }

// Media is the handle pool
func (s *Studio) Media() *media.Synchronizer { return s.media }

// Surface always holds the latest composited frame
func (s *Studio) Surface() *image.RGBA { return s.surface }

// Time is the current playback time in seconds
func (s *Studio) Time() float64 { return s.player.Time() }

// Playing reports whether playback runs
func (s *Studio) Playing() bool { return s.player.Playing() }

// Selected returns the selected clip, if any
func (s *Studio) Selected() (timeline.Clip, bool) { return s.editor.Selected() }

// ContainerResized feeds a new preview container size into the zoom controller
func (s *Studio) ContainerResized(w, h float64) bool {
	return s.viewport.Resize(viewport.Size{W: w, H: h})
}

// SetMuted toggles audio output
func (s *Studio) SetMuted(muted bool) {
	s.store.Update(func(p *timeline.Project) {
		p.Playback.Muted = muted
	})
}

// SetRate changes the playback rate
func (s *Studio) SetRate(rate float64) error {
	if rate <= 0 {
		s.logger.Warn().Float64("rate", rate).Msg("rate rejected")
		return ErrInvalidRate
	}
	s.store.Update(func(p *timeline.Project) {
		p.Playback.Rate = rate
	})
	if s.player.Playing() {
		// restart handles at the new rate
		s.player.Pause()
		return s.player.Play()
	}
	return nil
}

// Loaded reports whether every media clip has its intrinsic size
func (s *Studio) Loaded() bool {
	p := s.store.Snapshot()
	subs := p.SubtitleIDs()
	for _, c := range p.Clips() {
		if _, ok := subs[c.ID]; ok || !c.Kind.IsMedia() {
			continue
		}
		if c.Width <= 0 || c.Height <= 0 {
			return false
		}
	}
	return true
}

// Export composites the frame at t with frames decoded exactly at t,
// independent of the playback state. It may block on decoding.
func (s *Studio) Export(ctx context.Context, t float64) (*image.RGBA, error) {
	p := s.store.Snapshot()
	frames := make(capturedFrames)
	for _, active := range p.ActiveAt(t) {
		c := active.Clip
		if active.Subtitle || !c.Kind.IsMedia() {
			continue
		}
		h, ok := s.media.Handle(c.ID)
		if !ok {
			continue
		}
		img, err := h.Capture(ctx, t-c.StartTime)
		if err != nil {
			return nil, fmt.Errorf("capture %s at %.3fs: %w", c.Name, t, err)
		}
		frames[c.ID] = img
	}

	out := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	s.compositor.Render(out, t, p, frames)
	return out, nil
}

type capturedFrames map[string]image.Image

func (f capturedFrames) Frame(id string) image.Image { return f[id] }

// Close stops playback, releases every media handle and removes staged files
func (s *Studio) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.player.SetEditing(false)
	s.unsubscribe()
	s.media.TeardownAll()
	s.staging.removeAll()
	s.logger.Info().Msg("studio closed")
	return nil
}
