package media

import (
	"context"
	"errors"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/runloop"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// Options configures a Synchronizer
type Options struct {
	Thumbnails ThumbnailOptions
	// DriftTolerance is how far (seconds) a playing handle may stray from the
	// timeline before it is re-seeked
	DriftTolerance float64
}

type entry struct {
	handle Handle
	kind   timeline.Kind
	source string
	gen    uint64
	cancel context.CancelFunc
}

// Synchronizer owns the pool of media handles, one per non-subtitle media
// clip. All methods run on the editor goroutine; asynchronous load and
// thumbnail results are posted back through the dispatcher and dropped when
// the registration that produced them is no longer current.
type Synchronizer struct {
	logger   zerolog.Logger
	store    *timeline.Store
	opener   Opener
	dispatch runloop.Dispatcher
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	entries  map[string]*entry
	measured map[string]bool
	nextGen  uint64

	// OnError is told about clips evicted because their media failed
	OnError func(clipID string, err error)
	// OnFrame is told when a handle produced a new visible frame
	OnFrame func(clipID string)
}

// NewSynchronizer creates an empty pool
func NewSynchronizer(logger zerolog.Logger, store *timeline.Store, opener Opener, dispatch runloop.Dispatcher, opts Options) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		logger:   logging.Component(logger, "media"),
		store:    store,
		opener:   opener,
		dispatch: dispatch,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
		measured: make(map[string]bool),
	}
}

// Reconcile brings the pool in line with p: stale handles are torn down and
// every media clip whose resolved source changed gets a fresh handle.
func (s *Synchronizer) Reconcile(p *timeline.Project) {
	subs := p.SubtitleIDs()
	var wanted []timeline.Clip
	present := make(map[string]bool)
	for _, c := range p.Clips() {
		if !c.Kind.IsMedia() {
			continue
		}
		if _, ok := subs[c.ID]; ok {
			continue
		}
		wanted = append(wanted, c)
		present[c.ID] = true
	}

	for id := range s.entries {
		if !present[id] {
			s.Release(id)
		}
	}

	for _, c := range wanted {
		src := p.ResolvedSource(c)
		if e, ok := s.entries[c.ID]; ok && e.source == src && e.kind == c.Kind {
			continue
		}
		s.teardown(c.ID)
		s.register(c, src)
	}
}

func (s *Synchronizer) register(c timeline.Clip, src string) {
	s.nextGen++
	gen := s.nextGen
	id, kind := c.ID, c.Kind

	ctx, cancel := context.WithCancel(s.ctx)
	e := &entry{kind: kind, source: src, gen: gen, cancel: cancel}
	s.entries[id] = e

	s.logger.Debug().
		Str("clip", id).
		Str("kind", string(kind)).
		Str("source", src).
		Uint64("gen", gen).
		Msg("registering media handle")

	if src == "" {
		s.dispatch.Dispatch(func() { s.evict(id, gen, errors.New("clip has no media source")) })
		return
	}

	h, err := s.opener.Open(kind, src, func() {
		s.dispatch.Dispatch(func() {
			if s.current(id, gen) && s.OnFrame != nil {
				s.OnFrame(id)
			}
		})
	})
	if err != nil {
		s.dispatch.Dispatch(func() { s.evict(id, gen, err) })
		return
	}
	e.handle = h

	go func() {
		meta, err := h.Load(ctx)
		if ctx.Err() != nil {
			return
		}
		s.dispatch.Dispatch(func() {
			if !s.current(id, gen) {
				return
			}
			if err != nil {
				s.evict(id, gen, err)
				return
			}
			s.applyMetadata(ctx, id, gen, meta)
		})
	}()
}

func (s *Synchronizer) applyMetadata(ctx context.Context, id string, gen uint64, meta Metadata) {
	e := s.entries[id]
	genuine := validDuration(meta.Duration)
	first := !s.measured[id]
	if genuine {
		s.measured[id] = true
	}

	snap := s.store.Update(func(p *timeline.Project) {
		p.UpdateClip(id, func(c *timeline.Clip) {
			if meta.Width > 0 && meta.Height > 0 {
				c.Width = meta.Width
				c.Height = meta.Height
			}
			if c.Kind == timeline.KindVideo && first && genuine {
				c.Duration = meta.Duration
			}
		})
	})

	s.logger.Debug().
		Str("clip", id).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Float64("duration", meta.Duration).
		Msg("media metadata loaded")

	c, ok := snap.Clip(id)
	if !ok || e.kind != timeline.KindVideo || !genuine || len(c.Thumbnails) > 0 {
		return
	}

	times := ThumbnailTimes(meta.Duration, s.opts.Thumbnails)
	h := e.handle
	go func() {
		thumbs, err := extractThumbnails(ctx, h, times, s.opts.Thumbnails.Width)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Debug().Err(err).Str("clip", id).Int("captured", len(thumbs)).Msg("thumbnail extraction stopped")
		}
		if len(thumbs) == 0 {
			return
		}
		s.dispatch.Dispatch(func() {
			if !s.current(id, gen) {
				return
			}
			s.store.Update(func(p *timeline.Project) {
				p.UpdateClip(id, func(c *timeline.Clip) {
					if len(c.Thumbnails) == 0 {
						c.Thumbnails = thumbs
					}
				})
			})
		})
	}()
}

// evict removes a clip whose media failed, together with its handle and any
// asset no other clip references
func (s *Synchronizer) evict(id string, gen uint64, err error) {
	if !s.current(id, gen) {
		return
	}
	src := s.entries[id].source
	s.Release(id)

	s.logger.Warn().
		Err(err).
		Str("clip", id).
		Str("source", src).
		Msg("media failed to load, removing clip")

	s.store.Update(func(p *timeline.Project) {
		c, ok := p.RemoveClip(id)
		if !ok {
			return
		}
		p.ReleaseAsset(c.AssetID)
		if p.Playback.SelectedClipID == id {
			p.Playback.SelectedClipID = ""
		}
	})

	if s.OnError != nil {
		s.OnError(id, err)
	}
}

// SyncPlayback aligns every video handle with timeline time t. Handles of
// clips active at t follow the transport and are re-seeked when they drift
// past the tolerance or when force is set; all others are paused.
func (s *Synchronizer) SyncPlayback(p *timeline.Project, t float64, playing, force bool) {
	rate := p.Playback.Rate
	if rate <= 0 {
		rate = 1
	}
	for id, e := range s.entries {
		if e.handle == nil || e.kind != timeline.KindVideo {
			continue
		}
		c, ok := p.Clip(id)
		if !ok {
			continue
		}
		h := e.handle
		if !c.Contains(t) || !playing {
			if !h.Paused() {
				h.Pause()
			}
		}
		if !c.Contains(t) {
			continue
		}

		local := t - c.StartTime
		if force || math.Abs(h.Position()-local) > s.opts.DriftTolerance {
			h.Seek(local)
		}
		if playing && h.Paused() {
			h.Play(rate)
		}
	}
}

// Frame returns the current visual content of the clip's handle
func (s *Synchronizer) Frame(clipID string) image.Image {
	e, ok := s.entries[clipID]
	if !ok || e.handle == nil {
		return nil
	}
	return e.handle.Frame()
}

// Handle returns the clip's handle. Only Capture and Load may be used off the
// editor goroutine.
func (s *Synchronizer) Handle(clipID string) (Handle, bool) {
	e, ok := s.entries[clipID]
	if !ok || e.handle == nil {
		return nil, false
	}
	return e.handle, true
}

// Source reports the locator the clip's handle is bound to
func (s *Synchronizer) Source(clipID string) (string, bool) {
	e, ok := s.entries[clipID]
	if !ok {
		return "", false
	}
	return e.source, true
}

// Len is the number of registered handles
func (s *Synchronizer) Len() int {
	return len(s.entries)
}

// Release tears down the clip's handle and abandons its pending work
func (s *Synchronizer) Release(clipID string) {
	s.teardown(clipID)
	delete(s.measured, clipID)
}

// TeardownAll releases every handle. The synchronizer must not be reused.
func (s *Synchronizer) TeardownAll() {
	for id := range s.entries {
		s.Release(id)
	}
	s.cancel()
	s.logger.Debug().Msg("all media handles released")
}

func (s *Synchronizer) teardown(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.cancel()
	if e.handle != nil {
		e.handle.Pause()
		if err := e.handle.Close(); err != nil {
			s.logger.Debug().Err(err).Str("clip", id).Msg("closing media handle")
		}
	}
	delete(s.entries, id)
}

func (s *Synchronizer) current(id string, gen uint64) bool {
	e, ok := s.entries[id]
	return ok && e.gen == gen
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}
