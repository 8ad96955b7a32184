package media

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/kikiluvv/slopstudio/internal/ffmpeg"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

// FrameDecoder probes videos and decodes single frames. *ffmpeg.Executor
// satisfies it.
type FrameDecoder interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	Frame(ctx context.Context, input string, ts time.Duration, opts ffmpeg.FrameOptions) (image.Image, error)
}

const defaultFrameStep = 1.0 / 30

// VideoHandle plays a video by decoding the frame at its clock position on
// demand. At most one decode is in flight; requests made meanwhile collapse
// into the next one.
type VideoHandle struct {
	decoder FrameDecoder
	source  string
	width   int
	notify  func()
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	duration float64
	step     float64
	pos      float64
	anchor   time.Time
	playing  bool
	rate     float64
	frame    image.Image
	frameAt  float64
	decoding bool
	closed   bool
}

// NewVideoHandle creates an unloaded handle for source. Frames are scaled to
// width when it is positive.
func NewVideoHandle(decoder FrameDecoder, source string, width int, notify func()) *VideoHandle {
	ctx, cancel := context.WithCancel(context.Background())
	if notify == nil {
		notify = func() {}
	}
	return &VideoHandle{
		decoder: decoder,
		source:  source,
		width:   width,
		notify:  notify,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		step:    defaultFrameStep,
		rate:    1,
		frameAt: math.Inf(-1),
	}
}

func (h *VideoHandle) Source() string { return h.source }

// Load probes the video and decodes the first frame
func (h *VideoHandle) Load(ctx context.Context) (Metadata, error) {
	info, err := h.decoder.ProbeVideo(ctx, h.source)
	if err != nil {
		return Metadata{}, fmt.Errorf("probe %s: %w", h.source, err)
	}

	h.mu.Lock()
	h.duration = info.Duration.Seconds()
	if info.FPS > 0 {
		h.step = 1 / info.FPS
	}
	h.requestLocked(h.positionLocked())
	h.mu.Unlock()

	return Metadata{
		Width:    info.Width,
		Height:   info.Height,
		Duration: info.Duration.Seconds(),
	}, nil
}

// Capture decodes the frame at t independently of the playback clock
func (h *VideoHandle) Capture(ctx context.Context, t float64) (image.Image, error) {
	return h.decoder.Frame(ctx, h.source, util.Duration(t), ffmpeg.FrameOptions{Width: h.width, Accurate: true})
}

func (h *VideoHandle) Seek(t float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = h.clampLocked(t)
	h.anchor = h.now()
	h.requestLocked(h.pos)
}

func (h *VideoHandle) Play(rate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rate <= 0 {
		rate = 1
	}
	h.pos = h.positionLocked()
	h.anchor = h.now()
	h.rate = rate
	h.playing = true
}

func (h *VideoHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return
	}
	h.pos = h.positionLocked()
	h.playing = false
	h.requestLocked(h.pos)
}

func (h *VideoHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.playing
}

func (h *VideoHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

// Frame returns the latest decoded frame and schedules a decode when the
// clock has moved past it
func (h *VideoHandle) Frame() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requestLocked(h.positionLocked())
	return h.frame
}

func (h *VideoHandle) Close() error {
	h.cancel()
	h.mu.Lock()
	h.closed = true
	h.playing = false
	h.frame = nil
	h.mu.Unlock()
	return nil
}

func (h *VideoHandle) positionLocked() float64 {
	if !h.playing {
		return h.pos
	}
	return h.clampLocked(h.pos + h.now().Sub(h.anchor).Seconds()*h.rate)
}

func (h *VideoHandle) clampLocked(t float64) float64 {
	if t < 0 {
		return 0
	}
	if h.duration > 0 && t > h.duration {
		return h.duration
	}
	return t
}

func (h *VideoHandle) requestLocked(at float64) {
	if h.closed || h.decoding || math.Abs(at-h.frameAt) < h.step {
		return
	}
	h.decoding = true
	go h.decode(at)
}

func (h *VideoHandle) decode(at float64) {
	img, err := h.decoder.Frame(h.ctx, h.source, util.Duration(at), ffmpeg.FrameOptions{Width: h.width})

	h.mu.Lock()
	h.decoding = false
	if ffmpeg.IsCanceled(err) {
		// canceled work did not fail; the time stays eligible
		h.mu.Unlock()
		return
	}
	// a failed time is not retried until the clock moves on
	h.frameAt = at
	if err == nil && !h.closed {
		h.frame = img
	}
	closed := h.closed
	h.mu.Unlock()

	if err == nil && !closed {
		h.notify()
	}
}
