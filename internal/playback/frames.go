package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kikiluvv/slopstudio/internal/runloop"
)

// FrameSource delivers one callback at the next display frame. The returned
// cancel func withdraws the request.
type FrameSource interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// FrameTask is a cancelable, re-armable single frame request. It holds at
// most one pending request; a callback that arrives after Disarm is dropped.
// Arm and Disarm must be called from the editor goroutine.
type FrameTask struct {
	source FrameSource
	fn     func(now time.Time)

	armed  bool
	token  uint64
	cancel func()
}

// NewFrameTask creates a disarmed task that runs fn on its frame
func NewFrameTask(source FrameSource, fn func(now time.Time)) *FrameTask {
	return &FrameTask{source: source, fn: fn}
}

// Arm requests the next frame unless a request is already pending
func (t *FrameTask) Arm() {
	if t.armed {
		return
	}
	t.armed = true
	t.token++
	token := t.token
	t.cancel = t.source.RequestFrame(func(now time.Time) {
		if !t.armed || t.token != token {
			return
		}
		t.armed = false
		t.cancel = nil
		t.fn(now)
	})
}

// Disarm withdraws the pending request
func (t *FrameTask) Disarm() {
	if !t.armed {
		return
	}
	t.armed = false
	t.token++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Armed reports whether a frame request is pending
func (t *FrameTask) Armed() bool {
	return t.armed
}

// TimerSource produces frames from a wall-clock timer, delivered on the
// editor goroutine through Dispatcher
type TimerSource struct {
	Interval   time.Duration
	Dispatcher runloop.Dispatcher
}

// RequestFrame implements FrameSource
func (s TimerSource) RequestFrame(fn func(now time.Time)) func() {
	var canceled atomic.Bool
	timer := time.AfterFunc(s.Interval, func() {
		if canceled.Load() {
			return
		}
		s.Dispatcher.Dispatch(func() {
			if canceled.Load() {
				return
			}
			fn(time.Now())
		})
	})
	return func() {
		canceled.Store(true)
		timer.Stop()
	}
}

// ManualSource queues frame requests until Fire is called. Headless
// rendering and tests drive frames with it.
type ManualSource struct {
	mu      sync.Mutex
	nextID  int
	pending []manualRequest
}

type manualRequest struct {
	id int
	fn func(now time.Time)
}

// RequestFrame implements FrameSource
func (s *ManualSource) RequestFrame(fn func(now time.Time)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.pending = append(s.pending, manualRequest{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.pending {
			if r.id == id {
				s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
				return
			}
		}
	}
}

// Fire delivers every request queued before the call and returns how many ran
func (s *ManualSource) Fire(now time.Time) int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, r := range batch {
		r.fn(now)
	}
	return len(batch)
}

// Pending is the number of queued requests
func (s *ManualSource) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
