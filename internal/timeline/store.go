package timeline

import "sync"

// Store holds the current project snapshot. Every mutation clones the
// snapshot, applies the change, restores invariants and swaps the result in,
// so a snapshot handed out is never modified afterwards.
type Store struct {
	mu          sync.RWMutex
	current     *Project
	minDuration float64

	subs      []subscriber
	nextSubID int
	notifying bool
	pending   bool
}

type subscriber struct {
	id int
	fn func(*Project)
}

// NewStore creates a store seeded with p
func NewStore(p *Project, minDuration float64) *Store {
	seed := p.Clone()
	seed.Normalize(minDuration)
	return &Store{current: seed, minDuration: minDuration}
}

// Snapshot returns the current project
func (s *Store) Snapshot() *Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// MinDuration is the smallest clip duration the store allows
func (s *Store) MinDuration() float64 {
	return s.minDuration
}

// Update applies fn to a copy of the current project and publishes it.
// Subscribers are notified after the swap; updates issued from inside a
// subscriber are published first and notified in a follow-up round.
// A mutator that panics leaves the current snapshot in place.
func (s *Store) Update(fn func(p *Project)) *Project {
	next := s.swap(fn)
	s.notify()
	return next
}

func (s *Store) swap(fn func(p *Project)) *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Clone()
	fn(next)
	next.Normalize(s.minDuration)
	s.current = next
	return next
}

// Subscribe registers fn to run after every published update
func (s *Store) Subscribe(fn func(*Project)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	if s.notifying {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.notifying = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		s.pending = false
		snap := s.current
		subs := append([]subscriber(nil), s.subs...)
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(snap)
		}

		s.mu.Lock()
		if !s.pending {
			s.notifying = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}
