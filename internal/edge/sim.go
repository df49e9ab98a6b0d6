package edge

import (
	"sync"
	"time"
)

// simPeriod is the time one full 0-and-1 cycle across all registered lines
// takes, regardless of how many lines are active.
const simPeriod = 500 * time.Millisecond

// SimSource is a hardware-free Source that cycles every registered line
// through levels 0 and 1. The cycle period is fixed and divided evenly
// across the active lines, so adding lines makes each one pulse slower.
type SimSource struct {
	mu     sync.Mutex
	lines  []int // registration order
	level  int   // level for the current pass over lines
	idx    int   // next line to emit in the current pass
	closed bool

	sleep func(time.Duration) // swapped out by tests
}

// NewSimSource creates a simulated source with no lines registered.
func NewSimSource() *SimSource {
	return &SimSource{sleep: time.Sleep}
}

// Register adds a line to the cycle. The path is ignored.
func (s *SimSource) Register(path string, line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l == line {
			return nil
		}
	}
	s.lines = append(s.lines, line)
	return nil
}

// Unregister removes a line from the cycle.
func (s *SimSource) Unregister(line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.lines {
		if l == line {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			if s.idx > i {
				s.idx--
			}
			return nil
		}
	}
	return ErrNotRegistered
}

// Registered reports whether the line is part of the cycle.
func (s *SimSource) Registered(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l == line {
			return true
		}
	}
	return false
}

// Read returns the next simulated event, pacing itself so that a full
// 0-and-1 cycle across all lines takes simPeriod. With no lines registered
// it naps and retries, like the real source's bounded wait.
func (s *SimSource) Read() (Event, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Event{}, ErrClosed
		}
		if len(s.lines) == 0 {
			s.mu.Unlock()
			s.sleep(simPeriod / 2)
			continue
		}
		if s.idx >= len(s.lines) {
			s.idx = 0
			s.level ^= 1
		}
		ev := Event{Line: s.lines[s.idx], Level: s.level}
		s.idx++
		n := len(s.lines)
		s.mu.Unlock()

		s.sleep(simPeriod / time.Duration(2*n))
		return ev, nil
	}
}

// Close stops the source; subsequent Reads return ErrClosed.
func (s *SimSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
