//go:build linux

package edge

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// ChardevSource delivers edge events for GPIO character device lines,
// addressed as "gpiochipN:offset" paths. The kernel delivers both-edge
// events through go-gpiocdev's event handler, which this source funnels
// into a single channel drained by Read.
type ChardevSource struct {
	mu     sync.Mutex
	lines  map[int]*gpiocdev.Line
	events chan Event
	done   chan struct{}
	closed bool
}

// NewChardevSource creates a source with no lines registered.
func NewChardevSource() *ChardevSource {
	return &ChardevSource{
		lines:  make(map[int]*gpiocdev.Line),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// Register requests the line behind a "gpiochipN:offset" path as an input
// with both-edge event reporting.
func (s *ChardevSource) Register(path string, line int) error {
	chip, offset, err := ParseChardevPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line]; ok {
		return fmt.Errorf("edge: line %d already registered", line)
	}

	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handler(line)))
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	s.lines[line] = l
	return nil
}

// handler adapts gpiocdev events for one registered line. The channel send
// never blocks: if the consumer falls behind by more than the buffer, the
// oldest unconsumed transitions are simply not delivered.
func (s *ChardevSource) handler(line int) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		level := 0
		if evt.Type == gpiocdev.LineEventRisingEdge {
			level = 1
		}
		select {
		case s.events <- Event{Line: line, Level: level}:
		default:
		}
	}
}

// Unregister releases the kernel line request.
func (s *ChardevSource) Unregister(line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[line]
	if !ok {
		return ErrNotRegistered
	}
	delete(s.lines, line)
	return l.Close()
}

// Registered reports whether the line is currently armed.
func (s *ChardevSource) Registered(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lines[line]
	return ok
}

// Read blocks until the next edge event arrives. Events may still surface
// for a line whose Unregister raced with an in-flight kernel event; callers
// drop those.
func (s *ChardevSource) Read() (Event, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.done:
		return Event{}, ErrClosed
	}
}

// Close releases every registered line and wakes any blocked Read.
func (s *ChardevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, l := range s.lines {
		l.Close()
	}
	s.lines = make(map[int]*gpiocdev.Line)
	close(s.done)
	return nil
}
