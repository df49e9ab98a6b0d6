package edge

import (
	"errors"
	"sync"
)

// ErrScriptDone is returned by FakeSource.Read once its scripted events are
// exhausted, so test loops terminate deterministically.
var ErrScriptDone = errors.New("edge: scripted events exhausted")

// Registration records one Register call on a FakeSource.
type Registration struct {
	Path string
	Line int
}

// FakeSource is a test double that replays scripted edge events and records
// registration traffic for assertions.
type FakeSource struct {
	mu sync.Mutex

	// Events contains the scripted events. Each Read consumes one.
	Events []Event

	// ReadError, if set, is returned once the script is exhausted
	// (instead of ErrScriptDone).
	ReadError error

	// RegisterError, if set, is returned by Register.
	RegisterError error

	// Registrations and Unregistrations record calls in order.
	Registrations   []Registration
	Unregistrations []int

	// Closed tracks if Close was called.
	Closed bool

	index int
	armed map[int]string
}

// NewFakeSource creates a FakeSource that will replay the given events.
func NewFakeSource(events []Event) *FakeSource {
	return &FakeSource{Events: events, armed: make(map[int]string)}
}

// Register records the call and marks the line armed.
func (f *FakeSource) Register(path string, line int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterError != nil {
		return f.RegisterError
	}
	f.Registrations = append(f.Registrations, Registration{Path: path, Line: line})
	f.armed[line] = path
	return nil
}

// Unregister records the call and marks the line disarmed.
func (f *FakeSource) Unregister(line int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.armed[line]; !ok {
		return ErrNotRegistered
	}
	f.Unregistrations = append(f.Unregistrations, line)
	delete(f.armed, line)
	return nil
}

// Registered reports whether the line is currently armed.
func (f *FakeSource) Registered(line int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.armed[line]
	return ok
}

// Read returns the next scripted event. Once the script is exhausted it
// returns ReadError if set, ErrScriptDone otherwise.
func (f *FakeSource) Read() (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index >= len(f.Events) {
		if f.ReadError != nil {
			return Event{}, f.ReadError
		}
		return Event{}, ErrScriptDone
	}
	ev := f.Events[f.index]
	f.index++
	return ev, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset rewinds the script and clears recorded calls.
func (f *FakeSource) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.Registrations = nil
	f.Unregistrations = nil
	f.armed = make(map[int]string)
	f.Closed = false
}
