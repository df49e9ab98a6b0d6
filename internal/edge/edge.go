// Package edge provides edge-triggered digital input sources.
// The sysfs and chardev implementations deliver events from real hardware.
// The simulated implementation cycles registered lines for demos and
// development without hardware, and the fake allows scripted tests.
package edge

import "errors"

// Event is one detected transition on a registered line.
type Event struct {
	// Line is the input's instance number (1-based).
	Line int

	// Level is the raw hardware level after the transition, 0 or 1.
	// Polarity inversion is applied downstream, not here.
	Level int
}

// Source yields a live stream of edge events for a changing set of lines.
//
// The stream is unordered across lines but ordered per line. Register and
// Unregister may be called while another goroutine is blocked in Read;
// implementations honor such changes within their resync interval. An event
// may still be delivered for a line that was unregistered moments earlier —
// consumers are expected to drop those.
type Source interface {
	// Register arms edge notification for the line behind path.
	// Errors are fatal: an input that cannot be armed is unusable.
	Register(path string, line int) error

	// Unregister disarms the line and releases its resources. Calling it
	// for a line that is not registered is a caller error.
	Unregister(line int) error

	// Registered reports whether the line is currently armed.
	Registered(line int) bool

	// Read blocks until the next edge event is available. It returns an
	// error only for unrecoverable I/O failures; callers treat any error
	// as fatal.
	Read() (Event, error)

	// Close releases all resources held by the source.
	Close() error
}

var (
	// ErrNotRegistered is returned by Unregister for an unknown line.
	ErrNotRegistered = errors.New("edge: line not registered")

	// ErrClosed is returned by Read after the source has been closed.
	ErrClosed = errors.New("edge: source closed")
)
