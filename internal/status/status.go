// Package status provides a thread-safe status tracker for the
// digital-inputs daemon, read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/keller/digital-inputs/internal/input"
)

// Config contains daemon configuration for display.
type Config struct {
	Broker       string
	ServiceBase  string
	HTTPAddr     string
	SaveInterval time.Duration
	Debug        bool // simulated edge source
	Paths        []string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Lines         []input.LineSnapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetLines replaces the per-line view. Called from the main loop on its
// refresh cadence and after every registry transition.
func (t *Tracker) SetLines(lines []input.LineSnapshot) {
	t.mu.Lock()
	t.snap.Lines = lines
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
