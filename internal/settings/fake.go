package settings

import (
	"sync"

	"github.com/keller/digital-inputs/internal/input"
)

// FakeStore is an in-memory settings store for tests. External writes are
// simulated with Set, which applies the same bounding as the real bridge
// and emits a change notification.
type FakeStore struct {
	mu      sync.Mutex
	records map[int]input.Record
	changes chan input.Change
	closed  bool

	// SetCountError, if set, is returned by SetCount.
	SetCountError error

	// Saved records every SetCount call in order.
	Saved []CountWrite
}

// CountWrite records one SetCount call.
type CountWrite struct {
	Line  int
	Count uint32
}

// NewFakeStore creates a store holding default records for lines 1..numLines.
func NewFakeStore(numLines int) *FakeStore {
	f := &FakeStore{
		records: make(map[int]input.Record, numLines),
		changes: make(chan input.Change, 64),
	}
	for i := 1; i <= numLines; i++ {
		f.records[i] = input.DefaultRecord()
	}
	return f
}

// Seed replaces a line's record without emitting a change, as if the value
// had been persisted before startup.
func (f *FakeStore) Seed(line int, rec input.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[line] = rec
}

// Set applies an external field write: the value is bounded, stored, and a
// change notification emitted if it differs from the current value. The
// returned change is also what a consumer would receive.
func (f *FakeStore) Set(line int, field input.Field, v float64) (input.Change, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.records[line]
	old := fieldValue(rec, field)
	val := setFieldValue(&rec, field, v)
	if val == old {
		return input.Change{}, false
	}
	f.records[line] = rec

	ch := input.Change{Line: line, Field: field, Old: old, New: val}
	if !f.closed {
		f.changes <- ch
	}
	return ch, true
}

// Record returns the current configuration of a line.
func (f *FakeStore) Record(line int) input.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[line]
}

// SetCount records the checkpoint and updates the stored count.
func (f *FakeStore) SetCount(line int, count uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetCountError != nil {
		return f.SetCountError
	}
	rec := f.records[line]
	rec.Count = count
	f.records[line] = rec
	f.Saved = append(f.Saved, CountWrite{Line: line, Count: count})
	return nil
}

// Changes delivers the changes emitted by Set.
func (f *FakeStore) Changes() <-chan input.Change {
	return f.changes
}

// Close stops change delivery.
func (f *FakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.changes)
	}
	return nil
}
