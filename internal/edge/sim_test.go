package edge

import (
	"testing"
	"time"
)

// newTestSim returns a SimSource whose sleeps are recorded instead of slept.
func newTestSim() (*SimSource, *[]time.Duration) {
	var slept []time.Duration
	s := NewSimSource()
	s.sleep = func(d time.Duration) {
		slept = append(slept, d)
	}
	return s, &slept
}

func TestSimCyclesLevels(t *testing.T) {
	s, _ := newTestSim()
	if err := s.Register("/in/0", 1); err != nil {
		t.Fatalf("register: %v", err)
	}

	want := []Event{
		{Line: 1, Level: 0},
		{Line: 1, Level: 1},
		{Line: 1, Level: 0},
		{Line: 1, Level: 1},
	}
	for i, w := range want {
		ev, err := s.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if ev != w {
			t.Errorf("event %d: expected %+v, got %+v", i, w, ev)
		}
	}
}

func TestSimVisitsAllLinesPerPass(t *testing.T) {
	s, _ := newTestSim()
	s.Register("/in/0", 1)
	s.Register("/in/1", 2)

	// One full pass at each level before the level flips.
	want := []Event{
		{Line: 1, Level: 0},
		{Line: 2, Level: 0},
		{Line: 1, Level: 1},
		{Line: 2, Level: 1},
	}
	for i, w := range want {
		ev, err := s.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if ev != w {
			t.Errorf("event %d: expected %+v, got %+v", i, w, ev)
		}
	}
}

func TestSimDividesPeriodAcrossLines(t *testing.T) {
	s, slept := newTestSim()
	s.Register("/in/0", 1)
	s.Register("/in/1", 2)

	s.Read()
	s.Read()

	for i, d := range *slept {
		if d != simPeriod/4 {
			t.Errorf("sleep %d: expected %v, got %v", i, simPeriod/4, d)
		}
	}
}

func TestSimUnregister(t *testing.T) {
	s, _ := newTestSim()
	s.Register("/in/0", 1)
	s.Register("/in/1", 2)

	if err := s.Unregister(1); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if s.Registered(1) {
		t.Error("line 1 still registered after unregister")
	}
	if !s.Registered(2) {
		t.Error("line 2 lost its registration")
	}
	if err := s.Unregister(1); err != ErrNotRegistered {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}

	for i := 0; i < 4; i++ {
		ev, err := s.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if ev.Line != 2 {
			t.Errorf("read %d: expected only line 2, got line %d", i, ev.Line)
		}
	}
}

func TestSimNapsWithNoLines(t *testing.T) {
	var slept []time.Duration
	s := NewSimSource()
	s.sleep = func(d time.Duration) {
		slept = append(slept, d)
		// Give Read something to return on the retry.
		if len(slept) == 1 {
			s.Register("/in/0", 7)
		}
	}

	ev, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Line != 7 {
		t.Errorf("expected line 7, got %d", ev.Line)
	}
	if len(slept) == 0 || slept[0] != simPeriod/2 {
		t.Errorf("expected an idle nap of %v, got %v", simPeriod/2, slept)
	}
}

func TestSimClose(t *testing.T) {
	s, _ := newTestSim()
	s.Register("/in/0", 1)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Read(); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
