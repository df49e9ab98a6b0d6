package internal

import (
	"errors"
	"testing"

	"github.com/keller/digital-inputs/internal/edge"
	"github.com/keller/digital-inputs/internal/input"
	"github.com/keller/digital-inputs/internal/publish"
	"github.com/keller/digital-inputs/internal/settings"
)

// TestIntegrationCounterFlow runs the full daemon data path with fakes: the
// persisted configuration enables a counter, edge events flow through the
// manager, counts land on the published service and checkpoints flow back
// into the store.
func TestIntegrationCounterFlow(t *testing.T) {
	src := edge.NewFakeSource([]edge.Event{
		{Line: 1, Level: 1},
		{Line: 1, Level: 0},
		{Line: 1, Level: 1},
		{Line: 1, Level: 0},
		{Line: 1, Level: 1},
		{Line: 2, Level: 1}, // not registered, dropped
	})
	pub := publish.NewFakePublisher()
	store := settings.NewFakeStore(2)
	store.Seed(1, input.Record{Function: input.FunctionCounter, Rate: 0.001, Count: 5})

	paths := map[int]string{1: "/in/0", 2: "/in/1"}
	mgr := input.NewManager(src, pub, store, paths, nil)
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Drive the poll loop to script exhaustion.
	if err := mgr.Run(); !errors.Is(err, edge.ErrScriptDone) {
		t.Fatalf("expected script end, got %v", err)
	}

	svc := pub.Service(1)
	if svc == nil {
		t.Fatal("no service for line 1")
	}
	if v, _ := svc.Field("/Count"); v != uint32(8) {
		t.Errorf("expected /Count 8, got %v", v)
	}
	if text := svc.Text("/Aggregate"); text != "0.008 cubic meter" {
		t.Errorf("expected aggregate text, got %q", text)
	}

	mgr.SaveCounts()
	if store.Record(1).Count != 8 {
		t.Errorf("expected persisted count 8, got %d", store.Record(1).Count)
	}
	if got := store.Record(2).Count; got != 0 {
		t.Errorf("disabled line must keep its persisted count, got %d", got)
	}
}

// TestIntegrationRuntimeReconfiguration exercises the lifecycle state
// machine under churn: enable, count, re-type to a level sensor, toggle
// polarity, disable — all while edge events keep flowing.
func TestIntegrationRuntimeReconfiguration(t *testing.T) {
	src := edge.NewFakeSource(nil)
	pub := publish.NewFakePublisher()
	store := settings.NewFakeStore(1)

	mgr := input.NewManager(src, pub, store, map[int]string{1: "/in/0"}, nil)
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	apply := func(field input.Field, v float64) {
		t.Helper()
		ch, changed := store.Set(1, field, v)
		if !changed {
			t.Fatalf("set %s = %v: no change", field, v)
		}
		if err := mgr.Apply(ch); err != nil {
			t.Fatalf("apply %s = %v: %v", field, v, err)
		}
	}

	// Enable as counter and count two pulses.
	apply(input.FieldFunction, float64(input.FunctionCounter))
	mgr.HandleEdge(edge.Event{Line: 1, Level: 1})
	mgr.HandleEdge(edge.Event{Line: 1, Level: 0})
	mgr.HandleEdge(edge.Event{Line: 1, Level: 1})
	counter := pub.Service(1)
	if v, _ := counter.Field("/Count"); v != uint32(2) {
		t.Fatalf("expected /Count 2, got %v", v)
	}

	// Checkpoint, then switch to level sensor: the rebuilt service seeds
	// from the persisted count and carries no counter fields.
	mgr.SaveCounts()
	apply(input.FieldFunction, float64(input.FunctionLevelSensor))
	sensor := pub.Service(1)
	if sensor == counter {
		t.Fatal("expected a rebuilt service")
	}
	if !counter.IsDestroyed() {
		t.Error("counter service must be destroyed on re-type")
	}
	if sensor.Has("/Aggregate") {
		t.Error("/Aggregate leaked into the sensor service")
	}
	if v, _ := sensor.Field("/Count"); v != uint32(2) {
		t.Errorf("expected reseeded /Count 2, got %v", v)
	}
	if v, _ := sensor.Field("/Type"); v != "Door alarm" {
		t.Errorf("expected default type, got %v", v)
	}

	// The edge in flight during the switch counts exactly once.
	mgr.HandleEdge(edge.Event{Line: 1, Level: 1})
	if v, _ := sensor.Field("/Count"); v != uint32(3) {
		t.Errorf("expected /Count 3, got %v", v)
	}
	if v, _ := sensor.Field("/State"); v != 1 {
		t.Errorf("expected /State 1, got %v", v)
	}

	// Invert: same physical level now publishes the opposite state.
	apply(input.FieldInvert, 1)
	mgr.HandleEdge(edge.Event{Line: 1, Level: 1})
	if v, _ := sensor.Field("/State"); v != 0 {
		t.Errorf("expected inverted /State 0, got %v", v)
	}

	// Disable: service destroyed, line disarmed, stale events dropped.
	apply(input.FieldFunction, float64(input.FunctionDisabled))
	if !sensor.IsDestroyed() {
		t.Error("sensor service must be destroyed on disable")
	}
	if src.Registered(1) {
		t.Error("line still armed after disable")
	}
	mgr.HandleEdge(edge.Event{Line: 1, Level: 1}) // must not panic
	if len(mgr.Snapshot()) != 0 {
		t.Error("snapshot should be empty after disable")
	}
}

// TestIntegrationSimSource wires the simulated source to the manager the
// way --debug does and lets it produce one full cycle.
func TestIntegrationSimSource(t *testing.T) {
	src := edge.NewSimSource()
	pub := publish.NewFakePublisher()
	store := settings.NewFakeStore(1)
	store.Seed(1, input.Record{Function: input.FunctionCounter, Rate: 0.001})

	mgr := input.NewManager(src, pub, store, map[int]string{1: "/in/0"}, nil)
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Two passes: level 0, then level 1.
	for i := 0; i < 2; i++ {
		ev, err := src.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		mgr.HandleEdge(ev)
	}

	if v, _ := pub.Service(1).Field("/Count"); v != uint32(1) {
		t.Errorf("expected one counted rising edge per cycle, got %v", v)
	}
	src.Close()
}
