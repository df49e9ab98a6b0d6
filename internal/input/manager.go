package input

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/keller/digital-inputs/internal/edge"
	"github.com/keller/digital-inputs/internal/metric"
)

// Manager owns the registry of active lines and drives their lifecycle: it
// creates and destroys published services as functions change, arms lines
// with the edge source, and turns edge events into count and state updates.
//
// Two goroutines touch the registry: the main loop applies settings changes
// and checkpoints counts, while the poll worker handles edge events. One
// mutex serializes both paths.
type Manager struct {
	src     edge.Source
	pub     Publisher
	store   Store
	metrics *metric.Metrics
	paths   map[int]string // line id to device path

	mu    sync.Mutex
	lines map[int]*line
}

type line struct {
	function  int
	inputType int
	rate      float64
	invert    bool
	count     uint32
	level     bool // last published effective level, level sensors only
	service   Service
}

// NewManager creates a manager for the given device paths, keyed by line
// id. metrics may be nil.
func NewManager(src edge.Source, pub Publisher, store Store, paths map[int]string, metrics *metric.Metrics) *Manager {
	return &Manager{
		src:     src,
		pub:     pub,
		store:   store,
		metrics: metrics,
		paths:   paths,
		lines:   make(map[int]*line),
	}
}

// Start registers every line whose persisted function is non-disabled.
// Called once after the store has settled; a failure here is fatal.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.lineIDs() {
		rec := m.store.Record(id)
		if rec.Function == FunctionDisabled {
			continue
		}
		if err := m.register(id, rec.Function); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) lineIDs() []int {
	ids := make([]int, 0, len(m.paths))
	for id := range m.paths {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Apply performs the registry transition for one settings change. Function
// changes tear the line's published service down and rebuild it so no field
// of the previous function lingers; other fields update in place.
func (m *Manager) Apply(ch Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ch.Field {
	case FieldFunction:
		if int(ch.New) != FunctionDisabled {
			// Enabled, or re-typed while enabled. Tear down first so the
			// new service starts from a clean slate.
			if _, ok := m.lines[ch.Line]; ok {
				if err := m.unregister(ch.Line); err != nil {
					return err
				}
			}
			return m.register(ch.Line, int(ch.New))
		}
		if int(ch.Old) != FunctionDisabled {
			return m.unregister(ch.Line)
		}

	case FieldInputType:
		l := m.lines[ch.Line]
		if l != nil && l.function == FunctionLevelSensor && ch.New != ch.Old {
			l.inputType = int(ch.New)
			setField(ch.Line, l.service, "/Type", TypeLabel(l.inputType))
		}

	case FieldRate:
		// Takes effect on the next pulse; the published aggregate is not
		// recomputed retroactively.
		if l := m.lines[ch.Line]; l != nil {
			l.rate = ch.New
		}

	case FieldInvert:
		if l := m.lines[ch.Line]; l != nil {
			l.invert = ch.New != 0
		}

	case FieldCount:
		// Count writes arriving from outside while a line is live are
		// checkpoint echo, not commands; the live count stays
		// authoritative.
	}
	return nil
}

// register creates the published service for a line and arms it with the
// edge source. Caller holds m.mu.
func (m *Manager) register(id, function int) error {
	path, ok := m.paths[id]
	if !ok {
		return fmt.Errorf("input %d: no device path configured", id)
	}
	prod, ok := ProductFor(function)
	if !ok {
		return fmt.Errorf("input %d: unknown function %d", id, function)
	}
	rec := m.store.Record(id)

	slog.Info("registering input", "line", id, "function", prod.ID, "path", path)

	svc, err := m.pub.Create(prod.ID, id)
	if err != nil {
		return fmt.Errorf("create service for input %d: %w", id, err)
	}

	l := &line{
		function:  function,
		inputType: rec.InputType,
		rate:      rec.Rate,
		invert:    rec.Inverted,
		count:     rec.Count,
		service:   svc,
	}

	setField(id, svc, "/Management/ProcessName", ProcessName)
	setField(id, svc, "/Management/ProcessVersion", Version)
	setField(id, svc, "/Management/Connection", path)
	setField(id, svc, "/DeviceInstance", id)
	setField(id, svc, "/ProductId", prod.Code)
	setField(id, svc, "/ProductName", prod.Name)
	setField(id, svc, "/Connected", 1)
	setField(id, svc, "/Count", l.count)

	switch function {
	case FunctionCounter:
		agg := float64(l.count) * l.rate
		setTextField(id, svc, "/Aggregate", agg, FormatVolume(agg))
	case FunctionLevelSensor:
		// The state starts at the inverted idle level until the first
		// edge arrives.
		l.level = rec.Inverted
		setField(id, svc, "/State", boolInt(l.level))
		setField(id, svc, "/Type", TypeLabel(rec.InputType))
	}

	if err := m.src.Register(path, id); err != nil {
		svc.Destroy()
		return fmt.Errorf("arm input %d (%s): %w", id, path, err)
	}

	m.lines[id] = l
	if m.metrics != nil {
		m.metrics.SetCount(id, l.count)
		m.metrics.SetLinesRegistered(len(m.lines))
	}
	return nil
}

// unregister disarms a line and destroys its published service. Caller
// holds m.mu.
func (m *Manager) unregister(id int) error {
	l, ok := m.lines[id]
	if !ok {
		return fmt.Errorf("input %d not registered", id)
	}

	slog.Info("unregistering input", "line", id)

	if err := m.src.Unregister(id); err != nil {
		return fmt.Errorf("disarm input %d: %w", id, err)
	}
	if err := l.service.Destroy(); err != nil {
		slog.Warn("destroy service", "line", id, "error", err)
	}
	delete(m.lines, id)

	if m.metrics != nil {
		m.metrics.ClearLine(id)
		m.metrics.SetLinesRegistered(len(m.lines))
	}
	return nil
}

// HandleEdge processes one edge event: applies polarity, counts effective
// rising edges and publishes level-sensor state. Events for unregistered
// lines are stale deliveries from the source's resync window and dropped.
func (m *Manager) HandleEdge(ev edge.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lines[ev.Line]
	if !ok {
		return
	}
	if m.metrics != nil {
		m.metrics.RecordEdge(ev.Line)
	}

	level := ev.Level
	if l.invert {
		level ^= 1
	}

	// Only an effective rising value increments the count.
	if level != 0 {
		l.count = (l.count + 1) % MaxCount
		setField(ev.Line, l.service, "/Count", l.count)
		if l.function == FunctionCounter {
			agg := float64(l.count) * l.rate
			setTextField(ev.Line, l.service, "/Aggregate", agg, FormatVolume(agg))
		}
		if m.metrics != nil {
			m.metrics.RecordPulse(ev.Line)
			m.metrics.SetCount(ev.Line, l.count)
		}
	}

	if l.function == FunctionLevelSensor {
		l.level = level != 0
		setField(ev.Line, l.service, "/State", level)
	}
}

// Run consumes the edge source's stream until it fails. It does not return
// in normal operation; an error means the hardware is unusable and the
// process should flush counts and exit.
func (m *Manager) Run() error {
	for {
		ev, err := m.src.Read()
		if err != nil {
			return fmt.Errorf("read edge event: %w", err)
		}
		m.HandleEdge(ev)
	}
}

// SaveCounts copies the live count of every registered line back into the
// settings store. Disabled lines keep their last persisted count.
func (m *Manager) SaveCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.lines {
		if err := m.store.SetCount(id, l.count); err != nil {
			slog.Warn("save count", "line", id, "error", err)
		}
	}
	if m.metrics != nil {
		m.metrics.RecordSave()
	}
}

// LineSnapshot is a point-in-time view of one registered line.
type LineSnapshot struct {
	Line      int
	Path      string
	Function  int
	Product   string
	Count     uint32
	Rate      float64
	Aggregate float64 // counter only
	State     bool    // level sensor only
	Type      string  // level sensor only
	Inverted  bool
}

// Snapshot returns the registered lines in ascending id order.
func (m *Manager) Snapshot() []LineSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]LineSnapshot, 0, len(m.lines))
	for _, id := range m.lineIDs() {
		l, ok := m.lines[id]
		if !ok {
			continue
		}
		s := LineSnapshot{
			Line:     id,
			Path:     m.paths[id],
			Function: l.function,
			Count:    l.count,
			Rate:     l.rate,
			Inverted: l.invert,
		}
		if p, ok := ProductFor(l.function); ok {
			s.Product = p.Name
		}
		switch l.function {
		case FunctionCounter:
			s.Aggregate = float64(l.count) * l.rate
		case FunctionLevelSensor:
			s.State = l.level
			s.Type = TypeLabel(l.inputType)
		}
		snaps = append(snaps, s)
	}
	return snaps
}

// FormatVolume renders an aggregate value the way it is published on the
// bus.
func FormatVolume(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64) + " cubic meter"
}

func setField(line int, svc Service, path string, v any) {
	if err := svc.Set(path, v); err != nil {
		slog.Warn("publish failed", "line", line, "path", path, "error", err)
	}
}

func setTextField(line int, svc Service, path string, v any, text string) {
	if err := svc.SetText(path, v, text); err != nil {
		slog.Warn("publish failed", "line", line, "path", path, "error", err)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
