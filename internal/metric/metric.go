// Package metric defines the daemon's Prometheus collectors.
package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all collectors the daemon exposes.
type Metrics struct {
	EdgesTotal      *prometheus.CounterVec
	PulsesTotal     *prometheus.CounterVec
	Count           *prometheus.GaugeVec
	LinesRegistered prometheus.Gauge
	SettingsChanges *prometheus.CounterVec
	SavesTotal      prometheus.Counter
}

// New creates the collectors, unregistered.
func New() *Metrics {
	return &Metrics{
		EdgesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "digitalinputs",
				Name:      "edges_total",
				Help:      "Total number of edge events handled, per line",
			},
			[]string{"line"},
		),
		PulsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "digitalinputs",
				Name:      "pulses_total",
				Help:      "Total number of counted rising edges, per line",
			},
			[]string{"line"},
		),
		Count: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "digitalinputs",
				Name:      "count",
				Help:      "Current pulse count of a line (wraps at 2^31-1)",
			},
			[]string{"line"},
		),
		LinesRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "digitalinputs",
				Name:      "lines_registered",
				Help:      "Number of lines currently registered with the edge source",
			},
		),
		SettingsChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "digitalinputs",
				Name:      "settings_changes_total",
				Help:      "Total number of settings change notifications applied, per field",
			},
			[]string{"field"},
		),
		SavesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "digitalinputs",
				Name:      "saves_total",
				Help:      "Total number of count checkpoints written to the settings store",
			},
		),
	}
}

// Register registers every collector with the given registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.EdgesTotal,
		m.PulsesTotal,
		m.Count,
		m.LinesRegistered,
		m.SettingsChanges,
		m.SavesTotal,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordEdge increments the edge counter for a line.
func (m *Metrics) RecordEdge(line int) {
	m.EdgesTotal.WithLabelValues(strconv.Itoa(line)).Inc()
}

// RecordPulse increments the pulse counter for a line.
func (m *Metrics) RecordPulse(line int) {
	m.PulsesTotal.WithLabelValues(strconv.Itoa(line)).Inc()
}

// SetCount updates the live count gauge for a line.
func (m *Metrics) SetCount(line int, count uint32) {
	m.Count.WithLabelValues(strconv.Itoa(line)).Set(float64(count))
}

// ClearLine drops the per-line series of an unregistered line.
func (m *Metrics) ClearLine(line int) {
	m.Count.DeleteLabelValues(strconv.Itoa(line))
}

// SetLinesRegistered updates the registered-lines gauge.
func (m *Metrics) SetLinesRegistered(n int) {
	m.LinesRegistered.Set(float64(n))
}

// RecordSettingsChange increments the change counter for a field.
func (m *Metrics) RecordSettingsChange(field string) {
	m.SettingsChanges.WithLabelValues(field).Inc()
}

// RecordSave increments the checkpoint counter.
func (m *Metrics) RecordSave() {
	m.SavesTotal.Inc()
}
