package web

import (
	"encoding/json"
	"time"

	"github.com/keller/digital-inputs/internal/input"
	"github.com/keller/digital-inputs/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Lines         []LineJSON `json:"lines"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// LineJSON is the JSON representation of one registered line.
type LineJSON struct {
	Line      int      `json:"line"`
	Path      string   `json:"path"`
	Function  string   `json:"function"`
	Count     uint32   `json:"count"`
	Rate      *float64 `json:"rate,omitempty"`
	Aggregate *float64 `json:"aggregate,omitempty"`
	State     *bool    `json:"state,omitempty"`
	Type      string   `json:"type,omitempty"`
	Inverted  bool     `json:"inverted"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ServiceBase    string   `json:"servicebase"`
	Broker         string   `json:"broker"`
	HTTPAddr       string   `json:"http_addr"`
	SaveIntervalMs int64    `json:"save_interval_ms"`
	Debug          bool     `json:"debug"`
	Paths          []string `json:"paths"`
}

func formatJSON(snap status.Snapshot) []byte {
	lines := make([]LineJSON, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lj := LineJSON{
			Line:     l.Line,
			Path:     l.Path,
			Function: functionName(l.Function),
			Count:    l.Count,
			Inverted: l.Inverted,
		}
		switch l.Function {
		case input.FunctionCounter:
			rate, agg := l.Rate, l.Aggregate
			lj.Rate = &rate
			lj.Aggregate = &agg
		case input.FunctionLevelSensor:
			state := l.State
			lj.State = &state
			lj.Type = l.Type
		}
		lines = append(lines, lj)
	}

	sj := StatusJSON{
		Status: StatusInner{
			Lines:         lines,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Config: ConfigJSON{
				ServiceBase:    snap.Config.ServiceBase,
				Broker:         snap.Config.Broker,
				HTTPAddr:       snap.Config.HTTPAddr,
				SaveIntervalMs: snap.Config.SaveInterval.Milliseconds(),
				Debug:          snap.Config.Debug,
				Paths:          snap.Config.Paths,
			},
		},
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}

func functionName(f int) string {
	switch f {
	case input.FunctionCounter:
		return "counter"
	case input.FunctionLevelSensor:
		return "level-sensor"
	}
	return "disabled"
}
