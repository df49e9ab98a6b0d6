package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keller/digital-inputs/internal/input"
	"github.com/keller/digital-inputs/internal/metric"
	"github.com/keller/digital-inputs/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Broker:       "tcp://192.168.1.200:1883",
		ServiceBase:  "energy/inputs",
		HTTPAddr:     ":80",
		SaveInterval: time.Minute,
		Paths:        []string{"/in/0", "/in/1"},
	}
	tr := status.NewTracker(start, cfg)

	reg := prometheus.NewRegistry()
	m := metric.New()
	if err := m.Register(reg); err != nil {
		t.Fatalf("register metrics: %v", err)
	}
	m.RecordEdge(1)

	srv := New(":0", tr, reg)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetLines([]input.LineSnapshot{
		{Line: 1, Path: "/in/0", Function: input.FunctionCounter, Count: 8, Rate: 0.001, Aggregate: 0.008},
		{Line: 2, Path: "/in/1", Function: input.FunctionLevelSensor, State: true, Type: "Door alarm", Inverted: true},
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(sj.Status.Lines))
	}

	counter := sj.Status.Lines[0]
	if counter.Function != "counter" {
		t.Errorf("line 1 function: got %q, want counter", counter.Function)
	}
	if counter.Count != 8 {
		t.Errorf("line 1 count: got %d, want 8", counter.Count)
	}
	if counter.Aggregate == nil || *counter.Aggregate != 0.008 {
		t.Errorf("line 1 aggregate: got %v, want 0.008", counter.Aggregate)
	}
	if counter.State != nil {
		t.Error("counter line should not publish state")
	}

	sensor := sj.Status.Lines[1]
	if sensor.Function != "level-sensor" {
		t.Errorf("line 2 function: got %q, want level-sensor", sensor.Function)
	}
	if sensor.State == nil || !*sensor.State {
		t.Errorf("line 2 state: got %v, want true", sensor.State)
	}
	if sensor.Type != "Door alarm" {
		t.Errorf("line 2 type: got %q, want Door alarm", sensor.Type)
	}
	if sensor.Aggregate != nil {
		t.Error("sensor line should not publish aggregate")
	}
	if !sensor.Inverted {
		t.Error("line 2 should report inverted")
	}

	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Config.ServiceBase != "energy/inputs" {
		t.Errorf("Config.ServiceBase: got %q", sj.Status.Config.ServiceBase)
	}
	if sj.Status.Config.SaveIntervalMs != 60000 {
		t.Errorf("Config.SaveIntervalMs: got %d, want 60000", sj.Status.Config.SaveIntervalMs)
	}
}

func TestJSONNoLines(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if len(sj.Status.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(sj.Status.Lines))
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetLines([]input.LineSnapshot{
		{Line: 1, Path: "/in/0", Function: input.FunctionCounter, Count: 3, Rate: 0.001, Aggregate: 0.003},
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/in/0") {
		t.Error("expected device path in HTML")
	}
	if !strings.Contains(string(body), "0.003 cubic meter") {
		t.Error("expected aggregate rendering in HTML")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "digitalinputs_edges_total") {
		t.Error("expected digitalinputs_edges_total in metrics output")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
