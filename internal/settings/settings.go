// Package settings persists per-line configuration and delivers change
// notifications to the input manager. The MQTT implementation keeps each
// field on a retained topic so values survive restarts; the fake allows
// testing without a broker.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/keller/digital-inputs/internal/input"
)

// fields lists every persisted field, in seeding order.
var fields = []input.Field{
	input.FieldFunction,
	input.FieldInputType,
	input.FieldRate,
	input.FieldCount,
	input.FieldInvert,
}

// topicNames maps a field to its persisted key segment.
var topicNames = map[input.Field]string{
	input.FieldFunction:  "Function",
	input.FieldInputType: "Type",
	input.FieldRate:      "Multiplier",
	input.FieldCount:     "Count",
	input.FieldInvert:    "Inverted",
}

// fieldsByTopic is the reverse of topicNames.
var fieldsByTopic = func() map[string]input.Field {
	m := make(map[string]input.Field, len(topicNames))
	for f, n := range topicNames {
		m[n] = f
	}
	return m
}()

// Clamp bounds a field value the way the persisted store does: out of
// range values are silently pulled to the nearest bound, never rejected.
func Clamp(f input.Field, v float64) float64 {
	var lo, hi float64
	switch f {
	case input.FieldFunction:
		lo, hi = 0, 2
	case input.FieldInputType:
		lo, hi = 0, float64(len(input.Types))
	case input.FieldRate:
		lo, hi = 0, 1.0
	case input.FieldCount:
		lo, hi = 0, float64(input.MaxCount)
	case input.FieldInvert:
		lo, hi = 0, 1
	default:
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fieldValue returns a record field's numeric representation.
func fieldValue(r input.Record, f input.Field) float64 {
	switch f {
	case input.FieldFunction:
		return float64(r.Function)
	case input.FieldInputType:
		return float64(r.InputType)
	case input.FieldRate:
		return r.Rate
	case input.FieldCount:
		return float64(r.Count)
	case input.FieldInvert:
		if r.Inverted {
			return 1
		}
		return 0
	}
	return 0
}

// setFieldValue stores a clamped numeric value into a record field and
// returns the value actually stored.
func setFieldValue(r *input.Record, f input.Field, v float64) float64 {
	v = Clamp(f, v)
	switch f {
	case input.FieldFunction:
		r.Function = int(v)
	case input.FieldInputType:
		r.InputType = int(v)
	case input.FieldRate:
		r.Rate = v
	case input.FieldCount:
		r.Count = uint32(v)
	case input.FieldInvert:
		r.Inverted = v != 0
	}
	return v
}

// payload is the wire shape of one persisted value.
type payload struct {
	Value float64 `json:"value"`
}

func encodeValue(v float64) []byte {
	data, _ := json.Marshal(payload{Value: v})
	return data
}

func decodeValue(data []byte) (float64, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("decode setting payload: %w", err)
	}
	return p.Value, nil
}

// settingTopic builds the retained topic of one line's field.
func settingTopic(base string, line int, f input.Field) string {
	return fmt.Sprintf("%s/settings/DigitalInput/%d/%s", base, line, topicNames[f])
}

// parseSettingTopic extracts line and field from a settings topic under
// base. ok is false for topics that do not name a known field.
func parseSettingTopic(base, topic string) (line int, f input.Field, ok bool) {
	rest, found := strings.CutPrefix(topic, base+"/settings/DigitalInput/")
	if !found {
		return 0, "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return 0, "", false
	}
	line, err := strconv.Atoi(parts[0])
	if err != nil || line < 1 {
		return 0, "", false
	}
	f, ok = fieldsByTopic[parts[1]]
	return line, f, ok
}
