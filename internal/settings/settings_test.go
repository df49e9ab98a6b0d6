package settings

import (
	"testing"

	"github.com/keller/digital-inputs/internal/input"
)

func TestClampBounds(t *testing.T) {
	tests := []struct {
		field input.Field
		in    float64
		want  float64
	}{
		{input.FieldFunction, 0, 0},
		{input.FieldFunction, 2, 2},
		{input.FieldFunction, 7, 2},
		{input.FieldFunction, -1, 0},
		{input.FieldInputType, 3, 3},
		{input.FieldInputType, 99, 6},
		{input.FieldRate, 0.001, 0.001},
		{input.FieldRate, 2.5, 1.0},
		{input.FieldRate, -0.5, 0},
		{input.FieldCount, 5, 5},
		{input.FieldCount, float64(input.MaxCount) + 10, float64(input.MaxCount)},
		{input.FieldInvert, 1, 1},
		{input.FieldInvert, 9, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.field, tt.in); got != tt.want {
			t.Errorf("Clamp(%s, %v): expected %v, got %v", tt.field, tt.in, tt.want, got)
		}
	}
}

func TestFieldValueRoundTrip(t *testing.T) {
	rec := input.Record{Function: 2, InputType: 4, Rate: 0.25, Count: 77, Inverted: true}
	for _, f := range fields {
		v := fieldValue(rec, f)
		var out input.Record
		setFieldValue(&out, f, v)
		if fieldValue(out, f) != v {
			t.Errorf("%s: value %v did not round-trip", f, v)
		}
	}
	if fieldValue(rec, input.FieldInvert) != 1 {
		t.Errorf("expected invert 1, got %v", fieldValue(rec, input.FieldInvert))
	}
}

func TestSettingTopicRoundTrip(t *testing.T) {
	const base = "energy/inputs"
	for _, f := range fields {
		topic := settingTopic(base, 3, f)
		line, field, ok := parseSettingTopic(base, topic)
		if !ok {
			t.Errorf("%s: parse failed", topic)
			continue
		}
		if line != 3 || field != f {
			t.Errorf("%s: expected (3, %s), got (%d, %s)", topic, f, line, field)
		}
	}
}

func TestSettingTopicLayout(t *testing.T) {
	got := settingTopic("energy/inputs", 2, input.FieldRate)
	want := "energy/inputs/settings/DigitalInput/2/Multiplier"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseSettingTopicRejectsForeign(t *testing.T) {
	bad := []string{
		"energy/inputs/pulsemeter/input01/Count",
		"energy/inputs/settings/DigitalInput/x/Function",
		"energy/inputs/settings/DigitalInput/0/Function",
		"energy/inputs/settings/DigitalInput/1/Bogus",
		"energy/inputs/settings/DigitalInput/1",
		"other/settings/DigitalInput/1/Function",
	}
	for _, topic := range bad {
		if _, _, ok := parseSettingTopic("energy/inputs", topic); ok {
			t.Errorf("%s: expected rejection", topic)
		}
	}
}

func TestValuePayloadRoundTrip(t *testing.T) {
	data := encodeValue(0.001)
	if string(data) != `{"value":0.001}` {
		t.Errorf("unexpected payload: %s", data)
	}
	v, err := decodeValue(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 0.001 {
		t.Errorf("expected 0.001, got %v", v)
	}

	if _, err := decodeValue([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestDefaultRecord(t *testing.T) {
	rec := input.DefaultRecord()
	if rec.Function != input.FunctionDisabled {
		t.Errorf("expected disabled by default, got %d", rec.Function)
	}
	if rec.Rate != 0.001 {
		t.Errorf("expected default rate 0.001, got %v", rec.Rate)
	}
	if rec.Count != 0 || rec.Inverted || rec.InputType != 0 {
		t.Errorf("unexpected defaults: %+v", rec)
	}
}
