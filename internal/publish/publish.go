// Package publish implements the IPC side of the daemon: per-line services
// whose fields other processes read. The MQTT implementation keeps every
// field on a retained topic; the fake records traffic for tests.
package publish

import (
	"encoding/json"
	"fmt"
)

// ServiceName builds the service topic prefix for a line, e.g.
// "energy/inputs/pulsemeter/input02".
func ServiceName(base, productID string, instance int) string {
	return fmt.Sprintf("%s/%s/input%02d", base, productID, instance)
}

// fieldPayload is the wire shape of one published field.
type fieldPayload struct {
	Value any    `json:"value"`
	Text  string `json:"text,omitempty"`
}

// EncodeField renders a field payload. text may be empty.
func EncodeField(value any, text string) ([]byte, error) {
	data, err := json.Marshal(fieldPayload{Value: value, Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode field payload: %w", err)
	}
	return data, nil
}
