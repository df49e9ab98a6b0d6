package settings

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/keller/digital-inputs/internal/input"
)

// MQTTBridge persists line settings on retained MQTT topics under
// <base>/settings/DigitalInput/<line>/<Name> and mirrors external writes
// into change notifications.
//
// On startup it subscribes and lets the broker replay retained values for a
// settle period, then seeds defaults for any field never written before.
// Writes the bridge makes itself come back as retained messages; those are
// suppressed by comparing against the mirrored value.
type MQTTBridge struct {
	client paho.Client
	base   string

	mu      sync.Mutex
	records map[int]input.Record
	seen    map[string]bool
	ready   bool
	closed  bool
	changes chan input.Change
}

const publishTimeout = 5 * time.Second

// NewMQTTBridge connects the settings mirror for lines 1..numLines and
// blocks for the settle period while the broker replays retained values.
func NewMQTTBridge(client paho.Client, base string, numLines int, settle time.Duration) (*MQTTBridge, error) {
	b := &MQTTBridge{
		client:  client,
		base:    base,
		records: make(map[int]input.Record, numLines),
		seen:    make(map[string]bool),
		changes: make(chan input.Change, 64),
	}
	for i := 1; i <= numLines; i++ {
		b.records[i] = input.DefaultRecord()
	}

	filter := base + "/settings/DigitalInput/+/+"
	token := client.Subscribe(filter, 1, b.onMessage)
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("subscribe %s: timeout", filter)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", filter, err)
	}

	// Let retained values arrive before deciding what needs seeding.
	time.Sleep(settle)

	// Publishing happens outside the lock: the broker echoes seeds back
	// into onMessage, which needs the lock to suppress them by value.
	type seed struct {
		topic string
		value float64
	}
	var missing []seed
	b.mu.Lock()
	for i := 1; i <= numLines; i++ {
		for _, f := range fields {
			topic := settingTopic(base, i, f)
			if !b.seen[topic] {
				missing = append(missing, seed{topic, fieldValue(b.records[i], f)})
			}
		}
	}
	b.ready = true
	b.mu.Unlock()

	for _, s := range missing {
		if err := b.publish(s.topic, s.value); err != nil {
			return nil, fmt.Errorf("seed %s: %w", s.topic, err)
		}
	}
	return b, nil
}

// onMessage mirrors one retained value. Field changes after the settle
// window become change notifications.
func (b *MQTTBridge) onMessage(_ paho.Client, msg paho.Message) {
	line, field, ok := parseSettingTopic(b.base, msg.Topic())
	if !ok {
		return
	}

	v, err := decodeValue(msg.Payload())
	if err != nil {
		slog.Warn("bad settings payload", "topic", msg.Topic(), "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.seen[msg.Topic()] = true

	rec, ok := b.records[line]
	if !ok {
		// Settings for a line this invocation was not given a path for.
		return
	}

	old := fieldValue(rec, field)
	val := setFieldValue(&rec, field, v)
	if val == old {
		return
	}
	b.records[line] = rec

	if !b.ready {
		// Initial retained replay, not an external change.
		return
	}

	select {
	case b.changes <- input.Change{Line: line, Field: field, Old: old, New: val}:
	default:
		slog.Warn("settings change dropped, consumer too slow", "line", line, "field", field)
	}
}

func (b *MQTTBridge) publish(topic string, v float64) error {
	token := b.client.Publish(topic, 1, true, encodeValue(v))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// Record returns the mirrored configuration of a line.
func (b *MQTTBridge) Record(line int) input.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records[line]
}

// SetCount checkpoints a live count into the retained store. The mirror is
// updated first so the echoed retained message is recognized as our own.
func (b *MQTTBridge) SetCount(line int, count uint32) error {
	b.mu.Lock()
	rec, ok := b.records[line]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("settings: unknown line %d", line)
	}
	rec.Count = count
	b.records[line] = rec
	b.mu.Unlock()

	if err := b.publish(settingTopic(b.base, line, input.FieldCount), float64(count)); err != nil {
		return fmt.Errorf("checkpoint count for line %d: %w", line, err)
	}
	return nil
}

// Changes delivers externally-driven field mutations.
func (b *MQTTBridge) Changes() <-chan input.Change {
	return b.changes
}

// Close stops change delivery. The MQTT client itself is shared and stays
// connected.
func (b *MQTTBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.client.Unsubscribe(b.base + "/settings/DigitalInput/+/+")
	close(b.changes)
	return nil
}
