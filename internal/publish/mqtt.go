package publish

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/keller/digital-inputs/internal/input"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher creates services whose fields live on retained topics
// under <base>/<productID>/input<NN>/<Field>.
type MQTTPublisher struct {
	client paho.Client
	base   string
}

// NewMQTTPublisher wraps an already-connected client.
func NewMQTTPublisher(client paho.Client, base string) *MQTTPublisher {
	return &MQTTPublisher{client: client, base: base}
}

// Create allocates a service for one line.
func (p *MQTTPublisher) Create(productID string, instance int) (input.Service, error) {
	return &mqttService{
		client: p.client,
		prefix: ServiceName(p.base, productID, instance),
		fields: make(map[string]bool),
	}, nil
}

// Close disconnects the underlying client.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

// IsConnected reports whether the bus connection is up.
func (p *MQTTPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

type mqttService struct {
	client paho.Client
	prefix string

	mu        sync.Mutex
	fields    map[string]bool // published field paths, for teardown
	destroyed bool
}

func (s *mqttService) Set(path string, value any) error {
	return s.SetText(path, value, "")
}

func (s *mqttService) SetText(path string, value any, text string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("publish: service %s destroyed", s.prefix)
	}
	s.fields[path] = true
	s.mu.Unlock()

	data, err := EncodeField(value, text)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.prefix+path, 0, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s%s: timeout", s.prefix, path)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s%s: %w", s.prefix, path, err)
	}
	return nil
}

// Destroy clears every retained field the service published, withdrawing
// it from the bus.
func (s *mqttService) Destroy() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	paths := make([]string, 0, len(s.fields))
	for p := range s.fields {
		paths = append(paths, p)
	}
	s.mu.Unlock()

	var firstErr error
	for _, p := range paths {
		// An empty retained publish deletes the topic on the broker.
		token := s.client.Publish(s.prefix+p, 0, true, []byte{})
		if !token.WaitTimeout(publishTimeout) {
			if firstErr == nil {
				firstErr = fmt.Errorf("clear %s%s: timeout", s.prefix, p)
			}
			continue
		}
		if err := token.Error(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("clear %s%s: %w", s.prefix, p, err)
		}
	}
	return firstErr
}
