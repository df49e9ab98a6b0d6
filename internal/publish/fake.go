package publish

import (
	"sync"

	"github.com/keller/digital-inputs/internal/input"
)

// FakePublisher records created services for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Created contains every service ever created, in order, including
	// destroyed ones.
	Created []*FakeService

	// CreateError, if set, is returned by Create.
	CreateError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Create records and returns a new FakeService.
func (p *FakePublisher) Create(productID string, instance int) (input.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateError != nil {
		return nil, p.CreateError
	}
	s := &FakeService{ProductID: productID, Instance: instance}
	p.Created = append(p.Created, s)
	return s, nil
}

// Close marks the publisher closed.
func (p *FakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Service returns the live (not destroyed) service for an instance, or nil.
func (p *FakePublisher) Service(instance int) *FakeService {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.Created) - 1; i >= 0; i-- {
		s := p.Created[i]
		if s.Instance == instance && !s.IsDestroyed() {
			return s
		}
	}
	return nil
}

// FakeService records published fields for one line.
type FakeService struct {
	ProductID string
	Instance  int

	mu        sync.Mutex
	fields    map[string]any
	texts     map[string]string
	destroyed bool

	// SetError, if set, is returned by Set and SetText.
	SetError error
}

// Set records the field value.
func (s *FakeService) Set(path string, value any) error {
	return s.SetText(path, value, "")
}

// SetText records the field value and its text rendering.
func (s *FakeService) SetText(path string, value any, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetError != nil {
		return s.SetError
	}
	if s.fields == nil {
		s.fields = make(map[string]any)
		s.texts = make(map[string]string)
	}
	s.fields[path] = value
	if text != "" {
		s.texts[path] = text
	}
	return nil
}

// Destroy marks the service destroyed.
func (s *FakeService) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}

// IsDestroyed reports whether Destroy was called.
func (s *FakeService) IsDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Field returns a published field value and whether it was ever set.
func (s *FakeService) Field(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[path]
	return v, ok
}

// Text returns a field's text rendering.
func (s *FakeService) Text(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texts[path]
}

// Has reports whether the field was ever published.
func (s *FakeService) Has(path string) bool {
	_, ok := s.Field(path)
	return ok
}
