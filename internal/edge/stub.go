//go:build !linux

package edge

import "errors"

var errUnsupported = errors.New("edge: hardware sources require linux")

// SysfsSource is not available on non-Linux platforms.
type SysfsSource struct{}

// NewSysfsSource returns an error on non-Linux platforms.
func NewSysfsSource() (*SysfsSource, error) { return nil, errUnsupported }

func (s *SysfsSource) Register(path string, line int) error { return errUnsupported }
func (s *SysfsSource) Unregister(line int) error            { return errUnsupported }
func (s *SysfsSource) Registered(line int) bool             { return false }
func (s *SysfsSource) Read() (Event, error)                 { return Event{}, errUnsupported }
func (s *SysfsSource) Close() error                         { return nil }

// ChardevSource is not available on non-Linux platforms.
type ChardevSource struct{}

// NewChardevSource returns a source whose methods fail on non-Linux platforms.
func NewChardevSource() *ChardevSource { return &ChardevSource{} }

func (s *ChardevSource) Register(path string, line int) error { return errUnsupported }
func (s *ChardevSource) Unregister(line int) error            { return errUnsupported }
func (s *ChardevSource) Registered(line int) bool             { return false }
func (s *ChardevSource) Read() (Event, error)                 { return Event{}, errUnsupported }
func (s *ChardevSource) Close() error                         { return nil }
