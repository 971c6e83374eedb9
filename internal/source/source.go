// SPDX-License-Identifier: MIT
package source

import (
	"io"
	"path/filepath"
	"strings"
	"sync"

	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
)

// Config selects and configures the backend behind a port name.
type Config struct {
	EDF       EDFConfig
	Simulator SimulatorConfig
}

// Selector is a SampleSource that picks its backend when opened: "sim"
// starts the simulator, a path ending in .edf replays a recording. Before a
// successful Open every read is empty.
type Selector struct {
	cfg Config
	log applog.Component

	mu      sync.RWMutex
	backend eeg.SampleSource
}

// NewSelector creates a selector with the given backend settings.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg, log: applog.Component("Source")}
}

// Kind names the backend a port would select, or "" if none.
func Kind(port string) string {
	switch {
	case strings.EqualFold(port, SimulatorPort):
		return "simulator"
	case strings.EqualFold(filepath.Ext(port), ".edf"):
		return "edf"
	default:
		return ""
	}
}

func (s *Selector) Open(port string) bool {
	var backend eeg.SampleSource
	switch Kind(port) {
	case "simulator":
		backend, port = NewSimulator(s.cfg.Simulator), SimulatorPort
	case "edf":
		backend = NewEDFReplay(s.cfg.EDF)
	default:
		s.log.Errorf("No decoder for port %q: use %q or an .edf recording", port, SimulatorPort)
		return false
	}
	if !backend.Open(port) {
		return false
	}

	s.mu.Lock()
	prev := s.backend
	s.backend = backend
	s.mu.Unlock()
	closeBackend(prev)
	return true
}

func (s *Selector) current() eeg.SampleSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

func (s *Selector) ReadAmplitudeSince(cursor *int, max int) []float64 {
	if b := s.current(); b != nil {
		return b.ReadAmplitudeSince(cursor, max)
	}
	return nil
}

func (s *Selector) ReadFrequencySince(cursor *int, max int) [][]float64 {
	if b := s.current(); b != nil {
		return b.ReadFrequencySince(cursor, max)
	}
	return nil
}

func (s *Selector) ReadStageSince(cursor *int, max int) ([]float64, int) {
	if b := s.current(); b != nil {
		return b.ReadStageSince(cursor, max)
	}
	return nil, 0
}

// Close stops the active backend.
func (s *Selector) Close() error {
	s.mu.Lock()
	b := s.backend
	s.backend = nil
	s.mu.Unlock()
	return closeBackend(b)
}

func closeBackend(b eeg.SampleSource) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ eeg.SampleSource = (*Selector)(nil)
