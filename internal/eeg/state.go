// SPDX-License-Identifier: MIT
package eeg

import "sync"

// State is a consistent copy of the engine's display state.
type State struct {
	Segments [SegmentCount]int
	Bands    [BandCount]int
	Stage    int
	Latest   int // most recent calibrated amplitude sample
}

// displayState guards State. The engine is its only writer; readers get
// value copies, so no reader can see a half-written array.
type displayState struct {
	mu sync.RWMutex
	s  State
}

func newDisplayState() *displayState {
	return &displayState{}
}

func (ds *displayState) snapshot() State {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.s
}

func (ds *displayState) setSegments(seg [SegmentCount]int) {
	ds.mu.Lock()
	ds.s.Segments = seg
	ds.mu.Unlock()
}

func (ds *displayState) setBands(b [BandCount]int) {
	ds.mu.Lock()
	ds.s.Bands = b
	ds.mu.Unlock()
}

func (ds *displayState) setStage(stage int) {
	ds.mu.Lock()
	ds.s.Stage = stage
	ds.mu.Unlock()
}

func (ds *displayState) setLatest(v int) {
	ds.mu.Lock()
	ds.s.Latest = v
	ds.mu.Unlock()
}

func (ds *displayState) bands() [BandCount]int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.s.Bands
}
