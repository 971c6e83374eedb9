// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"
)

// MockSource is a scripted SampleSource for tests. Sequences are appended by
// the test and read back with cursor semantics; Open records every call.
type MockSource struct {
	mu sync.Mutex

	OpenOK    bool
	OpenPanic any // when non-nil, Open panics with this value
	Opens     []string

	Amplitude []float64
	Frequency [][]float64
	Stage     []float64
	StageCode int
}

// Open records the port and returns OpenOK.
func (m *MockSource) Open(port string) bool {
	m.mu.Lock()
	m.Opens = append(m.Opens, port)
	p := m.OpenPanic
	ok := m.OpenOK
	m.mu.Unlock()
	if p != nil {
		panic(p)
	}
	return ok
}

// OpenCount returns how many times Open was called.
func (m *MockSource) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Opens)
}

// PushAmplitude appends raw amplitude samples.
func (m *MockSource) PushAmplitude(v ...float64) {
	m.mu.Lock()
	m.Amplitude = append(m.Amplitude, v...)
	m.mu.Unlock()
}

// PushFrequency appends one band vector.
func (m *MockSource) PushFrequency(vec []float64) {
	m.mu.Lock()
	m.Frequency = append(m.Frequency, vec)
	m.mu.Unlock()
}

// PushStage appends stage samples decoded as code.
func (m *MockSource) PushStage(code int, samples ...float64) {
	m.mu.Lock()
	m.Stage = append(m.Stage, samples...)
	m.StageCode = code
	m.mu.Unlock()
}

func (m *MockSource) ReadAmplitudeSince(cursor *int, max int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := window(m.Amplitude, cursor, max)
	return append([]float64(nil), out...)
}

func (m *MockSource) ReadFrequencySince(cursor *int, max int) [][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := window(m.Frequency, cursor, max)
	return append([][]float64(nil), out...)
}

func (m *MockSource) ReadStageSince(cursor *int, max int) ([]float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := window(m.Stage, cursor, max)
	return append([]float64(nil), out...), m.StageCode
}

func window[T any](seq []T, cursor *int, max int) []T {
	start := *cursor
	if start >= len(seq) || max <= 0 {
		return nil
	}
	end := min(start+max, len(seq))
	*cursor = end
	return seq[start:end]
}

// GenerateSineWave returns size raw samples of a sine at frequency Hz with
// the given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// GenerateEEG returns a rough sleeping-brain trace: delta and theta with a
// weaker alpha component, peaking near amplitude.
func GenerateEEG(size int, sampleRate, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*2*tm)*0.5 +
			math.Sin(2*math.Pi*6*tm)*0.3 +
			math.Sin(2*math.Pi*10*tm)*0.2
		buffer[i] = signal * amplitude
	}
	return buffer
}

// FindPeakIndex returns the index of the largest value in values[start:end].
func FindPeakIndex(values []float64, start, end int) int {
	if len(values) == 0 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	if end >= len(values) {
		end = len(values) - 1
	}

	peak := start
	for i := start + 1; i <= end; i++ {
		if values[i] > values[peak] {
			peak = i
		}
	}
	return peak
}
