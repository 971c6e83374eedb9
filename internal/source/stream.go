// SPDX-License-Identifier: MIT
// Package source provides SampleSource implementations: an in-memory
// cursor store, an EDF recording replay and a simulated headband.
package source

import (
	"slices"
	"sync"

	"zeoscribe/internal/eeg"
)

// DefaultCompactThreshold is how many consumed entries a sequence holds
// before they are released. One minute of amplitude samples.
const DefaultCompactThreshold = 60 * eeg.BatchSize

// Stream is a thread-safe store of the three decoded sequences. Producers
// append; a single reader reads with its own cursors. Cursors are absolute
// positions, and entries the reader has moved past are released once enough
// of them pile up, so memory stays flat over a night.
type Stream struct {
	mu        sync.Mutex
	amplitude sequence[float64]
	frequency sequence[[]float64]
	stage     sequence[float64]
	stageCode int

	compactAt int
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{compactAt: DefaultCompactThreshold}
}

// Open always succeeds; a bare Stream is fed directly by its owner.
func (s *Stream) Open(string) bool { return true }

// AppendAmplitude appends raw amplitude samples.
func (s *Stream) AppendAmplitude(samples ...float64) {
	s.mu.Lock()
	s.amplitude.append(s.compactAt, samples...)
	s.mu.Unlock()
}

// AppendFrequency appends one band vector. The vector is copied.
func (s *Stream) AppendFrequency(vec []float64) {
	cp := append([]float64(nil), vec...)
	s.mu.Lock()
	s.frequency.append(s.compactAt, cp)
	s.mu.Unlock()
}

// AppendStage appends stage samples and records the code the decoder
// assigned to them.
func (s *Stream) AppendStage(code int, samples ...float64) {
	s.mu.Lock()
	s.stage.append(s.compactAt, samples...)
	s.stageCode = code
	s.mu.Unlock()
}

// Len returns how many entries were ever appended to the amplitude,
// frequency and stage sequences, released ones included.
func (s *Stream) Len() (amplitude, frequency, stage int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amplitude.end(), s.frequency.end(), s.stage.end()
}

// Retained returns how many amplitude, frequency and stage entries are
// still held in memory.
func (s *Stream) Retained() (amplitude, frequency, stage int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.amplitude.items), len(s.frequency.items), len(s.stage.items)
}

func (s *Stream) ReadAmplitudeSince(cursor *int, max int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.amplitude.since(cursor, max))
}

func (s *Stream) ReadFrequencySince(cursor *int, max int) [][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frequency.since(cursor, max))
}

func (s *Stream) ReadStageSince(cursor *int, max int) ([]float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stage.since(cursor, max)
	if len(out) == 0 {
		return nil, s.stageCode
	}
	return slices.Clone(out), s.stageCode
}

// sequence is one append-only series. items[0] sits at absolute position
// base; read is the furthest position handed to the reader.
type sequence[T any] struct {
	items []T
	base  int
	read  int
}

func (q *sequence[T]) end() int { return q.base + len(q.items) }

func (q *sequence[T]) append(compactAt int, v ...T) {
	q.compact(compactAt)
	q.items = append(q.items, v...)
}

// compact drops the consumed prefix once it reaches compactAt entries and
// makes up at least half of what is held.
func (q *sequence[T]) compact(compactAt int) {
	n := q.read - q.base
	if compactAt <= 0 || n < compactAt || n < len(q.items)/2 {
		return
	}
	q.items = slices.Clone(q.items[n:])
	q.base += n
}

// since returns up to limit entries from *cursor on and advances the cursor.
// A cursor behind the released prefix resumes at the oldest retained entry.
func (q *sequence[T]) since(cursor *int, limit int) []T {
	start := *cursor - q.base
	if start < 0 {
		start = 0
	}
	if start >= len(q.items) || limit <= 0 {
		return nil
	}
	end := min(start+limit, len(q.items))
	*cursor = q.base + end
	q.read = max(q.read, *cursor)
	return q.items[start:end]
}

var _ eeg.SampleSource = (*Stream)(nil)
