// SPDX-License-Identifier: MIT
package channel

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"zeoscribe/internal/eeg"
)

type fixedSource struct {
	s eeg.State
}

func (f *fixedSource) Snapshot() eeg.State { return f.s }

func clockAt(ms int) func() time.Time {
	base := time.Date(2026, 10, 18, 3, 14, 15, 0, time.UTC)
	return func() time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }
}

func TestPlaybackIndex(t *testing.T) {
	tests := []struct {
		ms   int
		want int
	}{
		{0, 0},
		{62, 0},
		{63, 1},
		{125, 1},
		{500, 4},
		{875, 7},
		{937, 7},
		{938, 7}, // rounds to 8, clamped
		{999, 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dms", tt.ms), func(t *testing.T) {
			if got := PlaybackIndex(tt.ms); got != tt.want {
				t.Errorf("PlaybackIndex(%d) = %d, want %d", tt.ms, got, tt.want)
			}
		})
	}
}

func TestAmplitudeReadoutCyclesSegments(t *testing.T) {
	src := &fixedSource{}
	for i := range src.s.Segments {
		src.s.Segments[i] = 100 * (i + 1)
	}

	tests := []struct {
		ms   int
		want float64
	}{
		{0, 100},
		{125, 200},
		{250, 300},
		{999, 800},
		{1000, 100}, // next second wraps back to slot 0
		{1999, 800},
	}
	for _, tt := range tests {
		r := NewAmplitudeReadout(src, clockAt(tt.ms))
		if got := r.Value(); got != tt.want {
			t.Errorf("Value() at %dms = %g, want %g", tt.ms, got, tt.want)
		}
	}
}

func TestAmplitudeReadoutClamps(t *testing.T) {
	src := &fixedSource{}
	src.s.Segments[0] = 5000
	src.s.Segments[1] = -20
	if got := NewAmplitudeReadout(src, clockAt(0)).Value(); got != 999 {
		t.Errorf("Value() = %g, want 999", got)
	}
	if got := NewAmplitudeReadout(src, clockAt(125)).Value(); got != 0 {
		t.Errorf("Value() = %g, want 0", got)
	}
}

func TestBandReadouts(t *testing.T) {
	src := &fixedSource{}
	src.s.Bands = [eeg.BandCount]int{10, 20, 2000, -5, 999, 0, 321}
	want := []float64{10, 20, 999, 0, 999, 0, 321}

	for _, band := range eeg.Bands() {
		t.Run(band.String(), func(t *testing.T) {
			if got := NewBandReadout(src, band).Value(); got != want[band] {
				t.Errorf("%s = %g, want %g", band, got, want[band])
			}
		})
	}
}

type countingFirer struct {
	calls atomic.Int32
}

func (c *countingFirer) Fire() bool {
	c.calls.Add(1)
	return true
}

func TestStageReadout(t *testing.T) {
	tests := []struct {
		desc  string
		stage int
		fires bool
	}{
		{"Undefined", 0, false},
		{"Awake", -100, false},
		{"Dreaming", eeg.DreamingSentinel, true},
		{"Light", -300, false},
		{"Deep", -400, false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			f := &countingFirer{}
			r := NewStageReadout(&fixedSource{s: eeg.State{Stage: tt.stage}}, f)
			if got := r.Value(); got != 0 {
				t.Errorf("Value() = %g, want 0 (stages clamp to the floor)", got)
			}
			if fired := f.calls.Load() > 0; fired != tt.fires {
				t.Errorf("fired = %v, want %v", fired, tt.fires)
			}
		})
	}
}

func TestStageReadoutWithoutTrigger(t *testing.T) {
	r := NewStageReadout(&fixedSource{s: eeg.State{Stage: eeg.DreamingSentinel}}, nil)
	if got := r.Value(); got != 0 {
		t.Errorf("Value() = %g, want 0", got)
	}
}

func TestIndexedReadoutAccessor(t *testing.T) {
	src := &fixedSource{s: eeg.State{Latest: 640}}
	r := NewIndexedReadout(src, func(s eeg.State) int { return s.Latest })
	if got := r.Value(); got != 640 {
		t.Errorf("Value() = %g, want 640", got)
	}
}

func BenchmarkAmplitudeReadout(b *testing.B) {
	r := NewAmplitudeReadout(&fixedSource{}, nil)
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Value()
	}
}
