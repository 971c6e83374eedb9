// SPDX-License-Identifier: MIT
// Package channel exposes the engine's display state as independently
// polled host channels. Every Value is clamped to [0, 999].
package channel

import (
	"math"
	"time"

	"zeoscribe/internal/eeg"
)

// Source is the read side of the sampling engine.
type Source interface {
	Snapshot() eeg.State
}

// Readout is one polled channel.
type Readout interface {
	Value() float64
}

// slotDuration is the slice of a second each segment is shown for.
const slotDuration = time.Second / eeg.SegmentCount

// PlaybackIndex maps the millisecond within the current second onto a
// segment slot: round(ms/125) clamped to the last slot.
func PlaybackIndex(ms int) int {
	idx := int(math.Round(float64(ms) / float64(slotDuration.Milliseconds())))
	return eeg.ClampInt(idx, 0, eeg.SegmentCount-1)
}

// AmplitudeReadout replays the once-per-second segment array across the
// second, so hosts polling faster than 1 Hz see the segments cycle.
type AmplitudeReadout struct {
	src Source
	now func() time.Time
}

// NewAmplitudeReadout creates the amplitude channel. A nil clock uses time.Now.
func NewAmplitudeReadout(src Source, now func() time.Time) *AmplitudeReadout {
	if now == nil {
		now = time.Now
	}
	return &AmplitudeReadout{src: src, now: now}
}

func (r *AmplitudeReadout) Value() float64 {
	ms := r.now().Nanosecond() / int(time.Millisecond)
	seg := r.src.Snapshot().Segments[PlaybackIndex(ms)]
	return eeg.ClampDisplay(float64(seg))
}

// IndexedReadout reads one integer out of the state through an accessor.
type IndexedReadout struct {
	src Source
	at  func(eeg.State) int
}

// NewIndexedReadout creates a readout over an arbitrary state accessor.
func NewIndexedReadout(src Source, at func(eeg.State) int) *IndexedReadout {
	return &IndexedReadout{src: src, at: at}
}

// NewBandReadout reads one band magnitude.
func NewBandReadout(src Source, band eeg.Band) *IndexedReadout {
	return NewIndexedReadout(src, func(s eeg.State) int { return s.Bands[band] })
}

func (r *IndexedReadout) Value() float64 {
	return eeg.ClampDisplay(float64(r.at(r.src.Snapshot())))
}

// Firer starts an actuation; it must not block.
type Firer interface {
	Fire() bool
}

// StageReadout reports the stage value and fires the actuator when the raw
// value carries the dreaming sentinel. Stage values are non-positive, so
// after clamping every stage reads 0.
type StageReadout struct {
	src     Source
	trigger Firer
}

// NewStageReadout creates the stage channel. trigger may be nil.
func NewStageReadout(src Source, trigger Firer) *StageReadout {
	return &StageReadout{src: src, trigger: trigger}
}

func (r *StageReadout) Value() float64 {
	stage := r.src.Snapshot().Stage
	if eeg.IsDreaming(stage) && r.trigger != nil {
		r.trigger.Fire()
	}
	return eeg.ClampDisplay(float64(stage))
}

var (
	_ Readout = (*AmplitudeReadout)(nil)
	_ Readout = (*IndexedReadout)(nil)
	_ Readout = (*StageReadout)(nil)
)
