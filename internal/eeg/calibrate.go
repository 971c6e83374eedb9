// SPDX-License-Identifier: MIT
package eeg

import "math"

const (
	// BatchSize is the number of amplitude samples pulled per cycle. The
	// headband streams 128 samples per second, so a full batch is one second.
	BatchSize = 128

	// SegmentCount is the number of extremal representatives kept per batch.
	SegmentCount = 8

	// SegmentSize is the number of consecutive samples reduced into one segment.
	SegmentSize = BatchSize / SegmentCount

	// MinDisplay and MaxDisplay bound every value handed to the host.
	MinDisplay = 0
	MaxDisplay = 999
)

// Calibrate maps a raw amplitude sample onto the display range.
//
//	clamp(round((raw*10 + 3000) / 6), 0, 999)
//
// The clamp happens before the int conversion so that huge and infinite
// samples land on the ceiling. NaN maps to MinDisplay.
func Calibrate(raw float64) int {
	v := math.Round((raw*10 + 3000) / 6)
	if math.IsNaN(v) {
		return MinDisplay
	}
	return int(ClampDisplay(v))
}

// Segment reduces a batch of raw samples into SegmentCount calibrated values.
// Each group of SegmentSize samples is represented by whichever of its
// running maximum and minimum has the larger magnitude (maximum wins ties).
// Both extremes start at 0, so a one-signed group still yields its peak.
//
// Groups not covered by a short batch hold Calibrate(0).
func Segment(batch []float64) [SegmentCount]int {
	var out [SegmentCount]int
	for g := range SegmentCount {
		var hi, lo float64
		start := g * SegmentSize
		for i := start; i < start+SegmentSize && i < len(batch); i++ {
			v := batch[i]
			if v > hi {
				hi = v
			}
			if v < lo {
				lo = v
			}
		}

		peak := hi
		if math.Abs(lo) > math.Abs(hi) {
			peak = lo
		}
		out[g] = Calibrate(peak)
	}
	return out
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDisplay bounds v to the host display range.
func ClampDisplay(v float64) float64 {
	if v > MaxDisplay {
		return MaxDisplay
	}
	if v < MinDisplay {
		return MinDisplay
	}
	return v
}
