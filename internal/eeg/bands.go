// SPDX-License-Identifier: MIT
package eeg

import "math"

// Band identifies one of the pre-computed frequency bands reported by the
// headband's decoder.
type Band int

const (
	Delta Band = iota
	Theta
	Alpha
	Beta1
	Beta2
	Beta3
	Gamma
)

// BandCount is the number of bands in a BandMagnitudes vector.
const BandCount = 7

// bandScale converts the decoder's fractional band power into display units.
const bandScale = 20

// bandLimit bounds a scaled band power so the int conversion stays defined.
const bandLimit = math.MaxInt32

// String returns the band's display name.
func (b Band) String() string {
	switch b {
	case Delta:
		return "Delta"
	case Theta:
		return "Theta"
	case Alpha:
		return "Alpha"
	case Beta1:
		return "Beta1"
	case Beta2:
		return "Beta2"
	case Beta3:
		return "Beta3"
	case Gamma:
		return "Gamma"
	default:
		return "Unknown"
	}
}

// Bands lists every band in storage order.
func Bands() []Band {
	return []Band{Delta, Theta, Alpha, Beta1, Beta2, Beta3, Gamma}
}

// ExtractBands scales a raw frequency vector into band magnitudes. Every
// index except the vector's last is taken from the vector; slots the vector
// does not reach keep their value from prev. Values are not clamped to the
// display range here, only to ±bandLimit; NaN reads as 0.
func ExtractBands(vec []float64, prev [BandCount]int) [BandCount]int {
	out := prev
	n := min(len(vec)-1, BandCount)
	for i := 0; i < n; i++ {
		out[i] = scaleBand(vec[i])
	}
	return out
}

func scaleBand(power float64) int {
	v := math.Round(power * bandScale)
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(-bandLimit, math.Min(bandLimit, v)))
}

const (
	// stageScale turns a decoded stage code into a StageValue.
	stageScale = -100

	// DreamingCode is the decoded stage code for REM sleep.
	DreamingCode = 2

	// DreamingSentinel is the StageValue that marks the dreaming condition.
	DreamingSentinel = DreamingCode * stageScale
)

// StageValue scales a decoded stage code for display.
func StageValue(code int) int {
	return code * stageScale
}

// IsDreaming reports whether a StageValue carries the dreaming sentinel.
func IsDreaming(stage int) bool {
	return stage == DreamingSentinel
}
