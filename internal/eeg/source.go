// SPDX-License-Identifier: MIT
package eeg

// SampleSource yields the three append-only sequences produced by the
// headband's decoder. Every read starts at *cursor, returns at most max
// items and advances *cursor by the number returned. Reads never block and
// an empty result only means nothing new has arrived.
type SampleSource interface {
	// Open connects to the stream identified by port.
	Open(port string) bool

	// ReadAmplitudeSince returns raw amplitude samples.
	ReadAmplitudeSince(cursor *int, max int) []float64

	// ReadFrequencySince returns frequency-band vectors.
	ReadFrequencySince(cursor *int, max int) [][]float64

	// ReadStageSince returns stage samples together with the stage code the
	// decoder assigned to them.
	ReadStageSince(cursor *int, max int) ([]float64, int)
}

// Cursors holds the engine's read positions.
type Cursors struct {
	Amplitude int
	Frequency int
	Stage     int
}
