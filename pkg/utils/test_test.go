// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

const (
	testSize       = 128
	testSampleRate = 128
	testFrequency  = 10.0 // alpha
)

func TestMockSourceCursor(t *testing.T) {
	m := &MockSource{}
	m.PushAmplitude(1, 2, 3, 4, 5)

	cursor := 0
	got := m.ReadAmplitudeSince(&cursor, 3)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("first read = %v, want [1 2 3]", got)
	}
	if cursor != 3 {
		t.Errorf("cursor = %d, want 3", cursor)
	}

	got = m.ReadAmplitudeSince(&cursor, 3)
	if len(got) != 2 || cursor != 5 {
		t.Errorf("second read = %v (cursor %d), want 2 samples and cursor 5", got, cursor)
	}

	got = m.ReadAmplitudeSince(&cursor, 3)
	if len(got) != 0 || cursor != 5 {
		t.Errorf("drained read = %v (cursor %d), want empty and cursor unchanged", got, cursor)
	}
}

func TestMockSourceOpen(t *testing.T) {
	m := &MockSource{OpenOK: true}
	if !m.Open("sim") {
		t.Error("Open returned false with OpenOK set")
	}
	if m.OpenCount() != 1 || m.Opens[0] != "sim" {
		t.Errorf("Opens = %v, want [sim]", m.Opens)
	}

	m.OpenPanic = "boom"
	defer func() {
		if recover() == nil {
			t.Error("expected Open to panic")
		}
	}()
	m.Open("sim")
}

func TestMockSourceStageCode(t *testing.T) {
	m := &MockSource{}
	m.PushStage(2, 1, 1, 1)

	cursor := 0
	samples, code := m.ReadStageSince(&cursor, 64)
	if len(samples) != 3 || code != 2 {
		t.Errorf("ReadStageSince = (%v, %d), want 3 samples and code 2", samples, code)
	}
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		frequency float64
		amplitude float64
	}{
		{"Alpha", testSize, testFrequency, 100},
		{"Delta", testSize, 2, 250},
		{"Short", 16, 4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, testSampleRate, tt.frequency, tt.amplitude)
			if len(result) != tt.size {
				t.Fatalf("size = %d, want %d", len(result), tt.size)
			}
			for i, v := range result {
				if math.Abs(v) > tt.amplitude+1e-9 {
					t.Fatalf("sample %d = %f exceeds amplitude %f", i, v, tt.amplitude)
				}
			}
		})
	}
}

func TestGenerateEEG(t *testing.T) {
	result := GenerateEEG(testSize, testSampleRate, 200)
	hasNonZero := false
	for _, v := range result {
		if v != 0 {
			hasNonZero = true
			break
		}
	}
	if !hasNonZero {
		t.Error("GenerateEEG produced all zeros")
	}
}

func TestFindPeakIndex(t *testing.T) {
	values := []float64{0, 3, 9, 2, 7}
	tests := []struct {
		name       string
		start, end int
		want       int
	}{
		{"Full", 0, 4, 2},
		{"Tail", 3, 4, 4},
		{"Clamped", -5, 50, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakIndex(values, tt.start, tt.end); got != tt.want {
				t.Errorf("FindPeakIndex(%d, %d) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
	if got := FindPeakIndex(nil, 0, 1); got != 0 {
		t.Errorf("FindPeakIndex(nil) = %d, want 0", got)
	}
}
