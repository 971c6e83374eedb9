// SPDX-License-Identifier: MIT
package eeg

import (
	"math"
	"testing"
)

func TestExtractBands(t *testing.T) {
	prev := [BandCount]int{9, 9, 9, 9, 9, 9, 77}

	tests := []struct {
		desc string
		vec  []float64
		want [BandCount]int
	}{
		{"Seven values keep last slot", []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5}, [BandCount]int{10, 20, 30, 40, 50, 60, 77}},
		{"Eight values fill every slot", []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}, [BandCount]int{10, 20, 30, 40, 50, 60, 70}},
		{"Short vector keeps tail", []float64{0.05, 0.1, 0.15}, [BandCount]int{1, 2, 9, 9, 9, 9, 77}},
		{"Empty vector keeps all", nil, prev},
		{"Negative and large unclamped", []float64{-1, 100, 0, 0, 0, 0, 0}, [BandCount]int{-20, 2000, 0, 0, 0, 0, 77}},
		{"Half rounds away from zero", []float64{0.025, -0.025, 0, 0, 0, 0, 0}, [BandCount]int{1, -1, 0, 0, 0, 0, 77}},
		{"Non-finite power is bounded", []float64{math.Inf(1), math.Inf(-1), math.NaN(), 1e20, -1e20, 0, 0},
			[BandCount]int{bandLimit, -bandLimit, 0, bandLimit, -bandLimit, 0, 77}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := ExtractBands(tt.vec, prev); got != tt.want {
				t.Errorf("ExtractBands(%v) = %v, want %v", tt.vec, got, tt.want)
			}
		})
	}
}

func TestInfiniteBandReadsAsCeiling(t *testing.T) {
	bands := ExtractBands([]float64{math.Inf(1), 0}, [BandCount]int{})
	if got := ClampDisplay(float64(bands[Delta])); got != MaxDisplay {
		t.Errorf("displayed Delta = %g, want %d", got, MaxDisplay)
	}
}

func TestBandNames(t *testing.T) {
	want := []string{"Delta", "Theta", "Alpha", "Beta1", "Beta2", "Beta3", "Gamma"}
	bands := Bands()
	if len(bands) != BandCount {
		t.Fatalf("Bands() has %d entries, want %d", len(bands), BandCount)
	}
	for i, b := range bands {
		if int(b) != i {
			t.Errorf("band %d has index %d", i, int(b))
		}
		if b.String() != want[i] {
			t.Errorf("band %d = %q, want %q", i, b.String(), want[i])
		}
	}
	if Band(42).String() != "Unknown" {
		t.Errorf("out-of-range band should be Unknown")
	}
}

func TestStageValue(t *testing.T) {
	tests := []struct {
		code     int
		want     int
		dreaming bool
	}{
		{0, 0, false},
		{1, -100, false},
		{2, -200, true},
		{3, -300, false},
		{4, -400, false},
	}
	for _, tt := range tests {
		got := StageValue(tt.code)
		if got != tt.want {
			t.Errorf("StageValue(%d) = %d, want %d", tt.code, got, tt.want)
		}
		if IsDreaming(got) != tt.dreaming {
			t.Errorf("IsDreaming(%d) = %v, want %v", got, !tt.dreaming, tt.dreaming)
		}
	}
	if DreamingSentinel != -200 {
		t.Errorf("DreamingSentinel = %d, want -200", DreamingSentinel)
	}
}
