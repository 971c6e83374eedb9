// SPDX-License-Identifier: MIT
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/OpenPSG/edf"

	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
)

// EDFConfig maps an EDF recording's signals onto the decoded sequences.
type EDFConfig struct {
	AmplitudeSignal int           `yaml:"amplitude_signal"` // index of the raw EEG signal
	BandSignals     []int         `yaml:"band_signals"`     // seven band power signals, Delta first
	StageSignal     int           `yaml:"stage_signal"`     // index of the hypnogram signal
	AmplitudeRate   int           `yaml:"amplitude_rate"`   // EEG samples per second
	BandRate        int           `yaml:"band_rate"`        // band samples per second
	StageRate       int           `yaml:"stage_rate"`       // stage samples per second
	Pace            time.Duration `yaml:"pace"`             // wall-clock time per replayed second
}

// DefaultEDFConfig matches a recording exported with the EEG first, the
// seven bands next and the hypnogram last.
func DefaultEDFConfig() EDFConfig {
	return EDFConfig{
		AmplitudeSignal: 0,
		BandSignals:     []int{1, 2, 3, 4, 5, 6, 7},
		StageSignal:     8,
		AmplitudeRate:   eeg.BatchSize,
		BandRate:        1,
		StageRate:       1,
		Pace:            time.Second,
	}
}

// Validate checks the signal mapping.
func (c EDFConfig) Validate() error {
	if len(c.BandSignals) != eeg.BandCount {
		return fmt.Errorf("edf: expected %d band signals, got %d", eeg.BandCount, len(c.BandSignals))
	}
	if c.AmplitudeRate <= 0 || c.BandRate <= 0 || c.StageRate <= 0 {
		return errors.New("edf: sample rates must be positive")
	}
	return nil
}

// EDFReplay plays an EDF recording into a Stream one second at a time,
// standing in for a live headband.
type EDFReplay struct {
	*Stream
	cfg EDFConfig
	log applog.Component

	mu   sync.Mutex
	file *os.File
	amp  *edf.SignalReader
	band []*edf.SignalReader
	stg  *edf.SignalReader
	eof  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewEDFReplay creates a replay source. Open starts it.
func NewEDFReplay(cfg EDFConfig) *EDFReplay {
	if cfg.Pace <= 0 {
		cfg.Pace = time.Second
	}
	return &EDFReplay{
		Stream: NewStream(),
		cfg:    cfg,
		log:    applog.Component("EDFReplay"),
	}
}

// Open parses the recording at path and starts the replay.
func (r *EDFReplay) Open(path string) bool {
	if err := r.Load(path); err != nil {
		r.log.Errorf("%v", err)
		return false
	}
	r.start()
	return true
}

// Load parses the recording without starting the replay. Advance plays it.
func (r *EDFReplay) Load(path string) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	er, err := edf.Open(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to parse recording %s: %w", path, err)
	}

	amp, err := er.Signal(r.cfg.AmplitudeSignal)
	if err != nil {
		f.Close()
		return fmt.Errorf("amplitude signal %d: %w", r.cfg.AmplitudeSignal, err)
	}
	bands := make([]*edf.SignalReader, len(r.cfg.BandSignals))
	for i, idx := range r.cfg.BandSignals {
		if bands[i], err = er.Signal(idx); err != nil {
			f.Close()
			return fmt.Errorf("%s signal %d: %w", eeg.Band(i), idx, err)
		}
	}
	stg, err := er.Signal(r.cfg.StageSignal)
	if err != nil {
		f.Close()
		return fmt.Errorf("stage signal %d: %w", r.cfg.StageSignal, err)
	}

	r.mu.Lock()
	r.file, r.amp, r.band, r.stg = f, amp, bands, stg
	r.mu.Unlock()
	r.log.Infof("Loaded %s", path)
	return nil
}

func (r *EDFReplay) start() {
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.Pace)
		defer ticker.Stop()
		for {
			if !r.Advance() {
				r.log.Infof("End of recording")
				return
			}
			select {
			case <-ticker.C:
			case <-r.stop:
				return
			}
		}
	}()
}

// Advance replays one second of the recording into the stream. It returns
// false once the recording is exhausted.
func (r *EDFReplay) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof || r.amp == nil {
		return false
	}

	amp := make([]float64, r.cfg.AmplitudeRate)
	n, err := r.amp.Read(amp)
	if n > 0 {
		r.AppendAmplitude(amp[:n]...)
	}
	if r.done(err) {
		return false
	}

	cols := make([][]float64, len(r.band))
	for i, sr := range r.band {
		cols[i] = make([]float64, r.cfg.BandRate)
		n, err := sr.Read(cols[i])
		cols[i] = cols[i][:n]
		if r.done(err) {
			return false
		}
	}
	for k := 0; k < r.cfg.BandRate; k++ {
		vec := make([]float64, 0, len(cols)+1)
		var total float64
		for _, col := range cols {
			if k >= len(col) {
				return false
			}
			vec = append(vec, col[k])
			total += col[k]
		}
		// The decoder's vector carries total power after the bands.
		r.AppendFrequency(append(vec, total))
	}

	stage := make([]float64, r.cfg.StageRate)
	n, err = r.stg.Read(stage)
	if n > 0 {
		r.AppendStage(int(math.Round(stage[n-1])), stage[:n]...)
	}
	return !r.done(err)
}

func (r *EDFReplay) done(err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, io.EOF) {
		r.log.Errorf("Read failed: %v", err)
	}
	r.eof = true
	return true
}

// Close stops the replay and releases the file.
func (r *EDFReplay) Close() error {
	if r.stop != nil {
		close(r.stop)
		r.wg.Wait()
		r.stop = nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.amp = nil
	return err
}

var _ eeg.SampleSource = (*EDFReplay)(nil)
