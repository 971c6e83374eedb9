// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat/distuv"

	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
	"zeoscribe/pkg/bitint"
)

// SimulatorPort is the port name that selects the simulated headband.
const SimulatorPort = "sim"

// Sleep stage codes as reported by the headband.
const (
	StageUndefined = 0
	StageAwake     = 1
	StageREM       = eeg.DreamingCode
	StageLight     = 3
	StageDeep      = 4
)

// HypnogramStep holds one stage for a number of seconds.
type HypnogramStep struct {
	Stage   int `yaml:"stage"`
	Seconds int `yaml:"seconds"`
}

// SimulatorConfig configures the simulated headband.
type SimulatorConfig struct {
	SampleRate int             `yaml:"sample_rate"` // EEG samples per second
	Seed       uint64          `yaml:"seed"`        // noise seed, fixed for reproducible runs
	Noise      float64         `yaml:"noise"`       // white noise sigma in µV
	Pace       time.Duration   `yaml:"pace"`        // wall-clock time per simulated second
	Hypnogram  []HypnogramStep `yaml:"hypnogram"`   // stage sequence, repeated
}

// DefaultSimulatorConfig returns a compressed sleep cycle that reaches REM
// within a few minutes.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		SampleRate: eeg.BatchSize,
		Seed:       1,
		Noise:      5,
		Pace:       time.Second,
		Hypnogram: []HypnogramStep{
			{Stage: StageAwake, Seconds: 30},
			{Stage: StageLight, Seconds: 60},
			{Stage: StageDeep, Seconds: 60},
			{Stage: StageLight, Seconds: 30},
			{Stage: StageREM, Seconds: 60},
		},
	}
}

// Validate checks the simulator settings.
func (c SimulatorConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("simulator: sample rate must be positive, got %d", c.SampleRate)
	}
	if len(c.Hypnogram) == 0 {
		return fmt.Errorf("simulator: hypnogram is empty")
	}
	for i, step := range c.Hypnogram {
		if step.Seconds <= 0 {
			return fmt.Errorf("simulator: hypnogram step %d has no duration", i)
		}
	}
	return nil
}

// Representative frequency per band and the band edges used to measure it.
var bandSpec = [eeg.BandCount]struct{ hz, lo, hi float64 }{
	eeg.Delta: {2, 0.5, 4},
	eeg.Theta: {6, 4, 8},
	eeg.Alpha: {10, 8, 13},
	eeg.Beta1: {15, 13, 18},
	eeg.Beta2: {19, 18, 21},
	eeg.Beta3: {25, 21, 30},
	eeg.Gamma: {40, 30, 50},
}

// Per-stage band amplitudes in µV.
var stageProfile = map[int][eeg.BandCount]float64{
	StageUndefined: {10, 10, 10, 10, 10, 10, 10},
	StageAwake:     {20, 15, 40, 20, 15, 10, 5},
	StageREM:       {20, 45, 10, 15, 10, 8, 4},
	StageLight:     {45, 35, 15, 10, 6, 4, 2},
	StageDeep:      {120, 30, 8, 5, 3, 2, 1},
}

// bandUnits scales relative band power so a band holding all the power
// reads at the top of the display range.
const bandUnits = 50

// Simulator synthesises a headband: one second of EEG per step, the band
// powers measured from it, and a stage from the hypnogram.
type Simulator struct {
	*Stream
	cfg SimulatorConfig
	log applog.Component

	mu      sync.Mutex
	fft     *fourier.FFT
	work    []float64
	coeff   []complex128
	noise   distuv.Normal
	phases  [eeg.BandCount]float64
	sample  int
	elapsed int

	once sync.Once
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSimulator creates a simulator. Invalid settings fall back to defaults.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	log := applog.Component("Simulator")
	def := DefaultSimulatorConfig()
	if err := cfg.Validate(); err != nil {
		log.Warnf("%v, using defaults", err)
		cfg.SampleRate, cfg.Hypnogram = def.SampleRate, def.Hypnogram
	}
	if cfg.Pace <= 0 {
		cfg.Pace = def.Pace
	}

	size := bitint.NextPowerOfTwo(cfg.SampleRate)
	if !bitint.IsPowerOfTwo(cfg.SampleRate) {
		log.Debugf("Zero-padding %d Hz windows to %d points", cfg.SampleRate, size)
	}
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed)
	rng := rand.New(src)

	s := &Simulator{
		Stream: NewStream(),
		cfg:    cfg,
		log:    log,
		fft:    fourier.NewFFT(size),
		work:   make([]float64, size),
		coeff:  make([]complex128, size/2+1),
		noise:  distuv.Normal{Mu: 0, Sigma: max(cfg.Noise, 0), Src: src},
	}
	for i := range s.phases {
		s.phases[i] = rng.Float64() * 2 * math.Pi
	}
	return s
}

// Open starts the simulation. Any port other than SimulatorPort is refused.
func (s *Simulator) Open(port string) bool {
	if port != SimulatorPort {
		s.log.Errorf("Unknown port %q", port)
		return false
	}
	s.once.Do(func() {
		s.stop = make(chan struct{})
		s.wg.Add(1)
		go s.run()
		s.log.Infof("Started (%d Hz, %d hypnogram steps)", s.cfg.SampleRate, len(s.cfg.Hypnogram))
	})
	return true
}

func (s *Simulator) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Pace)
	defer ticker.Stop()
	for {
		s.Step()
		select {
		case <-ticker.C:
		case <-s.stop:
			return
		}
	}
}

// Stage returns the hypnogram stage at the given simulated second.
func (s *Simulator) Stage(second int) int {
	var cycle int
	for _, step := range s.cfg.Hypnogram {
		cycle += step.Seconds
	}
	at := second % cycle
	for _, step := range s.cfg.Hypnogram {
		if at < step.Seconds {
			return step.Stage
		}
		at -= step.Seconds
	}
	return StageUndefined
}

// Step simulates one second and appends it to the stream.
func (s *Simulator) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := s.Stage(s.elapsed)
	profile, ok := stageProfile[stage]
	if !ok {
		profile = stageProfile[StageUndefined]
	}

	rate := float64(s.cfg.SampleRate)
	amp := make([]float64, s.cfg.SampleRate)
	for i := range amp {
		t := float64(s.sample+i) / rate
		var v float64
		for b, spec := range bandSpec {
			v += profile[b] * math.Sin(2*math.Pi*spec.hz*t+s.phases[b])
		}
		amp[i] = v + s.noise.Rand()
	}
	s.sample += len(amp)
	s.elapsed++

	s.AppendAmplitude(amp...)
	s.AppendFrequency(s.bands(amp))
	s.AppendStage(stage, float64(stage))
}

// bands measures relative band power over one second of samples. The
// result carries the seven bands followed by their total.
func (s *Simulator) bands(samples []float64) []float64 {
	clear(s.work)
	copy(s.work, samples)
	window.Hann(s.work)
	s.fft.Coefficients(s.coeff, s.work)

	var power [eeg.BandCount]float64
	var total float64
	rate := float64(s.cfg.SampleRate)
	for i, c := range s.coeff {
		hz := s.fft.Freq(i) * rate
		mag := cmplx.Abs(c)
		for b, spec := range bandSpec {
			if hz >= spec.lo && hz < spec.hi {
				power[b] += mag * mag
				total += mag * mag
				break
			}
		}
	}

	vec := make([]float64, 0, eeg.BandCount+1)
	var sum float64
	for _, p := range power {
		v := 0.0
		if total > 0 {
			v = p / total * bandUnits
		}
		vec = append(vec, v)
		sum += v
	}
	return append(vec, sum)
}

// Close stops the simulation.
func (s *Simulator) Close() error {
	if s.stop == nil {
		return nil
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.wg.Wait()
	return nil
}

var _ eeg.SampleSource = (*Simulator)(nil)
