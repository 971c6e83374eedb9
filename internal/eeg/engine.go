// SPDX-License-Identifier: MIT
/*
Package eeg implements the sampling engine that turns the headband's decoded
stream into display state:
- Calibrated amplitude segments refreshed once per full one-second batch
- Frequency-band magnitudes scaled from the decoder's band powers
- A stage value carrying the dreaming sentinel
- A per-sample broadcast for raw accumulation

Thread Safety:
- Exactly one goroutine (the engine loop) writes state
- Readers take value snapshots under a read lock
- Shutdown is a flag checked once per cycle
*/
package eeg

import (
	"sync"
	"sync/atomic"
	"time"

	applog "zeoscribe/internal/log"
)

const (
	// DefaultInterval is the pause between cycles.
	DefaultInterval = time.Second

	// Per-cycle read limits.
	maxFrequencyReads = 1
	maxStageReads     = 64
)

// Engine polls a SampleSource and owns the shared display state.
type Engine struct {
	src      SampleSource
	interval time.Duration
	now      func() time.Time

	cursors Cursors
	seq     uint64
	batch   []float64

	state *displayState
	bcast *Broadcaster

	started  atomic.Bool
	stopping atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the cycle interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithClock overrides the clock used to stamp samples.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSubscriptionBuffer sets the per-subscriber queue depth.
func WithSubscriptionBuffer(n int) Option {
	return func(e *Engine) {
		e.bcast = NewBroadcaster(n)
	}
}

// NewEngine creates an engine reading from src. The source must already be open.
func NewEngine(src SampleSource, opts ...Option) *Engine {
	e := &Engine{
		src:      src,
		interval: DefaultInterval,
		now:      time.Now,
		batch:    make([]float64, 0, BatchSize),
		state:    newDisplayState(),
		bcast:    NewBroadcaster(DefaultSubscriptionBuffer),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the sampling loop. Calling Start more than once is a no-op.
func (e *Engine) Start() {
	if !e.started.CompareAndSwap(false, true) {
		applog.Warnf("Engine: Start called but already running.")
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.bcast.Close()
		applog.Infof("Engine: Sampling loop started (Interval: %s)", e.interval)
		e.run()
		applog.Infof("Engine: Sampling loop stopped.")
	}()
}

func (e *Engine) run() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.Cycle()

		if e.stopping.Load() {
			return
		}

		select {
		case <-ticker.C:
		case <-e.stop:
			return
		}
	}
}

// Close signals the loop to stop and waits for it to exit. The loop notices
// the signal at the end of its current cycle.
func (e *Engine) Close() error {
	e.stopOnce.Do(func() {
		e.stopping.Store(true)
		close(e.stop)
	})
	e.wg.Wait()
	if !e.started.Load() {
		e.bcast.Close()
	}
	return nil
}

// Cycle runs one pass of the loop body. It must only be called from a single
// goroutine; Start does so on its own.
func (e *Engine) Cycle() {
	now := e.now()

	samples := e.src.ReadAmplitudeSince(&e.cursors.Amplitude, BatchSize)
	if len(samples) > 0 {
		e.batch = e.batch[:0]
		latest := 0
		for _, raw := range samples {
			v := Calibrate(raw)
			latest = v
			e.batch = append(e.batch, raw)
			e.bcast.Publish(Sample{Seq: e.seq, Value: v, Time: now}, e.stop)
			e.seq++
		}
		e.state.setLatest(latest)

		if len(samples) == BatchSize {
			e.state.setSegments(Segment(e.batch))
		} else {
			applog.Debugf("Engine: Partial batch (%d/%d), keeping previous segments", len(samples), BatchSize)
		}
	}

	if vecs := e.src.ReadFrequencySince(&e.cursors.Frequency, maxFrequencyReads); len(vecs) > 0 {
		e.state.setBands(ExtractBands(vecs[len(vecs)-1], e.state.bands()))
	}

	if stages, code := e.src.ReadStageSince(&e.cursors.Stage, maxStageReads); len(stages) > 0 {
		e.state.setStage(StageValue(code))
	}
}

// Snapshot returns a consistent copy of the display state.
func (e *Engine) Snapshot() State {
	return e.state.snapshot()
}

// Subscribe registers for per-sample events. The engine waits for the
// subscriber, so it must keep reading.
func (e *Engine) Subscribe() *Subscription {
	return e.bcast.Subscribe()
}

// SubscribeDropping registers for per-sample events that are skipped while
// the subscriber lags.
func (e *Engine) SubscribeDropping() *Subscription {
	return e.bcast.SubscribeDropping()
}

// Cursors returns the current read positions. Only meaningful from the
// goroutine driving Cycle, or after Close.
func (e *Engine) Cursors() Cursors {
	return e.cursors
}

// Interval returns the cycle interval.
func (e *Engine) Interval() time.Duration {
	return e.interval
}
