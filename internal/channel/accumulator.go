// SPDX-License-Identifier: MIT
package channel

import (
	"strconv"
	"sync"
	"time"

	"zeoscribe/internal/eeg"
)

// Accumulator collects every broadcast sample as "v," text in two buffers
// that are drained independently. Draining swaps the buffer out under the
// same lock appends take, so no append is lost or seen twice.
type Accumulator struct {
	mu     sync.Mutex
	tick   []byte
	buffer []byte
}

// Append adds v to both buffers.
func (a *Accumulator) Append(v int) {
	a.mu.Lock()
	a.tick = append(strconv.AppendInt(a.tick, int64(v), 10), ',')
	a.buffer = append(strconv.AppendInt(a.buffer, int64(v), 10), ',')
	a.mu.Unlock()
}

// Ticks returns and clears the tick buffer.
func (a *Accumulator) Ticks() string {
	a.mu.Lock()
	out := a.tick
	a.tick = nil
	a.mu.Unlock()
	return string(out)
}

// Buffer returns and clears the buffer.
func (a *Accumulator) Buffer() string {
	a.mu.Lock()
	out := a.buffer
	a.buffer = nil
	a.mu.Unlock()
	return string(out)
}

// Run appends every sample from sub until its channel closes.
func (a *Accumulator) Run(sub *eeg.Subscription) {
	for s := range sub.C {
		a.Append(s.Value)
	}
}

// Subscriber is the broadcast side of the sampling engine.
type Subscriber interface {
	Subscribe() *eeg.Subscription
	SubscribeDropping() *eeg.Subscription
}

// RawReadout is the raw-data channel: the latest calibrated sample as its
// value, plus the accumulated sample text and a push subscription for hosts
// that want every sample.
type RawReadout struct {
	Enabled  bool
	Color    string
	LastHour int

	src Source
	bus Subscriber
	acc Accumulator

	mu   sync.Mutex
	sub  *eeg.Subscription
	done chan struct{}
}

// NewRawReadout creates the raw channel. Call Start to begin accumulating.
func NewRawReadout(src Source, bus Subscriber, color string) *RawReadout {
	return &RawReadout{
		Enabled:  true,
		Color:    color,
		LastHour: time.Now().Hour(),
		src:      src,
		bus:      bus,
	}
}

// Start subscribes the accumulator to the engine broadcast. Idempotent.
func (r *RawReadout) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return
	}
	r.sub = r.bus.Subscribe()
	r.done = make(chan struct{})
	go func(sub *eeg.Subscription, done chan struct{}) {
		defer close(done)
		r.acc.Run(sub)
	}(r.sub, r.done)
}

// Stop detaches the accumulator and waits for it to drain.
func (r *RawReadout) Stop() {
	r.mu.Lock()
	sub, done := r.sub, r.done
	r.sub, r.done = nil, nil
	r.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Close()
	<-done
}

func (r *RawReadout) Value() float64 {
	return eeg.ClampDisplay(float64(r.src.Snapshot().Latest))
}

// Ticks returns and clears the samples accumulated for the tick consumer.
func (r *RawReadout) Ticks() string { return r.acc.Ticks() }

// Buffer returns and clears the samples accumulated for the buffer consumer.
func (r *RawReadout) Buffer() string { return r.acc.Buffer() }

// Subscribe gives an external consumer its own per-sample stream. Samples
// are dropped, and counted, while the consumer is not reading.
func (r *RawReadout) Subscribe() *eeg.Subscription { return r.bus.SubscribeDropping() }

// Accumulator exposes the underlying buffers.
func (r *RawReadout) Accumulator() *Accumulator { return &r.acc }

var _ Readout = (*RawReadout)(nil)
