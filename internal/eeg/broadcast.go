// SPDX-License-Identifier: MIT
package eeg

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSubscriptionBuffer is the per-subscriber queue depth. Two seconds of
// samples lets a consumer stall for one cycle without holding up the engine.
const DefaultSubscriptionBuffer = 2 * BatchSize

// Sample is the per-sample event broadcast by the engine.
type Sample struct {
	Seq   uint64    // position in the amplitude sequence
	Value int       // calibrated amplitude
	Time  time.Time // cycle time the sample was read
}

// Subscription receives every Sample published after it was created, in
// publish order, until it is closed or the engine stops. A dropping
// subscription skips samples while its queue is full instead.
type Subscription struct {
	C <-chan Sample

	ch       chan Sample
	done     chan struct{}
	once     sync.Once
	b        *Broadcaster
	dropping bool
	dropped  atomic.Uint64
}

// Dropped returns how many samples were skipped because the queue was full.
// Always zero for a blocking subscription.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscription. C is closed once pending deliveries stop.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.b.remove(s)
	})
}

// Broadcaster fans samples out to subscribers. Delivery to a blocking
// subscriber waits until it accepts or leaves, or until stop fires, so it
// never misses a sample. Delivery to a dropping subscriber never waits.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	size   int
	closed bool
}

// NewBroadcaster creates a broadcaster whose subscriptions queue size samples.
func NewBroadcaster(size int) *Broadcaster {
	if size < 0 {
		size = 0
	}
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
		size: size,
	}
}

// Subscribe registers a new blocking subscriber. Subscribing to a closed
// broadcaster yields an already-closed channel.
func (b *Broadcaster) Subscribe() *Subscription {
	return b.subscribe(false)
}

// SubscribeDropping registers a subscriber that loses samples rather than
// holding up Publish when it falls behind.
func (b *Broadcaster) SubscribeDropping() *Subscription {
	return b.subscribe(true)
}

func (b *Broadcaster) subscribe(dropping bool) *Subscription {
	ch := make(chan Sample, b.size)
	s := &Subscription{C: ch, ch: ch, done: make(chan struct{}), b: b, dropping: dropping}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Len returns the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers sample to every subscriber.
func (b *Broadcaster) Publish(sample Sample, stop <-chan struct{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if s.dropping {
			select {
			case s.ch <- sample:
			default:
				s.dropped.Add(1)
			}
			continue
		}
		select {
		case s.ch <- sample:
		case <-s.done:
		case <-stop:
			return
		}
	}
}

// Close closes every subscription channel. It must not race with Publish.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}

func (b *Broadcaster) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}
