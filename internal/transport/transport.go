// SPDX-License-Identifier: MIT
// Package transport bridges the channel registry to hosts outside the
// process: a WebSocket endpoint, a UDP stream and a logging sink.
package transport

import (
	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
	"zeoscribe/internal/plugin"
)

// Transport defines a generic interface for sending data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Channels is the read side of the channel registry.
type Channels interface {
	Names() []string
	Lookup(name string) (plugin.Plugin, error)
}

// Drainer is the raw channel's get-and-clear side.
type Drainer interface {
	Ticks() string
	Buffer() string
}

// Forward sends every sample from sub to t until the subscription closes.
func Forward(sub *eeg.Subscription, t Transport) {
	for s := range sub.C {
		if err := t.Send(s); err != nil {
			applog.Debugf("Transport: Send failed for sample %d: %v", s.Seq, err)
		}
	}
	if n := sub.Dropped(); n > 0 {
		applog.Warnf("Transport: %d samples dropped while the transport lagged", n)
	}
}
