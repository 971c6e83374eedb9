// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level. It stands in when no bridge is enabled.
type LoggingTransport struct {
	sent atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.sent.Add(1)
	switch v := data.(type) {
	case eeg.Sample:
		// One line per second is enough to show the stream is alive.
		if v.Seq%eeg.BatchSize == 0 {
			applog.Debugf("Transport: sample %d = %d", v.Seq, v.Value)
		}
	default:
		applog.Debugf("Transport: message %d (%T): %+v", n, data, data)
	}
	return nil
}

// Sent returns how many messages were sent.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: LoggingTransport closed after %d messages", lt.sent.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
