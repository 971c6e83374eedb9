// SPDX-License-Identifier: MIT
package plugin

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"zeoscribe/internal/actuator"
	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
)

var logger = applog.Component("Device")

// Device is the headband shared by every channel. The first Initialize runs
// the configuration step, opens the source and starts sampling. A failure is
// remembered: later calls fail fast without touching the collaborators.
type Device struct {
	configurator Configurator
	src          eeg.SampleSource
	open         actuator.OpenFunc
	engine       *eeg.Engine

	mu          sync.Mutex
	initialized bool
	failed      bool
	disposed    bool
	selection   Selection

	trigger atomic.Pointer[actuator.Trigger]
}

// NewDevice creates a device. The engine is built immediately so channels can
// read and subscribe before initialization; it starts sampling on success.
func NewDevice(c Configurator, src eeg.SampleSource, open actuator.OpenFunc, opts ...eeg.Option) *Device {
	if open == nil {
		open = actuator.OpenSerial
	}
	return &Device{
		configurator: c,
		src:          src,
		open:         open,
		engine:       eeg.NewEngine(src, opts...),
	}
}

// Initialize reports whether the device is running. Only the call that
// first fails receives the error.
func (d *Device) Initialize() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.failed || d.disposed:
		return false, nil
	case d.initialized:
		return true, nil
	}

	if err := d.initialize(); err != nil {
		d.failed = true
		logger.Errorf("Initialization failed: %v", err)
		return false, fmt.Errorf("the 'Zeo' plugin failed to initialize: %w", err)
	}
	d.initialized = true
	return true, nil
}

func (d *Device) initialize() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	sel, err := d.configurator.Configure()
	if err != nil {
		return err
	}
	if err := sel.Actuator.Validate(); err != nil {
		return err
	}
	if !d.src.Open(sel.Port) {
		return fmt.Errorf("failed to open port %q", sel.Port)
	}

	d.selection = sel
	d.trigger.Store(actuator.New(sel.Actuator, d.open))
	d.engine.Start()
	logger.Infof("Streaming from %s (actuator enabled: %v)", sel.Port, sel.Actuator.Enabled)
	return nil
}

// Dispose stops sampling and releases the actuator and source. Idempotent.
func (d *Device) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	d.disposed = true

	if err := d.engine.Close(); err != nil {
		logger.Warnf("Engine close: %v", err)
	}
	if !d.initialized {
		return
	}
	if t := d.trigger.Load(); t != nil {
		if err := t.Close(); err != nil {
			logger.Warnf("Actuator close: %v", err)
		}
	}
	if c, ok := d.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warnf("Source close: %v", err)
		}
	}
	logger.Infof("Disposed")
}

// Fire starts the actuator if one is configured.
func (d *Device) Fire() bool {
	if t := d.trigger.Load(); t != nil {
		return t.Fire()
	}
	return false
}

// Snapshot returns the engine's display state. Zero before initialization.
func (d *Device) Snapshot() eeg.State { return d.engine.Snapshot() }

// Subscribe attaches to the engine's per-sample broadcast.
func (d *Device) Subscribe() *eeg.Subscription { return d.engine.Subscribe() }

// SubscribeDropping attaches a consumer the engine never waits for.
func (d *Device) SubscribeDropping() *eeg.Subscription { return d.engine.SubscribeDropping() }

// Engine returns the device's sampling engine.
func (d *Device) Engine() *eeg.Engine { return d.engine }

// Selection returns the configuration chosen at initialization.
func (d *Device) Selection() Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection
}

// Trigger returns the actuator trigger, nil before initialization.
func (d *Device) Trigger() *actuator.Trigger { return d.trigger.Load() }
