// SPDX-License-Identifier: MIT
package plugin

import (
	"fmt"
	"time"

	"zeoscribe/internal/channel"
	"zeoscribe/internal/eeg"
)

// Channel names as the host lists them.
const (
	NameEEG   = "Zeo EEG"
	NameStage = "Stage"
	NameRaw   = "Zeo Raw"
)

// BandName returns the channel name of a frequency band.
func BandName(b eeg.Band) string { return "Zeo " + b.String() }

// Channel is a Plugin backed by a readout over the shared device.
type Channel struct {
	name    string
	device  *Device
	readout channel.Readout
}

func (c *Channel) Name() string { return c.name }
func (c *Channel) Initialize() (bool, error) { return c.device.Initialize() }
func (c *Channel) Value() float64 { return c.readout.Value() }
func (c *Channel) Dispose() { c.device.Dispose() }
func (c *Channel) Readout() channel.Readout { return c.readout }

// Raw is the raw-data channel. It accumulates every sample while enabled.
// The accumulator is subscribed when the registry is built, before the engine
// starts, so the first batch is never missed.
type Raw struct {
	*channel.RawReadout
	device *Device
}

func (r *Raw) Name() string { return NameRaw }

func (r *Raw) Initialize() (bool, error) { return r.device.Initialize() }

func (r *Raw) Dispose() {
	r.Stop()
	r.device.Dispose()
}

// RawOptions configures the raw channel.
type RawOptions struct {
	Enabled bool
	Color   string
}

// Registry holds every channel over one device, in host listing order.
type Registry struct {
	device  *Device
	plugins []Plugin
	byName  map[string]Plugin
	raw     *Raw
}

// NewRegistry builds the channel set. A nil clock uses time.Now.
func NewRegistry(d *Device, raw RawOptions, now func() time.Time) *Registry {
	r := &Registry{device: d, byName: make(map[string]Plugin)}

	r.add(&Channel{name: NameEEG, device: d, readout: channel.NewAmplitudeReadout(d, now)})
	r.add(&Channel{name: NameStage, device: d, readout: channel.NewStageReadout(d, d)})
	for _, b := range eeg.Bands() {
		r.add(&Channel{name: BandName(b), device: d, readout: channel.NewBandReadout(d, b)})
	}

	rr := channel.NewRawReadout(d, d, raw.Color)
	rr.Enabled = raw.Enabled
	if rr.Enabled {
		rr.Start()
	}
	r.raw = &Raw{RawReadout: rr, device: d}
	r.add(r.raw)
	return r
}

func (r *Registry) add(p Plugin) {
	r.plugins = append(r.plugins, p)
	r.byName[p.Name()] = p
}

// Plugins returns every channel in listing order.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// Names returns every channel name in listing order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}

// Lookup finds a channel by name.
func (r *Registry) Lookup(name string) (Plugin, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	return p, nil
}

// Values reads every channel in listing order into dst, which is grown as
// needed and returned.
func (r *Registry) Values(dst []float64) []float64 {
	dst = dst[:0]
	for _, p := range r.plugins {
		dst = append(dst, p.Value())
	}
	return dst
}

// Raw returns the raw-data channel.
func (r *Registry) Raw() *Raw { return r.raw }

// Device returns the shared device.
func (r *Registry) Device() *Device { return r.device }

// Initialize initializes every channel the way a host would, one by one.
// It returns the first error and whether the device came up.
func (r *Registry) Initialize() (bool, error) {
	var firstErr error
	ok := true
	for _, p := range r.plugins {
		up, err := p.Initialize()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		ok = ok && up
	}
	return ok, firstErr
}

// Dispose disposes every channel.
func (r *Registry) Dispose() {
	for _, p := range r.plugins {
		p.Dispose()
	}
}
