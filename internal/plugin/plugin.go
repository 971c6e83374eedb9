// SPDX-License-Identifier: MIT
// Package plugin exposes the sampling engine to a charting host as a set of
// named channels sharing one headband device.
package plugin

import (
	"errors"
	"strings"

	"zeoscribe/internal/actuator"
)

var (
	// ErrCancelled is returned by a Configurator when the user backs out.
	ErrCancelled = errors.New("configuration cancelled")
	// ErrNoPort is returned when no headband port was selected.
	ErrNoPort = errors.New("no port selected")
	// ErrUnknownChannel is returned by Registry lookups.
	ErrUnknownChannel = errors.New("unknown channel")
)

// Plugin is the host's per-channel contract.
type Plugin interface {
	Name() string
	Initialize() (bool, error)
	Value() float64
	Dispose()
}

// Selection is what the configuration step decides: the headband port and
// the actuator settings.
type Selection struct {
	Port     string
	Actuator actuator.Config
}

// Configurator produces a Selection, interactively or not.
type Configurator interface {
	Configure() (Selection, error)
}

// StaticConfigurator returns a fixed Selection, typically from the config file.
type StaticConfigurator struct {
	Selection Selection
}

func (s StaticConfigurator) Configure() (Selection, error) {
	if strings.TrimSpace(s.Selection.Port) == "" {
		return Selection{}, ErrNoPort
	}
	return s.Selection, nil
}

// ConfiguratorFunc adapts a function to Configurator.
type ConfiguratorFunc func() (Selection, error)

func (f ConfiguratorFunc) Configure() (Selection, error) { return f() }
