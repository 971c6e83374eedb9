// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"zeoscribe/internal/actuator"
	"zeoscribe/internal/source"
)

// Defaults and limits for the bridge configuration.
const (
	DefaultLogLevel         = "info"
	DefaultCycleInterval    = time.Second  // one amplitude batch per second
	DefaultWebSocketAddress = ":8080"      // host bridge listen address
	DefaultUDPTarget        = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 125 * time.Millisecond // one packet per playback slot
	DefaultRawColor         = "#25A065"

	MinCycleInterval = 10 * time.Millisecond
)

// Config is the bridge configuration, loaded from YAML.
type Config struct {
	Debug     bool                   `yaml:"debug"`     // Shorthand for log_level: debug.
	LogLevel  string                 `yaml:"log_level"` // debug, info, warn, error or fatal.
	Device    DeviceConfig           `yaml:"device"`    // Headband selection and sampling.
	Actuator  actuator.Config        `yaml:"actuator"`  // Serial trigger fired on REM.
	EDF       source.EDFConfig       `yaml:"edf"`       // Signal layout of replayed recordings.
	Simulator source.SimulatorConfig `yaml:"simulator"` // Simulated headband.
	Transport TransportConfig        `yaml:"transport"` // Host bridges.
	Raw       RawConfig              `yaml:"raw"`       // Raw-data channel.
}

// DeviceConfig selects the headband.
type DeviceConfig struct {
	Port          string        `yaml:"port"`           // "sim", a path to an .edf recording, or empty to ask.
	Interactive   bool          `yaml:"interactive"`    // Always show the port dialog.
	CycleInterval time.Duration `yaml:"cycle_interval"` // Sampling engine period.
	Recordings    []string      `yaml:"recordings"`     // Extra .edf files offered by the port dialog.
}

// TransportConfig holds the host bridge settings.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"ws_enabled"`         // Serve channels over WebSocket.
	WebSocketAddress string        `yaml:"ws_address"`         // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Stream channel values over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target host:port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// RawConfig configures the raw-data channel.
type RawConfig struct {
	Enabled bool   `yaml:"enabled"`
	Color   string `yaml:"color"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Device: DeviceConfig{
			CycleInterval: DefaultCycleInterval,
		},
		Actuator:  actuator.DefaultConfig(),
		EDF:       source.DefaultEDFConfig(),
		Simulator: source.DefaultSimulatorConfig(),
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Raw: RawConfig{
			Enabled: true,
			Color:   DefaultRawColor,
		},
	}
}

// SourceConfig returns the settings for the sample source selector.
func (c *Config) SourceConfig() source.Config {
	return source.Config{EDF: c.EDF, Simulator: c.Simulator}
}
