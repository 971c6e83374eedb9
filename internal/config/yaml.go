// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "zeoscribe/internal/log"
)

var logger = applog.Component("Config")

// Candidate locations searched when no path is given.
var candidates = []string{
	"config.yaml",
	"zeoscribe.yaml",
}

// LoadConfig loads configuration from the YAML file at path. If path is
// empty, it searches the default locations and falls back to built-in
// defaults when none exists. Environment overrides are applied last, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logger.Debugf("Loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}
	if c.Device.CycleInterval < MinCycleInterval {
		errs = append(errs, fmt.Errorf("device.cycle_interval must be at least %s", MinCycleInterval))
	}
	if err := c.Actuator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("actuator: %w", err))
	}
	if err := c.EDF.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Simulator.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.ws_address must be set when the WebSocket bridge is enabled"))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level. Debug wins over log_level.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides lets the environment override selected settings.
//
//	ZEO_DEBUG              debug
//	ZEO_PORT               device.port
//	ZEO_ACTUATOR_ENABLED   actuator.enabled
//	ZEO_ACTUATOR_PORT      actuator.port
//	ZEO_UDP_ENABLED        transport.udp_enabled
//	ZEO_UDP_TARGET_ADDRESS transport.udp_target_address
//	ZEO_WS_ADDRESS         transport.ws_address (also enables the bridge)
func (c *Config) applyEnvOverrides() {
	envBool("ZEO_DEBUG", &c.Debug)
	envString("ZEO_PORT", &c.Device.Port)

	envBool("ZEO_ACTUATOR_ENABLED", &c.Actuator.Enabled)
	envString("ZEO_ACTUATOR_PORT", &c.Actuator.Port)

	envBool("ZEO_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ZEO_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	if envString("ZEO_WS_ADDRESS", &c.Transport.WebSocketAddress) {
		c.Transport.WebSocketEnabled = true
	}
}

func envString(key string, dst *string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	*dst = val
	logger.Infof("Overriding from %s: %s", key, val)
	return true
}

func envBool(key string, dst *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logger.Warnf("Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = b
	logger.Infof("Overriding from %s: %v", key, b)
}
