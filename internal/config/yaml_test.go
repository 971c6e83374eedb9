// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zeoscribe/internal/source"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Device.CycleInterval != DefaultCycleInterval {
		t.Errorf("cycle interval = %s, want %s", cfg.Device.CycleInterval, DefaultCycleInterval)
	}
	if cfg.Actuator.Port != "COM1" || cfg.Actuator.DelayMinutes != "1" || cfg.Actuator.OnCode != "1" || cfg.Actuator.OffCode != "0" {
		t.Errorf("unexpected actuator defaults: %+v", cfg.Actuator)
	}
	if !cfg.Raw.Enabled || cfg.Raw.Color != DefaultRawColor {
		t.Errorf("unexpected raw defaults: %+v", cfg.Raw)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_Sections(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
device:
  port: night.edf
  cycle_interval: 500ms
  recordings: [a.edf, b.edf]
actuator:
  enabled: true
  port: /dev/ttyACM0
  delay_minutes: "5"
  on_code: "H"
  off_code: "L"
edf:
  amplitude_signal: 2
  band_signals: [3, 4, 5, 6, 7, 8, 9]
  stage_signal: 0
simulator:
  seed: 42
  hypnogram:
    - {stage: 4, seconds: 10}
    - {stage: 2, seconds: 5}
transport:
  ws_enabled: true
  ws_address: 127.0.0.1:9000
  udp_enabled: true
  udp_target_address: 10.0.0.2:7000
  udp_send_interval: 1s
raw:
  enabled: false
  color: "#FF0000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Level().String() != "WARN" {
		t.Errorf("level = %s, want WARN", cfg.Level())
	}
	if cfg.Device.Port != "night.edf" || cfg.Device.CycleInterval != 500*time.Millisecond {
		t.Errorf("device = %+v", cfg.Device)
	}
	if len(cfg.Device.Recordings) != 2 {
		t.Errorf("recordings = %v", cfg.Device.Recordings)
	}
	if !cfg.Actuator.Enabled || cfg.Actuator.Port != "/dev/ttyACM0" || cfg.Actuator.OnCode != "H" {
		t.Errorf("actuator = %+v", cfg.Actuator)
	}
	if d, _ := cfg.Actuator.Delay(); d != 5*time.Minute {
		t.Errorf("actuator delay = %s, want 5m", d)
	}
	if cfg.EDF.AmplitudeSignal != 2 || cfg.EDF.BandSignals[6] != 9 || cfg.EDF.StageSignal != 0 {
		t.Errorf("edf = %+v", cfg.EDF)
	}
	if cfg.EDF.AmplitudeRate != source.DefaultEDFConfig().AmplitudeRate {
		t.Errorf("edf amplitude rate lost its default: %d", cfg.EDF.AmplitudeRate)
	}
	if cfg.Simulator.Seed != 42 || len(cfg.Simulator.Hypnogram) != 2 || cfg.Simulator.Hypnogram[1].Stage != 2 {
		t.Errorf("simulator = %+v", cfg.Simulator)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddress != "127.0.0.1:9000" {
		t.Errorf("websocket = %+v", cfg.Transport)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != time.Second {
		t.Errorf("udp = %+v", cfg.Transport)
	}
	if cfg.Raw.Enabled || cfg.Raw.Color != "#FF0000" {
		t.Errorf("raw = %+v", cfg.Raw)
	}

	src := cfg.SourceConfig()
	if src.EDF.AmplitudeSignal != 2 || src.Simulator.Seed != 42 {
		t.Errorf("SourceConfig() = %+v", src)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		desc    string
		content string
		want    string
	}{
		{"LogLevel", "log_level: loud", "log_level"},
		{"CycleInterval", "device: {cycle_interval: 1ms}", "cycle_interval"},
		{"ActuatorDelay", "actuator: {enabled: true, delay_minutes: soon}", "invalid actuator delay"},
		{"ActuatorPort", "actuator: {enabled: true, port: ''}", "actuator port"},
		{"BandSignals", "edf: {band_signals: [1, 2]}", "band signals"},
		{"Hypnogram", "simulator: {hypnogram: [{stage: 1, seconds: 0}]}", "hypnogram"},
		{"UDPTarget", "transport: {udp_enabled: true, udp_target_address: localhost}", "udp_target_address"},
		{"WebSocket", "transport: {ws_enabled: true, ws_address: ''}", "ws_address"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeTempConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_DebugWins(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeTempConfig(t, "debug: true\nlog_level: error\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Level().String() != "DEBUG" {
		t.Errorf("level = %s, want DEBUG", cfg.Level())
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ZEO_PORT", "sim")
	t.Setenv("ZEO_ACTUATOR_ENABLED", "true")
	t.Setenv("ZEO_ACTUATOR_PORT", "COM9")
	t.Setenv("ZEO_UDP_ENABLED", "1")
	t.Setenv("ZEO_UDP_TARGET_ADDRESS", "192.168.1.5:9999")
	t.Setenv("ZEO_WS_ADDRESS", ":7070")

	cfg, err := LoadConfig(writeTempConfig(t, "device: {port: COM3}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device.Port != "sim" {
		t.Errorf("port = %q, want sim", cfg.Device.Port)
	}
	if !cfg.Actuator.Enabled || cfg.Actuator.Port != "COM9" {
		t.Errorf("actuator = %+v", cfg.Actuator)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "192.168.1.5:9999" {
		t.Errorf("udp = %+v", cfg.Transport)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddress != ":7070" {
		t.Errorf("websocket = %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvBadBoolIgnored(t *testing.T) {
	t.Setenv("ZEO_UDP_ENABLED", "maybe")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.UDPEnabled {
		t.Error("udp enabled by an unparseable value")
	}
}
