// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"zeoscribe/internal/actuator"
	"zeoscribe/internal/source"
)

func listPorts() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func send(t *testing.T, m PortDialogModel, msgs ...tea.Msg) (PortDialogModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PortDialogModel)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if isQuit(c) {
				return true
			}
		}
	}
	return false
}

func newDialog(t *testing.T, list func() ([]string, error)) PortDialogModel {
	t.Helper()
	m := NewPortDialogModel(list, []string{"night1.edf"}, actuator.DefaultConfig())
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24}, m.Init()())
	return m
}

func TestPortDialogListsPorts(t *testing.T) {
	m := newDialog(t, listPorts)

	want := []string{source.SimulatorPort, "night1.edf"}
	if strings.Join(m.ports, "|") != strings.Join(want, "|") {
		t.Fatalf("ports = %v, want %v", m.ports, want)
	}
	view := m.View()
	for _, s := range []string{"Zeo Port", "simulated headband", "night1.edf (recording)"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}

	m, _ = send(t, m, press(tea.KeyEnter))
	if !strings.Contains(m.View(), "/dev/ttyUSB0, /dev/ttyUSB1") {
		t.Error("actuator screen does not offer the serial ports")
	}
}

func TestPortDialogListError(t *testing.T) {
	m := newDialog(t, func() ([]string, error) { return nil, errors.New("no permission") })
	if m.err == nil || len(m.serial) != 0 {
		t.Fatalf("err = %v, serial = %v", m.err, m.serial)
	}
	if !strings.Contains(m.View(), "no permission") {
		t.Error("view does not show the error")
	}
	if len(m.ports) != 2 {
		t.Errorf("ports = %v, want the simulator and the recording", m.ports)
	}
}

func TestPortDialogNavigation(t *testing.T) {
	m := newDialog(t, listPorts)

	tests := []struct {
		desc string
		msg  tea.Msg
		want int
	}{
		{"UpAtTop", press(tea.KeyUp), 0},
		{"Down", press(tea.KeyDown), 1},
		{"DownAtBottom", press(tea.KeyDown), 1},
		{"K", runes("k"), 0},
		{"J", runes("j"), 1},
		{"Up", press(tea.KeyUp), 0},
	}
	for _, tt := range tests {
		m, _ = send(t, m, tt.msg)
		if m.selectedIndex != tt.want {
			t.Errorf("%s: selected = %d, want %d", tt.desc, m.selectedIndex, tt.want)
		}
	}
}

func TestPortDialogCancel(t *testing.T) {
	tests := []struct {
		desc string
		keys []tea.Msg
	}{
		{"Q", []tea.Msg{runes("q")}},
		{"Esc", []tea.Msg{press(tea.KeyEscape)}},
		{"CtrlC", []tea.Msg{press(tea.KeyCtrlC)}},
		{"CtrlCOnActuator", []tea.Msg{press(tea.KeyEnter), press(tea.KeyCtrlC)}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			m, cmd := send(t, newDialog(t, listPorts), tt.keys...)
			if !m.cancelled || !isQuit(cmd) {
				t.Errorf("cancelled = %v, quit = %v", m.cancelled, isQuit(cmd))
			}
			if _, ok := m.Selection(); ok {
				t.Error("cancelled dialog has a selection")
			}
		})
	}
}

func TestPortDialogSelectsSimulator(t *testing.T) {
	m := newDialog(t, listPorts)
	m, _ = send(t, m, press(tea.KeyEnter))
	if m.activeScreen != ActuatorScreen {
		t.Fatal("enter did not open the actuator screen")
	}
	if !strings.Contains(m.View(), "Headband: sim") {
		t.Error("actuator screen does not name the headband")
	}

	m, cmd := send(t, m, press(tea.KeyEnter))
	if !isQuit(cmd) {
		t.Fatal("enter on the actuator screen did not quit")
	}
	sel, ok := m.Selection()
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Port != source.SimulatorPort || sel.Actuator.Enabled {
		t.Errorf("selection = %+v", sel)
	}
}

func TestPortDialogActuatorSettings(t *testing.T) {
	m := newDialog(t, listPorts)
	m, _ = send(t, m, press(tea.KeyDown), press(tea.KeyEnter))

	// Enable the actuator, then replace the delay with an invalid value.
	m, _ = send(t, m, press(tea.KeySpace))
	if !m.enabled {
		t.Fatal("space did not enable the actuator")
	}
	m, _ = send(t, m, press(tea.KeyTab), press(tea.KeyTab))
	if m.focus != 1+fieldDelay {
		t.Fatalf("focus = %d, want delay field", m.focus)
	}
	m, _ = send(t, m, press(tea.KeyBackspace), runes("x"))
	m, cmd := send(t, m, press(tea.KeyEnter))
	if m.err == nil || m.selection != nil || isQuit(cmd) {
		t.Fatalf("invalid delay accepted: err = %v", m.err)
	}

	m, _ = send(t, m, press(tea.KeyBackspace), runes("5"))
	m, cmd = send(t, m, press(tea.KeyEnter))
	if !isQuit(cmd) {
		t.Fatalf("valid settings rejected: %v", m.err)
	}
	sel, _ := m.Selection()
	want := actuator.Config{Enabled: true, Port: "COM1", DelayMinutes: "5", OnCode: "1", OffCode: "0"}
	if sel.Port != "night1.edf" || sel.Actuator != want {
		t.Errorf("selection = %+v, want port night1.edf and %+v", sel, want)
	}
}

func TestPortDialogFocusWraps(t *testing.T) {
	m := newDialog(t, listPorts)
	m, _ = send(t, m, press(tea.KeyEnter), press(tea.KeyShiftTab))
	if m.focus != fieldCount {
		t.Errorf("shift+tab from toggle: focus = %d, want %d", m.focus, fieldCount)
	}
	m, _ = send(t, m, press(tea.KeyTab))
	if m.focus != 0 {
		t.Errorf("tab from last field: focus = %d, want 0", m.focus)
	}

	// Space in a text field is text, not a toggle.
	m, _ = send(t, m, press(tea.KeyTab), press(tea.KeySpace))
	if m.enabled {
		t.Error("space in a text field toggled the actuator")
	}

	m, _ = send(t, m, press(tea.KeyEscape))
	if m.activeScreen != PortScreen || m.cancelled {
		t.Error("esc on the actuator screen did not go back")
	}
}
