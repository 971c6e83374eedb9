// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zeoscribe/internal/actuator"
	"zeoscribe/internal/plugin"
	"zeoscribe/internal/source"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	PortScreen ScreenType = iota
	ActuatorScreen
)

var keys = struct {
	quit, cancel, up, down, enter, back, next, prev, toggle key.Binding
}{
	quit:   key.NewBinding(key.WithKeys("ctrl+c")),
	cancel: key.NewBinding(key.WithKeys("q", "esc")),
	up:     key.NewBinding(key.WithKeys("up", "k")),
	down:   key.NewBinding(key.WithKeys("down", "j")),
	enter:  key.NewBinding(key.WithKeys("enter")),
	back:   key.NewBinding(key.WithKeys("esc")),
	next:   key.NewBinding(key.WithKeys("tab", "down")),
	prev:   key.NewBinding(key.WithKeys("shift+tab", "up")),
	toggle: key.NewBinding(key.WithKeys(" ")),
}

// Actuator fields, in tab order after the enable toggle.
const (
	fieldPort = iota
	fieldDelay
	fieldOn
	fieldOff
	fieldCount
)

var fieldLabels = [fieldCount]string{"Port", "Delay (minutes)", "On code", "Off code"}

type portsMsg struct {
	serial []string
	err    error
}

// PortDialogModel is the Bubble Tea model that picks the headband port and
// the actuator settings.
type PortDialogModel struct {
	list func() ([]string, error)

	ports         []string // headband sources
	serial        []string // actuator candidates
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	enabled bool
	fields  []textinput.Model
	focus   int // 0 is the enable toggle, then 1 + field index

	selection *plugin.Selection
	cancelled bool
}

// NewPortDialogModel creates the dialog. The headband can be the simulator or
// one of the given recordings; list enumerates the serial ports offered for
// the actuator.
func NewPortDialogModel(list func() ([]string, error), recordings []string, defaults actuator.Config) PortDialogModel {
	fields := make([]textinput.Model, fieldCount)
	values := [fieldCount]string{defaults.Port, defaults.DelayMinutes, defaults.OnCode, defaults.OffCode}
	for i := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.SetValue(values[i])
		fields[i] = ti
	}
	return PortDialogModel{
		list:         list,
		ports:        append([]string{source.SimulatorPort}, recordings...),
		activeScreen: PortScreen,
		enabled:      defaults.Enabled,
		fields:       fields,
	}
}

// Init initializes the Bubble Tea model
func (m PortDialogModel) Init() tea.Cmd {
	return m.fetchPorts
}

func (m PortDialogModel) fetchPorts() tea.Msg {
	if m.list == nil {
		return portsMsg{}
	}
	serial, err := m.list()
	return portsMsg{serial: serial, err: err}
}

func (m PortDialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case portsMsg:
		m.serial, m.err = msg.serial, msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keys.quit) {
			m.cancelled = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		if m.activeScreen == PortScreen {
			m, cmd = m.updatePorts(msg)
		} else {
			m, cmd = m.updateActuator(msg)
		}
		cmds = append(cmds, cmd)
	}

	if m.ready {
		m.viewport.SetContent(m.render())
	}
	return m, tea.Batch(cmds...)
}

func (m PortDialogModel) updatePorts(msg tea.KeyMsg) (PortDialogModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.cancel):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(msg, keys.down):
		if m.selectedIndex < len(m.ports)-1 {
			m.selectedIndex++
		}
	case key.Matches(msg, keys.enter):
		if len(m.ports) > 0 {
			m.activeScreen = ActuatorScreen
			m.err = nil
			return m.setFocus(0)
		}
	}
	return m, nil
}

func (m PortDialogModel) updateActuator(msg tea.KeyMsg) (PortDialogModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.back):
		m.activeScreen = PortScreen
		m.err = nil
		return m.setFocus(0)
	case key.Matches(msg, keys.next):
		return m.setFocus((m.focus + 1) % (fieldCount + 1))
	case key.Matches(msg, keys.prev):
		return m.setFocus((m.focus + fieldCount) % (fieldCount + 1))
	case key.Matches(msg, keys.enter):
		cfg := m.actuatorConfig()
		if err := cfg.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.selection = &plugin.Selection{Port: m.ports[m.selectedIndex], Actuator: cfg}
		return m, tea.Quit
	case m.focus == 0 && key.Matches(msg, keys.toggle):
		m.enabled = !m.enabled
		return m, nil
	}

	if m.focus > 0 {
		var cmd tea.Cmd
		i := m.focus - 1
		m.fields[i], cmd = m.fields[i].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m PortDialogModel) setFocus(focus int) (PortDialogModel, tea.Cmd) {
	m.focus = focus
	var cmd tea.Cmd
	for i := range m.fields {
		if i == focus-1 {
			cmd = m.fields[i].Focus()
		} else {
			m.fields[i].Blur()
		}
	}
	return m, cmd
}

func (m PortDialogModel) actuatorConfig() actuator.Config {
	return actuator.Config{
		Enabled:      m.enabled,
		Port:         strings.TrimSpace(m.fields[fieldPort].Value()),
		DelayMinutes: strings.TrimSpace(m.fields[fieldDelay].Value()),
		OnCode:       m.fields[fieldOn].Value(),
		OffCode:      m.fields[fieldOff].Value(),
	}
}

// Selection returns the confirmed choice, or false if the dialog was
// cancelled or is still open.
func (m PortDialogModel) Selection() (plugin.Selection, bool) {
	if m.selection == nil {
		return plugin.Selection{}, false
	}
	return *m.selection, true
}

// View renders the UI
func (m PortDialogModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == PortScreen {
		title = titleStyle.Render("Zeo Port")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Cancel")
	} else {
		title = titleStyle.Render("Actuator")
		help = infoStyle.Render("Tab: Next field • Space: Toggle • Enter: Start • Esc: Back")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m PortDialogModel) render() string {
	var sb strings.Builder
	if m.err != nil {
		sb.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.activeScreen == PortScreen {
		sb.WriteString(m.renderPorts())
	} else {
		sb.WriteString(m.renderActuator())
	}
	return sb.String()
}

func (m PortDialogModel) renderPorts() string {
	var sb strings.Builder
	for i, port := range m.ports {
		line := fmt.Sprintf("  %s", port)
		switch source.Kind(port) {
		case "simulator":
			line += " (simulated headband)"
		case "edf":
			line += " (recording)"
		}
		if i == m.selectedIndex {
			line = highlightStyle.Render("▶" + line[1:])
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m PortDialogModel) renderActuator() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Headband: %s\n\n", m.ports[m.selectedIndex])

	check := "[ ]"
	if m.enabled {
		check = "[x]"
	}
	line := fmt.Sprintf("  %s Fire actuator on REM", check)
	if m.focus == 0 {
		line = highlightStyle.Render(line)
	}
	sb.WriteString(line + "\n\n")

	for i, f := range m.fields {
		label := fmt.Sprintf("  %-16s", fieldLabels[i])
		if m.focus == i+1 {
			label = highlightStyle.Render(label)
		}
		sb.WriteString(label + f.View() + "\n")
	}
	if len(m.serial) > 0 {
		sb.WriteString(infoStyle.Render("\n  Serial ports: "+strings.Join(m.serial, ", ")) + "\n")
	}
	return sb.String()
}

// PortDialog runs the dialog as a plugin.Configurator.
type PortDialog struct {
	List       func() ([]string, error)
	Recordings []string
	Defaults   actuator.Config
	Options    []tea.ProgramOption
}

// Configure shows the dialog and returns the user's choice.
func (d PortDialog) Configure() (plugin.Selection, error) {
	opts := d.Options
	if opts == nil {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	final, err := tea.NewProgram(NewPortDialogModel(d.List, d.Recordings, d.Defaults), opts...).Run()
	if err != nil {
		return plugin.Selection{}, fmt.Errorf("port dialog: %w", err)
	}
	m, ok := final.(PortDialogModel)
	if !ok {
		return plugin.Selection{}, plugin.ErrCancelled
	}
	sel, ok := m.Selection()
	if !ok {
		return plugin.Selection{}, plugin.ErrCancelled
	}
	return sel, nil
}

var _ plugin.Configurator = PortDialog{}
