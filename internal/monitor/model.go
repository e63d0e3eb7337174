package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arpena/hpa4911/internal/client"
	"github.com/arpena/hpa4911/internal/protocol"
)

// Message types for async events
type deviceUpdateMsg struct{}
type tickMsg time.Time

// keyMap defines key bindings for the monitor screen
type keyMap struct {
	Poll key.Binding
	Help key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Poll, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Poll, k.Help, k.Quit}}
}

var defaultKeys = keyMap{
	Poll: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "poll now"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the live device monitor: a table of every registered device and
// its last pushed state, refreshed as statuses arrive.
type Model struct {
	client  *client.Client
	names   map[string]string // MAC -> nickname
	updates chan struct{}

	spin     spinner.Model
	helpView help.Model
	keys     keyMap
	showHelp bool

	width    int
	received int
}

// New builds a monitor over a running client. The monitor registers its own
// status callbacks; any callbacks the caller set previously are replaced.
func New(c *client.Client, names map[string]string) *Model {
	m := &Model{
		client:   c,
		names:    names,
		updates:  make(chan struct{}, 16),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		helpView: help.New(),
		keys:     defaultKeys,
		width:    terminalWidth(),
	}
	m.helpView.Width = m.width

	notify := func() {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	}
	c.SetStatusCallback(func(protocol.MAC, *protocol.HVACStatus) { notify() })
	c.SetDeviceStatusCallback(func(protocol.MAC, *protocol.DeviceStatus) { notify() })

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForUpdate(), tick())
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return deviceUpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Poll):
			m.client.Poll()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.helpView.Width = msg.Width
		return m, nil

	case deviceUpdateMsg:
		m.received++
		return m, m.waitForUpdate()

	case tickMsg:
		// Availability is time-derived, so redraw even without traffic.
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	devices := m.client.Devices()
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].MAC.String() < devices[j].MAC.String()
	})

	out := titleStyle.Render("HPA4911 monitor") + "\n\n"

	if len(devices) == 0 {
		out += mutedStyle.Render("no devices registered; add one with 'hpa4911ctl devices add'") + "\n"
		return out
	}

	out += headerRowStyle.Render(fmt.Sprintf("%-16s %-18s %-7s %-6s %-6s %-7s %-7s %-8s %s",
		"NAME", "MAC", "STATE", "MODE", "FAN", "ROOM", "TARGET", "BATTERY", "FIRMWARE")) + "\n"

	for _, d := range devices {
		out += m.renderRow(d) + "\n"
	}

	waiting := ""
	if m.received == 0 {
		waiting = m.spin.View() + " waiting for first status push"
	}
	out += statusBarStyle.Render(fmt.Sprintf("%d updates received  %s", m.received, waiting))

	if m.showHelp {
		out += "\n" + m.helpView.FullHelpView(m.keys.FullHelp())
	} else {
		out += "\n" + m.helpView.ShortHelpView(m.keys.ShortHelp())
	}
	return out
}

func (m *Model) renderRow(d client.Snapshot) string {
	name := m.names[d.MAC.String()]
	if name == "" {
		name = "-"
	}

	stateText, stateStyle := "offline", unavailableStyle
	if d.Available {
		stateText, stateStyle = "online", availableStyle
	}
	state := stateStyle.Render(fmt.Sprintf("%-7s", stateText))

	mode, fan, room, target := "-", "-", "-", "-"
	if d.HVAC != nil {
		mode = protocol.ModeName(d.HVAC.Mode)
		fan = protocol.FanModeName(d.HVAC.FanMode)
		room = fmt.Sprintf("%.1fC", d.HVAC.MeasuredTemp)
		target = fmt.Sprintf("%.1fC", d.HVAC.DesiredTemp)
	}

	battery, firmware := "-", "-"
	if d.DeviceInfo != nil {
		if d.DeviceInfo.Battery != nil {
			battery = fmt.Sprintf("%d", *d.DeviceInfo.Battery)
		}
		if d.DeviceInfo.Firmware != "" {
			firmware = d.DeviceInfo.Firmware
		}
	}

	return cellStyle.Render(fmt.Sprintf("%-16s %-18s ", truncate(name, 16), d.MAC)) +
		state +
		cellStyle.Render(fmt.Sprintf(" %-6s %-6s %-7s %-7s %-8s %s",
			mode, fan, room, target, battery, firmware))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
