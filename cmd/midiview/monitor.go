package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leandrodaf/midihost/sdk/contracts"
	"github.com/leandrodaf/midihost/sdk/midihost"
)

const monitorBacklog = 100

type liveEventMsg contracts.LiveEvent

// monitorModel tails the classified events arriving from one live device.
type monitorModel struct {
	host   *midihost.Host
	sink   *midihost.ChannelSink
	handle contracts.Handle
	device contracts.DeviceInfo

	events []contracts.LiveEvent
	height int
}

func newMonitorModel(host *midihost.Host, deviceID int) (*monitorModel, error) {
	devices, err := host.InputDevices()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("%w: device %d of %d", contracts.ErrDeviceUnavailable, deviceID, len(devices))
	}

	sink := midihost.NewChannelSink(256)
	handle, err := host.OpenListener(sink, deviceID)
	if err != nil {
		return nil, err
	}

	return &monitorModel{
		host:   host,
		sink:   sink,
		handle: handle,
		device: devices[deviceID],
		height: 24,
	}, nil
}

// waitForEvent blocks on the sink until the listener forwards something.
func waitForEvent(sink *midihost.ChannelSink) tea.Cmd {
	return func() tea.Msg {
		return liveEventMsg(<-sink.C)
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return waitForEvent(m.sink)
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case liveEventMsg:
		m.events = append(m.events, contracts.LiveEvent(msg))
		if len(m.events) > monitorBacklog {
			m.events = m.events[len(m.events)-monitorBacklog:]
		}
		return m, waitForEvent(m.sink)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.events = nil
		}
	}
	return m, nil
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MIDI Live Monitor") + "\n")
	b.WriteString(selectedStyle.Render(fmt.Sprintf("Device: %s (%s)", m.device.Name, m.device.Manufacturer)) + "\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-6s %-24s %s", "time", "status", "type", "detail")) + "\n")

	rows := m.height - 7
	if rows < 1 {
		rows = 1
	}
	start := len(m.events) - rows
	if start < 0 {
		start = 0
	}
	for _, event := range m.events[start:] {
		stamp := time.Unix(0, int64(event.Timestamp)).Format("15:04:05.000")
		detail := describeEvent(event.Type, event.Channel, event.Data1, event.Data2)
		b.WriteString(fmt.Sprintf("%-12s 0x%02X   %-24s %s\n", stamp, event.Status, event.Type.String(), detail))
	}
	if len(m.events) == 0 {
		b.WriteString(dimStyle.Render("(waiting for input)") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("c: clear • q: quit"))
	return b.String()
}
