package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leandrodaf/midihost/sdk/contracts"
	"github.com/leandrodaf/midihost/sdk/midihost"
)

// inspectorModel pages through the normalized events of one loaded file.
type inspectorModel struct {
	host   *midihost.Host
	handle contracts.Handle
	path   string
	info   contracts.FileInfo

	track  int
	offset int
	height int
	status string
}

func newInspectorModel(host *midihost.Host, path string) (*inspectorModel, error) {
	handle, err := host.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := host.FileInfo(handle)
	if err != nil {
		return nil, err
	}
	return &inspectorModel{
		host:   host,
		handle: handle,
		path:   path,
		info:   info,
		height: 24,
	}, nil
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) pageSize() int {
	// Header, track line, column header and help take eight rows.
	page := m.height - 8
	if page < 1 {
		page = 1
	}
	return page
}

func (m *inspectorModel) eventCount() int {
	count, err := m.host.EventCount(m.handle, m.track)
	if err != nil {
		return 0
	}
	return count
}

func (m *inspectorModel) clampOffset() {
	max := m.eventCount() - m.pageSize()
	if max < 0 {
		max = 0
	}
	if m.offset > max {
		m.offset = max
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.clampOffset()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.offset--
		case "down", "j":
			m.offset++
		case "pgup":
			m.offset -= m.pageSize()
		case "pgdown", " ":
			m.offset += m.pageSize()
		case "g":
			m.offset = 0
		case "G":
			m.offset = m.eventCount()
		case "left", "h":
			if m.track > 0 {
				m.track--
				m.offset = 0
			}
		case "right", "l", "tab":
			if m.track < m.info.TrackCount-1 {
				m.track++
				m.offset = 0
			}
		}
		m.clampOffset()
	}
	return m, nil
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MIDI File Inspector") + "\n")
	b.WriteString(m.headerLine() + "\n")
	b.WriteString(m.trackLine() + "\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%8s %12s  %-24s %s", "tick", "ms", "type", "detail")) + "\n")

	count := m.eventCount()
	page := m.pageSize()
	for i := m.offset; i < m.offset+page && i < count; i++ {
		event, err := m.host.Event(m.handle, m.track, i)
		if err != nil {
			b.WriteString(errorStyle.Render(err.Error()) + "\n")
			break
		}
		b.WriteString(m.eventLine(i, event) + "\n")
	}
	if count == 0 {
		b.WriteString(dimStyle.Render("(no events)") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑↓/jk: scroll • ←→/hl: track • g/G: top/bottom • q: quit"))
	return b.String()
}

func (m *inspectorModel) headerLine() string {
	duration, err := m.host.DurationTicks(m.handle)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	ms, _ := m.host.TicksToMS(m.handle, duration, 0)

	timing := fmt.Sprintf("%d ticks/quarter", m.info.TicksPerQuarter)
	if m.info.Timing == contracts.TimingTimecode {
		timing = fmt.Sprintf("%.2f fps x %d ticks/frame", m.info.FramesPerSecond, m.info.TicksPerFrame)
	}
	return fmt.Sprintf("%s: format %d, %d tracks, %s, %.1fs",
		m.path, m.info.Format, m.info.TrackCount, timing, ms/1000.0)
}

func (m *inspectorModel) trackLine() string {
	name, err := m.host.TrackName(m.handle, m.track)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	instrument, _ := m.host.TrackInstrument(m.handle, m.track)

	line := fmt.Sprintf("Track %d/%d: %s", m.track+1, m.info.TrackCount, name)
	if instrument != "" {
		line += fmt.Sprintf(" (%s)", instrument)
	}
	line += fmt.Sprintf(", %d events", m.eventCount())
	return selectedStyle.Render(line)
}

func (m *inspectorModel) eventLine(index int, event contracts.EventInfo) string {
	detail := describeEvent(event.Type, event.Channel, event.Data1, event.Data2)
	if event.HasText {
		if text, err := m.host.EventText(m.handle, m.track, index); err == nil {
			detail = text
		}
	}

	line := fmt.Sprintf("%8d %12.3f  %-24s %s", event.Tick, event.MS, event.Type.String(), detail)
	if event.Type.IsMeta() {
		return dimStyle.Render(line)
	}
	return line
}
