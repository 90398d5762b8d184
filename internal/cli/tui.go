package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// inspectModel - Interactive topology browser
// =============================================================================

const (
	tabDevices = iota
	tabLinks
	tabBuild
)

var tabNames = []string{"Devices", "Links", "Build"}

// inspectModel is the bubbletea model behind "inspect --tui". Each tab
// scrolls independently.
type inspectModel struct {
	devices [][]string
	links   [][]string
	stats   []string

	tab     int
	offsets [3]int
	height  int
}

func newInspectModel(r inspectReport) inspectModel {
	return inspectModel{
		devices: r.deviceRows(),
		links:   r.linkRows(),
		stats:   statsLines(r),
		height:  15,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % len(tabNames)
		case "shift+tab", "left", "h":
			m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
		case "up", "k":
			if m.offsets[m.tab] > 0 {
				m.offsets[m.tab]--
			}
		case "down", "j":
			if m.offsets[m.tab] < m.maxOffset() {
				m.offsets[m.tab]++
			}
		case "home", "g":
			m.offsets[m.tab] = 0
		case "end", "G":
			m.offsets[m.tab] = m.maxOffset()
		}
	case tea.WindowSizeMsg:
		// Title, tab bar, help line and the table borders.
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
		for i := range m.offsets {
			if limit := m.maxOffsetFor(i); m.offsets[i] > limit {
				m.offsets[i] = limit
			}
		}
	}
	return m, nil
}

func (m inspectModel) rowCount(tab int) int {
	switch tab {
	case tabDevices:
		return len(m.devices)
	case tabLinks:
		return len(m.links)
	default:
		return len(m.stats)
	}
}

func (m inspectModel) maxOffsetFor(tab int) int {
	if n := m.rowCount(tab) - m.height; n > 0 {
		return n
	}
	return 0
}

func (m inspectModel) maxOffset() int { return m.maxOffsetFor(m.tab) }

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Mesh Topology"))
	b.WriteString("\n")
	for i, name := range tabNames {
		if i > 0 {
			b.WriteString(listDimStyle.Render("  │  "))
		}
		if i == m.tab {
			b.WriteString(tabActiveStyle.Render(name))
		} else {
			b.WriteString(tabInactiveStyle.Render(name))
		}
	}
	b.WriteString("\n\n")

	offset := m.offsets[m.tab]
	switch m.tab {
	case tabDevices:
		b.WriteString(deviceTable(viewWindow(m.devices, offset, m.height)).Render())
	case tabLinks:
		if len(m.links) == 0 {
			b.WriteString(listDimStyle.Render("no links reported"))
		} else {
			b.WriteString(linkTable(viewWindow(m.links, offset, m.height)).Render())
		}
	case tabBuild:
		end := min(offset+m.height, len(m.stats))
		b.WriteString(joinLines(m.stats[min(offset, end):end]))
	}
	b.WriteString("\n")

	if n := m.rowCount(m.tab); n > m.height {
		b.WriteString(listDimStyle.Render(scrollPosition(offset, m.height, n)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("⇥ switch tab  ↑/↓ scroll  q quit"))
	b.WriteString("\n")

	return b.String()
}

// scrollPosition renders "rows 11-25 of 40".
func scrollPosition(offset, height, total int) string {
	end := min(offset+height, total)
	return fmt.Sprintf("rows %d-%d of %d", offset+1, end, total)
}
