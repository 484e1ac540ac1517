package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("7"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
)

// TabPanel shows the subject selector.
type TabPanel struct {
	subjects []string
	active   string
	width    int
}

// NewTabPanel creates an empty tab bar.
func NewTabPanel() *TabPanel {
	return &TabPanel{}
}

// SetTabs replaces the tabs and the active one.
func (p *TabPanel) SetTabs(subjects []string, active string) {
	p.subjects = subjects
	p.active = active
}

func (p *TabPanel) Update(tea.Msg) (Panel, tea.Cmd) { return p, nil }

func (p *TabPanel) View() string {
	tabs := make([]string, 0, len(p.subjects))
	for _, s := range p.subjects {
		if s == p.active {
			tabs = append(tabs, activeTabStyle.Render(s))
		} else {
			tabs = append(tabs, tabStyle.Render(s))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if p.width > 0 && lipgloss.Width(row) > p.width {
		// Too narrow for every tab: fall back to the active one.
		return activeTabStyle.Render(p.active) + " " + tabStyle.Render(strings.Repeat("·", len(p.subjects)-1))
	}
	return row
}

func (p *TabPanel) SetSize(width, _ int) { p.width = width }

// neighbor returns the subject step positions away from the active one.
func neighbor(subjects []string, active string, step int) string {
	if len(subjects) == 0 {
		return active
	}
	i := 0
	for j, s := range subjects {
		if s == active {
			i = j
			break
		}
	}
	n := len(subjects)
	return subjects[((i+step)%n+n)%n]
}
