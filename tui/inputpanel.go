package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputPanel provides the single-line composer. It is disabled while a
// request is in flight.
type InputPanel struct {
	input         textinput.Model
	width, height int
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "Ask your tutor..."
	ti.Focus()
	return &InputPanel{input: ti}
}

// SetEnabled focuses or blurs the composer.
func (p *InputPanel) SetEnabled(enabled bool) tea.Cmd {
	if enabled {
		return p.input.Focus()
	}
	p.input.Blur()
	return nil
}

// Enabled reports whether the composer accepts input.
func (p *InputPanel) Enabled() bool { return p.input.Focused() }

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if !p.input.Focused() {
			return p, nil
		}
		if key.Type == tea.KeyEnter {
			text := p.input.Value()
			p.input.Reset()
			return p, func() tea.Msg { return InputSubmitMsg{Text: text} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = width - len(p.input.Prompt) - 1
}
