package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/tutorbot/render"
)

// ChatPanel displays the conversation in a scrollable viewport. Code block
// controls are numbered so they can be used with /copy N.
type ChatPanel struct {
	viewport viewport.Model
	spinner  spinner.Model
	term     *render.Term

	messages []render.Message
	pending  bool
	label    func(render.Action) string
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &ChatPanel{
		viewport: vp,
		spinner:  sp,
		term:     render.NewTerm(0),
	}
}

// SetTranscript replaces the rendered messages. label supplies the text of
// each copy control.
func (p *ChatPanel) SetTranscript(messages []render.Message, pending bool, label func(render.Action) string) {
	p.messages = messages
	p.pending = pending
	p.label = label
	p.refresh(true)
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok {
		if !p.pending {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.refresh(false)
		return p, cmd
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// Tick starts the pending indicator animation.
func (p *ChatPanel) Tick() tea.Cmd { return p.spinner.Tick }

func (p *ChatPanel) refresh(bottom bool) {
	numbers := make(map[string]int)
	for _, m := range p.messages {
		for _, a := range m.Actions() {
			numbers[a.ID] = len(numbers) + 1
		}
	}
	label := func(a render.Action) string {
		text := render.CopyLabel
		if p.label != nil {
			text = p.label(a)
		}
		return fmt.Sprintf("%s #%d", text, numbers[a.ID])
	}

	parts := make([]string, 0, len(p.messages)+1)
	for _, m := range p.messages {
		parts = append(parts, p.term.Render(m, label))
	}
	if p.pending {
		parts = append(parts, render.Bot.Avatar()+" "+p.spinner.View()+" thinking...")
	}
	p.viewport.SetContent(strings.Join(parts, "\n\n"))
	if bottom || p.pending {
		p.viewport.GotoBottom()
	}
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.term.Width = width
	p.refresh(false)
}
