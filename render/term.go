package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
)

// TermStyles holds the lipgloss styles used by Term.
type TermStyles struct {
	User     lipgloss.Style
	Bot      lipgloss.Style
	Avatar   lipgloss.Style
	CodeHead lipgloss.Style
	CodeBox  lipgloss.Style
	Control  lipgloss.Style
	Tool     lipgloss.Style
}

// DefaultTermStyles returns the styles used by the terminal client.
func DefaultTermStyles() TermStyles {
	return TermStyles{
		User:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Bot:      lipgloss.NewStyle(),
		Avatar:   lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1),
		CodeHead: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		CodeBox:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).PaddingLeft(1).PaddingRight(1),
		Control:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Tool:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
	}
}

// Labeler returns the label shown on an action's control.
type Labeler func(Action) string

// Term renders messages for a terminal of a given width.
type Term struct {
	Width       int
	Styles      TermStyles
	Highlight   bool
	ChromaStyle string
}

// NewTerm returns a terminal renderer with syntax highlighting enabled.
func NewTerm(width int) *Term {
	return &Term{
		Width:       width,
		Styles:      DefaultTermStyles(),
		Highlight:   true,
		ChromaStyle: "monokai",
	}
}

// Render lays out m. label may be nil, in which case every control shows
// CopyLabel.
func (r *Term) Render(m Message, label Labeler) string {
	if label == nil {
		label = func(Action) string { return CopyLabel }
	}
	textStyle := r.Styles.Bot
	if m.Sender == User {
		textStyle = r.Styles.User
	}
	avatar := r.Styles.Avatar.Render(m.Sender.Avatar())
	maxW := r.Width - lipgloss.Width(avatar)

	var rows []string
	var text strings.Builder
	flush := func() {
		s := strings.Trim(text.String(), "\n")
		text.Reset()
		if s == "" {
			return
		}
		st := textStyle
		if maxW > 0 && lipgloss.Width(s) > maxW {
			st = st.Width(maxW)
		}
		rows = append(rows, st.Render(s))
	}
	for _, b := range m.Blocks() {
		if b.Action == nil {
			text.WriteString(inert(b.Segment.Content))
			continue
		}
		flush()
		rows = append(rows, r.codeBlock(b, label(*b.Action), maxW))
	}
	flush()

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	cols := make([]string, 0, 2)
	for _, p := range m.Parts() {
		if p == PartAvatar {
			cols = append(cols, avatar)
		} else {
			cols = append(cols, content)
		}
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if m.Sender == User && r.Width > 0 {
		out = lipgloss.PlaceHorizontal(r.Width, lipgloss.Right, out)
	}
	if ann := m.Annotation(); ann != "" {
		out += "\n" + r.Styles.Tool.Render(inert(ann))
	}
	return out
}

func (r *Term) codeBlock(b Block, label string, maxW int) string {
	head := r.Styles.CodeHead.Render(b.Segment.Language) + " " + r.Styles.Control.Render("["+label+"]")
	box := r.Styles.CodeBox
	if maxW > 4 {
		box = box.MaxWidth(maxW)
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, box.Render(r.highlight(inert(b.Segment.Content), b.Segment.Language)))
}

func (r *Term) highlight(code, lang string) string {
	if !r.Highlight || code == "" {
		return code
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, lang, "terminal256", r.ChromaStyle); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Plain renders m without styling, for non-interactive output.
func Plain(m Message) string {
	var b strings.Builder
	for _, blk := range m.Blocks() {
		if blk.Action == nil {
			b.WriteString(inert(blk.Segment.Content))
			continue
		}
		b.WriteString("\n[" + blk.Segment.Language + "]\n")
		b.WriteString(inert(blk.Segment.Content))
		b.WriteString("\n")
	}
	content := strings.Trim(b.String(), "\n")

	var out string
	if m.Sender == User {
		out = content + " " + m.Sender.Avatar()
	} else {
		out = m.Sender.Avatar() + " " + content
	}
	if ann := m.Annotation(); ann != "" {
		out += "\n" + inert(ann)
	}
	return out
}
