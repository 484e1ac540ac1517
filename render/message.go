// Package render turns parsed chat messages into views for the browser
// widget, the terminal client and Telegram.
package render

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/linanwx/tutorbot/segment"
)

// Sender identifies who produced a message.
type Sender int

const (
	User Sender = iota
	Bot
)

// Class returns the CSS class used for the sender ("you" or "bot").
func (s Sender) Class() string {
	if s == User {
		return "you"
	}
	return "bot"
}

// Avatar returns the identity marker shown next to the sender's messages.
func (s Sender) Avatar() string {
	if s == User {
		return "👤"
	}
	return "🤖"
}

func (s Sender) String() string { return s.Class() }

// Part is one of the two regions of a message entry.
type Part string

const (
	PartAvatar  Part = "avatar"
	PartContent Part = "content"
)

// Copy control labels and how long the confirmation stays visible.
const (
	CopyLabel    = "Copy"
	CopiedLabel  = "Copied!"
	CopyFeedback = 1200 * time.Millisecond
)

// ToolAnnotationPrefix starts the line appended after a message produced with
// the help of a tool.
const ToolAnnotationPrefix = "🛠️ Tool used: "

// ToolInfo describes a tool the backend used to produce a reply.
type ToolInfo struct {
	Name   string
	Result any
}

// Message is an immutable chat entry.
type Message struct {
	ID       string
	Sender   Sender
	Segments []segment.Segment
	Tool     *ToolInfo
}

// NewMessage parses text into a new message with a fresh ID.
func NewMessage(sender Sender, text string, tool *ToolInfo) Message {
	if tool != nil && tool.Name == "" {
		tool = nil
	}
	return Message{
		ID:       uuid.NewString(),
		Sender:   sender,
		Segments: segment.Parse(text),
		Tool:     tool,
	}
}

// Text returns the original message text.
func (m Message) Text() string { return segment.Join(m.Segments) }

// Parts returns the layout order: the user's content precedes the avatar
// (right aligned), the bot's avatar precedes the content (left aligned).
func (m Message) Parts() []Part {
	if m.Sender == User {
		return []Part{PartContent, PartAvatar}
	}
	return []Part{PartAvatar, PartContent}
}

// Annotation returns the tool line to show after the message, or "".
func (m Message) Annotation() string {
	if m.Tool == nil || m.Tool.Name == "" {
		return ""
	}
	return ToolAnnotationPrefix + m.Tool.Name
}

// ActionKind names an interactive affordance attached to a rendered block.
type ActionKind string

// ActionCopy copies the payload to the clipboard.
const ActionCopy ActionKind = "copy"

// Action is a command a view can dispatch when the user activates a control.
type Action struct {
	ID      string
	Kind    ActionKind
	Payload string
}

// Block is a segment paired with its affordance, if any.
type Block struct {
	Segment segment.Segment
	Action  *Action
}

// Blocks returns the message segments in order, with a copy action attached
// to each code block.
func (m Message) Blocks() []Block {
	blocks := make([]Block, 0, len(m.Segments))
	n := 0
	for _, s := range m.Segments {
		b := Block{Segment: s}
		if s.IsCode() {
			b.Action = &Action{
				ID:      m.ID + ":" + strconv.Itoa(n),
				Kind:    ActionCopy,
				Payload: s.Content,
			}
			n++
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// Actions returns every action attached to the message.
func (m Message) Actions() []Action {
	var out []Action
	for _, b := range m.Blocks() {
		if b.Action != nil {
			out = append(out, *b.Action)
		}
	}
	return out
}
