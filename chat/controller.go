// Package chat holds the client-side conversation state and the send
// controller shared by the terminal client and the browser channel.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/render"
)

// Placeholder replies and error prefixes shown to the user.
const (
	NoReply            = "(no reply)"
	ErrorPrefix        = "Error: "
	NetworkErrorPrefix = "Network error: "
)

// API is the remote chat endpoint.
type API interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Sink is notified of every view change. All calls happen on the goroutine
// that drives the controller.
type Sink interface {
	Appended(m render.Message)
	PendingChanged(pending bool)
	BusyChanged(busy bool)
}

// State is the complete client view state.
type State struct {
	Subjects []string
	Subject  string
	Messages []render.Message
	Busy     bool
	Pending  bool
}

// Controller owns State. It is not safe for concurrent use: drive it from a
// single event loop.
type Controller struct {
	api   API
	sink  Sink
	state State
}

// NewController returns a controller with subject selected and the given
// tabs. sink may be nil.
func NewController(a API, subjects []string, sink Sink) *Controller {
	if len(subjects) == 0 {
		subjects = api.FallbackSubjects
	}
	return &Controller{
		api:  a,
		sink: sink,
		state: State{
			Subjects: slices.Clone(subjects),
			Subject:  api.DefaultSubject,
		},
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Subjects = slices.Clone(s.Subjects)
	s.Messages = slices.Clone(s.Messages)
	return s
}

// Subject returns the selected subject.
func (c *Controller) Subject() string { return c.state.Subject }

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool { return c.state.Busy }

// SetSubjects replaces the tab list. The selection is left alone.
func (c *Controller) SetSubjects(subjects []string) {
	if len(subjects) == 0 {
		return
	}
	c.state.Subjects = slices.Clone(subjects)
}

// SelectSubject switches tabs. Unknown subjects are ignored.
func (c *Controller) SelectSubject(subject string) bool {
	if !slices.Contains(c.state.Subjects, subject) {
		return false
	}
	c.state.Subject = subject
	return true
}

// Begin validates input and, if it is accepted, records the user's message
// and disables submission. It returns the request to send.
func (c *Controller) Begin(input string) (api.ChatRequest, bool) {
	q := strings.TrimSpace(input)
	if q == "" || c.state.Busy {
		return api.ChatRequest{}, false
	}
	c.append(render.NewMessage(render.User, q, nil))
	c.setBusy(true)
	c.setPending(true)
	return api.ChatRequest{Message: q, Subject: c.state.Subject}, true
}

// Finish records the outcome of the request started by Begin as exactly one
// bot message and re-enables submission.
func (c *Controller) Finish(resp *api.ChatResponse, err error) render.Message {
	m := ReplyMessage(resp, err)
	c.append(m)
	c.setPending(false)
	c.setBusy(false)
	return m
}

// Submit runs Begin, the remote call and Finish in sequence. It reports
// false when the input was rejected.
func (c *Controller) Submit(ctx context.Context, input string) (render.Message, bool) {
	req, ok := c.Begin(input)
	if !ok {
		return render.Message{}, false
	}
	resp, err := c.api.Chat(ctx, req)
	return c.Finish(resp, err), true
}

// Actions returns every action in the transcript, oldest first.
func (c *Controller) Actions() []render.Action {
	var out []render.Action
	for _, m := range c.state.Messages {
		out = append(out, m.Actions()...)
	}
	return out
}

// Clear empties the transcript.
func (c *Controller) Clear() {
	c.state.Messages = nil
}

func (c *Controller) append(m render.Message) {
	c.state.Messages = append(c.state.Messages, m)
	if c.sink != nil {
		c.sink.Appended(m)
	}
}

func (c *Controller) setBusy(b bool) {
	c.state.Busy = b
	if c.sink != nil {
		c.sink.BusyChanged(b)
	}
}

func (c *Controller) setPending(p bool) {
	c.state.Pending = p
	if c.sink != nil {
		c.sink.PendingChanged(p)
	}
}

// ReplyMessage maps the outcome of a chat call to the bot message shown to
// the user.
func ReplyMessage(resp *api.ChatResponse, err error) render.Message {
	var httpErr *api.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return render.NewMessage(render.Bot, ErrorPrefix+httpErr.Error(), nil)
	case err != nil:
		return render.NewMessage(render.Bot, NetworkErrorPrefix+err.Error(), nil)
	case resp == nil:
		return render.NewMessage(render.Bot, NoReply, nil)
	case resp.Error != "":
		return render.NewMessage(render.Bot, ErrorPrefix+resp.Error, nil)
	}

	reply := resp.Reply
	if reply == "" {
		reply = NoReply
	}
	var tool *render.ToolInfo
	if resp.Tool != "" {
		tool = &render.ToolInfo{Name: resp.Tool, Result: resp.ToolResult}
	}
	return render.NewMessage(render.Bot, reply, tool)
}
