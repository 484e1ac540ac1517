package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/render"
)

type fakeAPI struct {
	calls []api.ChatRequest
	resp  *api.ChatResponse
	err   error
	// busy observed while the request was in flight
	sawBusy bool
	c       *Controller
}

func (f *fakeAPI) Chat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.calls = append(f.calls, req)
	if f.c != nil {
		f.sawBusy = f.c.Busy()
	}
	return f.resp, f.err
}

type recordingSink struct {
	events []string
}

func (s *recordingSink) Appended(m render.Message) { s.events = append(s.events, "append:"+m.Sender.String()) }
func (s *recordingSink) PendingChanged(p bool) {
	if p {
		s.events = append(s.events, "pending")
	} else {
		s.events = append(s.events, "unpending")
	}
}
func (s *recordingSink) BusyChanged(b bool) {
	if b {
		s.events = append(s.events, "busy")
	} else {
		s.events = append(s.events, "idle")
	}
}

func TestSubmitWhitespaceIsIgnored(t *testing.T) {
	f := &fakeAPI{}
	c := NewController(f, nil, nil)

	for _, in := range []string{"", "   ", "\n\t "} {
		_, ok := c.Submit(context.Background(), in)
		assert.False(t, ok)
	}
	assert.Empty(t, f.calls)
	assert.Empty(t, c.State().Messages)
	assert.False(t, c.Busy())
}

func TestSubmitSendsTrimmedMessageAndSubject(t *testing.T) {
	f := &fakeAPI{resp: &api.ChatResponse{Reply: "hi"}}
	c := NewController(f, []string{"Coding", "Math"}, nil)
	require.True(t, c.SelectSubject("Math"))
	f.c = c

	m, ok := c.Submit(context.Background(), "  what is 2+2?  ")
	require.True(t, ok)
	require.Len(t, f.calls, 1)
	assert.Equal(t, api.ChatRequest{Message: "what is 2+2?", Subject: "Math"}, f.calls[0])
	assert.True(t, f.sawBusy, "submission must be disabled while waiting")

	st := c.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, render.User, st.Messages[0].Sender)
	assert.Equal(t, "what is 2+2?", st.Messages[0].Text())
	assert.Equal(t, render.Bot, m.Sender)
	assert.Equal(t, "hi", m.Text())
	assert.False(t, st.Busy)
	assert.False(t, st.Pending)
}

func TestSubmitNetworkError(t *testing.T) {
	f := &fakeAPI{err: errors.New("boom")}
	c := NewController(f, nil, nil)

	m, ok := c.Submit(context.Background(), "hello")
	require.True(t, ok)
	assert.Equal(t, "Network error: boom", m.Text())

	st := c.State()
	require.Len(t, st.Messages, 2)
	assert.False(t, st.Busy)

	// Submission works again afterwards.
	f.err = nil
	f.resp = &api.ChatResponse{Reply: "ok"}
	_, ok = c.Submit(context.Background(), "again")
	assert.True(t, ok)
	assert.Len(t, c.State().Messages, 4)
}

func TestReplyMessage(t *testing.T) {
	tests := []struct {
		name     string
		resp     *api.ChatResponse
		err      error
		wantText string
		wantTool string
	}{
		{name: "http error body", err: api.NewHTTPError(400, "Bad Request", `{"error":"Empty message"}`), wantText: `Error: {"error":"Empty message"}`},
		{name: "http error no body", err: api.NewHTTPError(502, "Bad Gateway", ""), wantText: "Error: 502 Bad Gateway"},
		{name: "wrapped network error", err: errors.New("boom"), wantText: "Network error: boom"},
		{name: "server error field", resp: &api.ChatResponse{Error: "LLM down"}, wantText: "Error: LLM down"},
		{name: "empty reply", resp: &api.ChatResponse{}, wantText: NoReply},
		{name: "nil response", wantText: NoReply},
		{name: "tool", resp: &api.ChatResponse{Reply: "found it", Tool: "search_notes", ToolResult: "- a.md: x"}, wantText: "found it", wantTool: "search_notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ReplyMessage(tt.resp, tt.err)
			assert.Equal(t, render.Bot, m.Sender)
			assert.Equal(t, tt.wantText, m.Text())
			if tt.wantTool == "" {
				assert.Nil(t, m.Tool)
				assert.Empty(t, m.Annotation())
				return
			}
			require.NotNil(t, m.Tool)
			assert.Equal(t, tt.wantTool, m.Tool.Name)
			assert.Equal(t, render.ToolAnnotationPrefix+tt.wantTool, m.Annotation())
		})
	}
}

func TestSinkEventOrder(t *testing.T) {
	s := &recordingSink{}
	c := NewController(&fakeAPI{resp: &api.ChatResponse{Reply: "x"}}, nil, s)
	_, ok := c.Submit(context.Background(), "q")
	require.True(t, ok)
	assert.Equal(t, []string{"append:you", "busy", "pending", "append:bot", "unpending", "idle"}, s.events)
}

func TestBeginRejectsWhileBusy(t *testing.T) {
	c := NewController(&fakeAPI{}, nil, nil)
	_, ok := c.Begin("first")
	require.True(t, ok)
	_, ok = c.Begin("second")
	assert.False(t, ok)
	c.Finish(&api.ChatResponse{Reply: "done"}, nil)
	_, ok = c.Begin("third")
	assert.True(t, ok)
}

func TestSelectSubject(t *testing.T) {
	c := NewController(&fakeAPI{}, nil, nil)
	assert.Equal(t, api.DefaultSubject, c.Subject())
	assert.Equal(t, api.FallbackSubjects, c.State().Subjects)
	assert.False(t, c.SelectSubject("Basket Weaving"))
	assert.True(t, c.SelectSubject("Agent Mode"))
	assert.Equal(t, "Agent Mode", c.Subject())

	c.SetSubjects(nil)
	assert.Equal(t, api.FallbackSubjects, c.State().Subjects)
}

func TestActionsAcrossTranscript(t *testing.T) {
	f := &fakeAPI{resp: &api.ChatResponse{Reply: "a\n```go\nx := 1\n```\nb\n```\ny\n```"}}
	c := NewController(f, nil, nil)
	_, ok := c.Submit(context.Background(), "show me")
	require.True(t, ok)

	acts := c.Actions()
	require.Len(t, acts, 2)
	assert.Equal(t, "x := 1", acts[0].Payload)
	assert.Equal(t, "y", acts[1].Payload)
	assert.NotEqual(t, acts[0].ID, acts[1].ID)

	c.Clear()
	assert.Empty(t, c.Actions())
}
