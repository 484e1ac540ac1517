package chat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/render"
)

// ErrUnknownAction is returned when no handler is registered for a kind.
var ErrUnknownAction = errors.New("unknown action")

// Handler executes an action.
type Handler func(a render.Action) error

// Dispatcher routes actions to handlers by kind.
type Dispatcher struct {
	handlers map[render.ActionKind]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[render.ActionKind]Handler)}
}

// Handle registers h for kind, replacing any previous handler.
func (d *Dispatcher) Handle(kind render.ActionKind, h Handler) {
	d.handlers[kind] = h
}

// Dispatch runs the handler registered for a.Kind.
func (d *Dispatcher) Dispatch(a render.Action) error {
	h, ok := d.handlers[a.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
	return h(a)
}

// Feedback tracks which copy controls currently show their confirmation
// label. Safe for concurrent use.
type Feedback struct {
	mu  sync.Mutex
	gen map[string]int
	seq int
}

// NewFeedback returns an empty tracker.
func NewFeedback() *Feedback {
	return &Feedback{gen: make(map[string]int)}
}

// Mark shows the confirmation for id and returns a token for Reset.
func (f *Feedback) Mark(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.gen[id] = f.seq
	return f.seq
}

// Reset reverts id to its default label, unless it was marked again after
// token was issued.
func (f *Feedback) Reset(id string, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen[id] == token {
		delete(f.gen, id)
	}
}

// Label returns the label to show for a.
func (f *Feedback) Label(a render.Action) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.gen[a.ID]; ok {
		return render.CopiedLabel
	}
	return render.CopyLabel
}

// CopyHandler copies the action payload and marks its confirmation. When the
// clipboard write fails nothing is shown and no error is returned. onCopied,
// if set, receives the feedback token so the caller can schedule Reset after
// render.CopyFeedback.
func CopyHandler(cb Clipboard, fb *Feedback, onCopied func(id string, token int)) Handler {
	return func(a render.Action) error {
		if err := cb.WriteAll(a.Payload); err != nil {
			logger.Debug("clipboard write failed", "action", a.ID, "err", err)
			return nil
		}
		token := fb.Mark(a.ID)
		if onCopied != nil {
			onCopied(a.ID, token)
		}
		return nil
	}
}
