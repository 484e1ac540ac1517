package channel

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/chat"
	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/render"
)

// Event types pushed to the browser.
const (
	EventAppend  = "append"
	EventPending = "pending"
	EventRemove  = "remove"
	EventReady   = "ready"
)

// Event is one server-to-browser update. HTML is server-rendered and safe to
// insert as is.
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	HTML string `json:"html,omitempty"`
}

// wsSink forwards controller changes to the socket.
type wsSink struct {
	ctx       context.Context
	conn      *websocket.Conn
	pendingID string
	err       error
}

func (s *wsSink) write(ev Event) {
	if s.err != nil {
		return
	}
	s.err = wsjson.Write(s.ctx, s.conn, ev)
}

func (s *wsSink) Appended(m render.Message) {
	s.write(Event{Type: EventAppend, ID: m.ID, HTML: string(render.HTML(m))})
}

func (s *wsSink) PendingChanged(pending bool) {
	if pending {
		s.pendingID = "pending-" + uuid.NewString()
		s.write(Event{Type: EventPending, ID: s.pendingID, HTML: string(render.PendingHTML(s.pendingID))})
		return
	}
	s.write(Event{Type: EventRemove, ID: s.pendingID})
	s.pendingID = ""
}

func (s *wsSink) BusyChanged(busy bool) {
	if !busy {
		s.write(Event{Type: EventReady})
	}
}

// handleWS runs one browser session. Each socket owns its own controller and
// processes one message at a time.
func (w *WebChannel) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(rw, r, &websocket.AcceptOptions{
		InsecureSkipVerify: w.store.Get().CORSEnabled(),
	})
	if err != nil {
		logger.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	cfg := w.store.Get()
	sink := &wsSink{ctx: ctx, conn: conn}
	ctrl := chat.NewController(w.tutor, cfg.SubjectNames(), sink)
	ctrl.SelectSubject(defaultSubject(cfg))

	sink.write(Event{Type: EventReady})
	for sink.err == nil {
		var in api.ChatRequest
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			sink.err = err
			break
		}
		ctrl.SetSubjects(w.store.Get().SubjectNames())
		if in.Subject != "" && !ctrl.SelectSubject(in.Subject) {
			logger.Debug("websocket unknown subject", "subject", in.Subject)
		}
		if _, ok := ctrl.Submit(ctx, in.Message); !ok {
			// Rejected input still re-enables the composer.
			sink.write(Event{Type: EventReady})
		}
	}

	status := websocket.CloseStatus(sink.err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(sink.err, context.Canceled) {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	logger.Debug("websocket session ended", "err", sink.err)
}
