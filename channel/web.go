package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/internal/health"
	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/render"
)

const (
	webShutdownTimeout = 5 * time.Second
	webMaxBodyBytes    = 1 << 20
	errEmptyMessage    = "Empty message"
)

//go:embed web
var webAssets embed.FS

var indexTemplate = template.Must(template.ParseFS(webAssets, "web/index.html"))

// WebChannel serves the chat widget, the JSON chat API and the live
// websocket session.
type WebChannel struct {
	store *config.Store
	tutor Tutor

	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// NewWebChannel creates the web channel. The listen address is read from the
// config at Start.
func NewWebChannel(store *config.Store, tutor Tutor) *WebChannel {
	return &WebChannel{store: store, tutor: tutor}
}

// Name returns the channel name.
func (w *WebChannel) Name() string { return "web" }

// Addr returns the bound listen address once started.
func (w *WebChannel) Addr() string {
	if w.ln == nil {
		return ""
	}
	return w.ln.Addr().String()
}

// Start binds the listener and serves in the background.
func (w *WebChannel) Start(ctx context.Context) error {
	addr := w.store.Get().Server.Addr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web listen %s: %w", addr, err)
	}
	w.ln = ln
	w.srv = &http.Server{
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		if err := w.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped", "err", err)
		}
	}()

	logger.Info("web channel started", "addr", ln.Addr().String())
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (w *WebChannel) Stop() error {
	if w.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), webShutdownTimeout)
	defer cancel()
	err := w.srv.Shutdown(ctx)
	<-w.done
	logger.Info("web channel stopped")
	return err
}

// Handler returns the HTTP routes.
func (w *WebChannel) Handler() http.Handler {
	static, _ := fs.Sub(webAssets, "web")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", w.handleIndex)
	mux.HandleFunc("GET /config", w.handleConfig)
	mux.HandleFunc("POST /chat", w.handleChat)
	mux.HandleFunc("OPTIONS /chat", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /ws", w.handleWS)
	mux.HandleFunc("GET /health", w.handleHealth)
	mux.HandleFunc("GET /favicon.ico", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return w.cors(mux)
}

func (w *WebChannel) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if w.store.Get().CORSEnabled() {
			h := rw.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		}
		next.ServeHTTP(rw, r)
	})
}

type indexView struct {
	Tabs    template.HTML
	Subject string
}

func (w *WebChannel) handleIndex(rw http.ResponseWriter, _ *http.Request) {
	cfg := w.store.Get()
	subject := defaultSubject(cfg)
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(rw, indexView{
		Tabs:    render.TabsHTML(cfg.SubjectNames(), subject),
		Subject: subject,
	}); err != nil {
		logger.Error("render index failed", "err", err)
	}
}

func (w *WebChannel) handleConfig(rw http.ResponseWriter, _ *http.Request) {
	cfg := w.store.Get()
	writeJSON(rw, http.StatusOK, api.ConfigResponse{
		APIURL:         cfg.LLM.APIURL,
		Model:          cfg.LLM.Model,
		Timeout:        cfg.LLM.Timeout,
		SubjectPrimers: cfg.PrimerMap(),
		Subjects:       cfg.SubjectNames(),
	})
}

func (w *WebChannel) handleChat(rw http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, webMaxBodyBytes))
	if err == nil {
		// Malformed bodies are treated as empty.
		_ = json.Unmarshal(body, &req)
	}
	msg := strings.TrimSpace(req.Message)
	subject := strings.TrimSpace(req.Subject)
	if msg == "" {
		writeJSON(rw, http.StatusBadRequest, api.ChatResponse{Error: errEmptyMessage})
		return
	}

	res, err := w.tutor.Answer(r.Context(), msg, subject)
	if err != nil {
		logger.Error("chat request failed", "subject", subject, "err", err)
		writeJSON(rw, http.StatusBadGateway, api.ChatResponse{Error: err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, res.Response())
}

func (w *WebChannel) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	cfg := w.store.Get()
	writeJSON(rw, http.StatusOK, health.Collect(health.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		NotesDir: cfg.Tutor.NotesDir,
		Channels: []string{w.Name()},
	}))
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.Warn("write json response failed", "err", err)
	}
}

func defaultSubject(cfg *config.Config) string {
	if s := cfg.Tutor.DefaultSubject; s != "" {
		return s
	}
	return api.DefaultSubject
}
