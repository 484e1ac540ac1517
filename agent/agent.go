// Package agent implements the tutor backend: subject prompts, the model
// call and the single-tool <tool_call> protocol.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/provider"
	"github.com/linanwx/tutorbot/tools"
)

// Result is the outcome of one user turn.
type Result struct {
	Reply      string
	Tool       string
	ToolResult any // string when a tool ran, nil otherwise
}

// Response converts r to the wire format.
func (r *Result) Response() *api.ChatResponse {
	return &api.ChatResponse{Reply: r.Reply, Tool: r.Tool, ToolResult: r.ToolResult}
}

// ProviderFactory builds a provider from the current LLM settings.
type ProviderFactory func(cfg *config.Config) (provider.Provider, error)

// Option configures an Agent.
type Option func(*Agent)

// WithProviderFactory replaces the registry-backed provider factory.
func WithProviderFactory(f ProviderFactory) Option {
	return func(a *Agent) { a.newProvider = f }
}

// WithTools replaces the default tool registry.
func WithTools(r *tools.Registry) Option {
	return func(a *Agent) { a.tools = r }
}

// Agent answers tutoring questions. It re-reads configuration from its
// store on every call.
type Agent struct {
	store       *config.Store
	tools       *tools.Registry
	newProvider ProviderFactory

	mu          sync.Mutex
	cachedKey   config.LLMConfig
	cached      provider.Provider
	cachedValid bool
}

// New creates an agent reading configuration from store.
func New(store *config.Store, opts ...Option) *Agent {
	a := &Agent{
		store:       store,
		newProvider: defaultProvider,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tools == nil {
		a.tools = tools.NewRegistry()
		a.tools.RegisterDefaultTools(func() string { return a.store.Get().Tutor.NotesDir })
	}
	return a
}

func defaultProvider(cfg *config.Config) (provider.Provider, error) {
	return provider.New(cfg.LLM.Provider, provider.Settings{
		APIKey:      cfg.LLM.APIKey,
		APIBase:     cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLMTimeout(),
	})
}

// providerFor returns a provider for cfg, rebuilding it when the LLM
// section changed since the last call.
func (a *Agent) providerFor(cfg *config.Config) (provider.Provider, error) {
	key := cfg.LLM

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cachedValid && a.cachedKey == key {
		return a.cached, nil
	}
	p, err := a.newProvider(cfg)
	if err != nil {
		return nil, err
	}
	a.cached, a.cachedKey, a.cachedValid = p, key, true
	return p, nil
}

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *tools.Registry { return a.tools }

// Answer produces the reply for text under subject. Tool failures are folded
// into the reply; an error means the model could not be reached at all.
func (a *Agent) Answer(ctx context.Context, text, subject string) (*Result, error) {
	cfg := a.store.Get()
	subject = strings.TrimSpace(subject)

	p, err := a.providerFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	messages := buildMessages(cfg, text, subject)
	out, err := complete(ctx, p, messages)
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractToolCall(strings.TrimSpace(out))
	if !ok {
		return &Result{Reply: out}, nil
	}
	return a.runTool(ctx, p, cfg, messages, out, raw, subject), nil
}

// Chat adapts Answer to the chat API for in-process clients. Model failures
// are reported in the response's Error field.
func (a *Agent) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	res, err := a.Answer(ctx, strings.TrimSpace(req.Message), strings.TrimSpace(req.Subject))
	return Respond(res, err, req.Subject), nil
}

// Respond converts the outcome of Answer to the wire format.
func Respond(res *Result, err error, subject string) *api.ChatResponse {
	if err != nil {
		logger.Error("agent answer failed", "subject", subject, "err", err)
		return &api.ChatResponse{Error: err.Error()}
	}
	return res.Response()
}

func buildMessages(cfg *config.Config, text, subject string) []provider.Message {
	if cfg.IsAgentMode(subject) {
		return []provider.Message{
			provider.SystemMessage(cfg.Tutor.System),
			provider.UserMessage(text),
		}
	}
	primer, _ := cfg.Primer(subject)
	return []provider.Message{
		provider.SystemMessage(primer),
		provider.UserMessage(text),
	}
}

func (a *Agent) runTool(ctx context.Context, p provider.Provider, cfg *config.Config, messages []provider.Message, out, raw, subject string) *Result {
	call, err := ParseToolCall(raw)
	if err != nil {
		return failed(&Result{Tool: call.Name}, err)
	}

	res := &Result{Tool: call.Name}
	tool, ok := a.tools.Get(call.Name)
	if !ok {
		logger.Warn("model requested unknown tool", "tool", call.Name)
		res.Reply = fmt.Sprintf("I attempted to use an unavailable tool '%s'.", call.Name)
		return res
	}

	result, err := runSafely(ctx, tool, call)
	if err != nil {
		return failed(res, err)
	}
	res.ToolResult = result
	logger.Info("tool ran", "tool", call.Name, "resultChars", len(result))

	messages = append(messages,
		provider.AssistantMessage(out),
		provider.SystemMessage(fmt.Sprintf("Tool '%s' returned:\n%s", call.Name, result)),
	)
	if subject != "" {
		if primer, ok := cfg.Primer(subject); ok {
			messages = append(messages, provider.SystemMessage(primer))
		}
	}

	final, err := complete(ctx, p, messages)
	if err != nil {
		return failed(res, err)
	}
	res.Reply = final
	return res
}

func failed(res *Result, err error) *Result {
	logger.Warn("tool call failed", "tool", res.Tool, "err", err)
	res.Reply = "I tried to call a tool but failed: " + err.Error()
	return res
}

func runSafely(ctx context.Context, tool tools.Tool, call ToolCall) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", call.Name, r)
		}
	}()
	return tool.Run(ctx, call.Arguments)
}

func complete(ctx context.Context, p provider.Provider, messages []provider.Message) (string, error) {
	resp, err := p.Chat(ctx, &provider.Request{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	return resp.Content, nil
}
