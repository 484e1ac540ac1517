// Package provider defines the LLM provider interface and common types.
package provider

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"time"
)

// sdkMaxRetries is passed to the vendor SDK clients.
const sdkMaxRetries = 2

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request.
type Request struct {
	Messages []Message
}

// Message is a chat message in the internal canonical format.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Response represents a chat completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Settings carries the runtime parameters a provider is built with.
type Settings struct {
	APIKey      string
	APIBase     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ProviderConstructor builds a provider for the requested settings.
type ProviderConstructor func(s Settings) Provider

// ProviderRegistration defines metadata and constructor for a provider.
type ProviderRegistration struct {
	Models      []string // suggestions shown by onboarding
	EnvKey      string
	EnvBase     string
	Constructor ProviderConstructor
}

var providerRegistry = map[string]ProviderRegistration{}

// RegisterProvider registers provider metadata and constructor.
func RegisterProvider(name string, reg ProviderRegistration) {
	name = strings.TrimSpace(name)
	if name == "" || reg.Constructor == nil {
		return
	}

	models := make([]string, 0, len(reg.Models))
	for _, model := range reg.Models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		models = append(models, model)
	}

	reg.Models = models
	reg.EnvKey = strings.TrimSpace(reg.EnvKey)
	reg.EnvBase = strings.TrimSpace(reg.EnvBase)
	providerRegistry[name] = reg
}

// SupportedProviders returns all supported provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedModelsForProvider returns suggested models for the given provider.
func SupportedModelsForProvider(providerName string) []string {
	reg, ok := providerRegistry[providerName]
	if !ok {
		return nil
	}
	out := make([]string, len(reg.Models))
	copy(out, reg.Models)
	return out
}

// New builds the named provider. Empty key and base fall back to the
// provider's environment variables.
func New(name string, s Settings) (Provider, error) {
	reg, ok := providerRegistry[strings.TrimSpace(name)]
	if !ok {
		return nil, errors.New("unknown provider: " + name)
	}
	if s.APIKey == "" && reg.EnvKey != "" {
		s.APIKey = os.Getenv(reg.EnvKey)
	}
	if s.APIBase == "" && reg.EnvBase != "" {
		s.APIBase = os.Getenv(reg.EnvBase)
	}
	return reg.Constructor(s), nil
}

// normalizeSDKBaseURL turns a configured endpoint into the base URL the SDK
// expects, dropping a trailing endpoint path such as "/chat/completions".
func normalizeSDKBaseURL(apiBase, defaultBase, endpoint string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = defaultBase
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, endpoint)
	return strings.TrimRight(base, "/")
}

// inputChars sums message content lengths for request logging.
func inputChars(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
