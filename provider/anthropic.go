package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linanwx/tutorbot/logger"
)

const (
	anthropicAPIBase          = "https://api.anthropic.com"
	anthropicDefaultMaxTokens = 1024
)

func init() {
	RegisterProvider("anthropic", ProviderRegistration{
		Models:  []string{"claude-sonnet-4-5", "claude-haiku-4-5"},
		EnvKey:  "ANTHROPIC_API_KEY",
		EnvBase: "ANTHROPIC_API_BASE",
		Constructor: func(s Settings) Provider {
			return newAnthropicProvider(s)
		},
	})
}

// AnthropicProvider implements Provider with the Messages API.
type AnthropicProvider struct {
	apiBase     string
	modelName   string
	maxTokens   int
	temperature float64
	client      anthropic.Client
}

func newAnthropicProvider(s Settings) *AnthropicProvider {
	baseURL := normalizeSDKBaseURL(s.APIBase, anthropicAPIBase, "/v1/messages")
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(s.APIKey),
		anthropicoption.WithBaseURL(baseURL),
		anthropicoption.WithMaxRetries(sdkMaxRetries),
	}
	if s.Timeout > 0 {
		opts = append(opts, anthropicoption.WithRequestTimeout(s.Timeout))
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	return &AnthropicProvider{
		apiBase:     baseURL,
		modelName:   s.Model,
		maxTokens:   maxTokens,
		temperature: s.Temperature,
		client:      anthropic.NewClient(opts...),
	}
}

// Chat sends a Messages API request.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	logger.Info(
		"anthropic request",
		"modelName", p.modelName,
		"messageCount", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	system, messages := toAnthropicMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.modelName),
		MaxTokens:   int64(p.maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(p.temperature),
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("anthropic request send error", "apiBase", p.apiBase, "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	usage := Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	logger.Info(
		"anthropic response",
		"modelName", p.modelName,
		"stopReason", msg.StopReason,
		"promptTokens", usage.PromptTokens,
		"completionTokens", usage.CompletionTokens,
		"outputChars", sb.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{Content: sb.String(), Usage: usage}, nil
}

// toAnthropicMessages splits leading system messages into the system prompt.
// System messages after the first turn become user turns, and consecutive
// turns of the same role are merged.
func toAnthropicMessages(messages []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	i := 0
	for ; i < len(messages) && messages[i].Role == "system"; i++ {
		if messages[i].Content != "" {
			system = append(system, anthropic.TextBlockParam{Text: messages[i].Content})
		}
	}

	var out []anthropic.MessageParam
	var lastRole anthropic.MessageParamRole
	for _, m := range messages[i:] {
		if m.Content == "" {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == "assistant" {
			role = anthropic.MessageParamRoleAssistant
		}
		block := anthropic.NewTextBlock(m.Content)
		if len(out) > 0 && lastRole == role {
			out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			continue
		}
		if role == anthropic.MessageParamRoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		lastRole = role
	}
	return system, out
}
