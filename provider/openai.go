package provider

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/linanwx/tutorbot/logger"
)

const openAIAPIBase = "https://api.openai.com/v1"

func init() {
	RegisterProvider("openai", ProviderRegistration{
		Models:  []string{"local-model", "gpt-4o-mini", "gpt-4.1"},
		EnvKey:  "OPENAI_API_KEY",
		EnvBase: "OPENAI_API_BASE",
		Constructor: func(s Settings) Provider {
			return newOpenAIProvider(s)
		},
	})
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint,
// including a local llama.cpp server.
type OpenAIProvider struct {
	apiBase     string
	modelName   string
	maxTokens   int
	temperature float64
	client      openai.Client
}

func newOpenAIProvider(s Settings) *OpenAIProvider {
	baseURL := normalizeSDKBaseURL(s.APIBase, openAIAPIBase, "/chat/completions")
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(s.APIKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithMaxRetries(sdkMaxRetries),
	}
	if s.Timeout > 0 {
		opts = append(opts, oaioption.WithRequestTimeout(s.Timeout))
	}

	return &OpenAIProvider{
		apiBase:     baseURL,
		modelName:   s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
		client:      openai.NewClient(opts...),
	}
}

// Chat sends a non-streaming chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	logger.Info(
		"openai request",
		"apiBase", p.apiBase,
		"modelName", p.modelName,
		"messageCount", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	chatReq := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.modelName),
		Messages:    toOpenAIChatMessages(req.Messages),
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(p.maxTokens))
	}

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq)
	if err != nil {
		logger.Error("openai request send error", "apiBase", p.apiBase, "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		logger.Error("openai no choices", "apiBase", p.apiBase)
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"openai response",
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"totalTokens", chatResp.Usage.TotalTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}

func toOpenAIChatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
