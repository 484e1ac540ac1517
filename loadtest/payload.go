package loadtest

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultPrompt is the question sent by every request.
const DefaultPrompt = "Explain Newton's second law in a paragraph suitable for high-school students."

// BuildPayload returns a chat completions request body.
func BuildPayload(model, prompt string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "messages.0.role", "user")
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	if body, err = sjson.SetBytes(body, "messages.0.content", prompt); err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	if body, err = sjson.SetBytes(body, "model", model); err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	return body, nil
}

// completionText extracts the first choice's content from a response body.
func completionText(body []byte) string {
	return gjson.GetBytes(body, "choices.0.message.content").String()
}
