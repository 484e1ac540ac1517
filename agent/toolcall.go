package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

const toolCallOpen = "<tool_call>"

var toolCallRe = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)

// ToolCall is a parsed <tool_call> directive.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// ExtractToolCall returns the JSON text of the first tool call in text.
// A properly closed <tool_call>{...}</tool_call> wins; otherwise the first
// brace-balanced object after an unclosed <tool_call> tag is used.
func ExtractToolCall(text string) (string, bool) {
	if m := toolCallRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}

	i := strings.Index(text, toolCallOpen)
	if i < 0 {
		return "", false
	}
	j := strings.IndexByte(text[i:], '{')
	if j < 0 {
		return "", false
	}
	j += i

	depth := 0
	for k := j; k < len(text); k++ {
		switch text[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[j : k+1], true
			}
		}
	}
	return "", false
}

// ParseToolCall decodes {"name": ..., "arguments": {...}}.
func ParseToolCall(raw string) (ToolCall, error) {
	if !gjson.Valid(raw) {
		return ToolCall{}, errors.New("invalid tool call JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return ToolCall{}, errors.New("tool call is not a JSON object")
	}

	call := ToolCall{
		Name:      doc.Get("name").String(),
		Arguments: json.RawMessage("{}"),
	}
	if args := doc.Get("arguments"); args.Exists() && args.Type != gjson.Null {
		if !args.IsObject() {
			return call, errors.New("tool arguments must be a JSON object")
		}
		call.Arguments = json.RawMessage(args.Raw)
	}
	return call, nil
}
