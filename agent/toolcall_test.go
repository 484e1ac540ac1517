package agent

import (
	"testing"

	"github.com/linanwx/tutorbot/api"
)

func apiRequest(msg, subject string) api.ChatRequest {
	return api.ChatRequest{Message: msg, Subject: subject}
}

func TestExtractToolCall(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"none", "just an answer", "", false},
		{"strict", `<tool_call>{"name":"calculator","arguments":{"expression":"8/2"}}</tool_call>`, `{"name":"calculator","arguments":{"expression":"8/2"}}`, true},
		{"strict with spaces", "<tool_call>\n  {\"name\":\"x\"}  \n</tool_call>", `{"name":"x"}`, true},
		{"unclosed", `text <tool_call>{"name":"search_notes","arguments":{"query":"ch 3"}} trailing`, `{"name":"search_notes","arguments":{"query":"ch 3"}}`, true},
		{"unclosed unbalanced", `<tool_call>{"name":"x"`, "", false},
		{"tag without brace", `<tool_call>nothing`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractToolCall(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ExtractToolCall(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseToolCall(t *testing.T) {
	call, err := ParseToolCall(`{"name":"calculator","arguments":{"expression":"1+2"}}`)
	if err != nil {
		t.Fatal(err)
	}
	if call.Name != "calculator" || string(call.Arguments) != `{"expression":"1+2"}` {
		t.Fatalf("call = %+v", call)
	}

	call, err = ParseToolCall(`{"name":"search_notes"}`)
	if err != nil || string(call.Arguments) != "{}" {
		t.Fatalf("call = %+v, err = %v", call, err)
	}

	for _, bad := range []string{`{"name":`, `[1,2]`, `{"name":"x","arguments":"oops"}`} {
		if _, err := ParseToolCall(bad); err == nil {
			t.Fatalf("ParseToolCall(%q) succeeded", bad)
		}
	}
}
