// Package api defines the JSON contract between the chat widget, the
// terminal client and the tutorbot server.
package api

import (
	"fmt"
	"strconv"
)

// FallbackSubjects is used when GET /config is missing, malformed or empty.
var FallbackSubjects = []string{"Coding", "Math", "Science", "English", "Agent Mode"}

// DefaultSubject is selected until the user picks another tab.
const DefaultSubject = "Coding"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	Subject string `json:"subject"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Reply      string `json:"reply,omitempty"`
	Tool       string `json:"tool,omitempty"`
	ToolResult any    `json:"tool_result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ConfigResponse is the body returned by GET /config.
type ConfigResponse struct {
	APIURL         string            `json:"api_url"`
	Model          string            `json:"model"`
	Timeout        int               `json:"timeout"`
	SubjectPrimers map[string]string `json:"subject_primers"`
	Subjects       []string          `json:"subjects"`
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Bad Gateway"
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return strconv.Itoa(e.StatusCode) + " " + e.Status
}

// NewHTTPError builds an HTTPError from a status code and body.
func NewHTTPError(code int, reason, body string) *HTTPError {
	return &HTTPError{StatusCode: code, Status: reason, Body: body}
}

// ReasonPhrase strips the numeric prefix from an http.Response Status
// ("502 Bad Gateway" -> "Bad Gateway").
func ReasonPhrase(code int, status string) string {
	prefix := fmt.Sprintf("%d ", code)
	if len(status) > len(prefix) && status[:len(prefix)] == prefix {
		return status[len(prefix):]
	}
	return status
}
