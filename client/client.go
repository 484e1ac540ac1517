// Package client talks to a tutorbot server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/logger"
)

// Client calls the /config and /chat endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL. The chat call has no
// client-side timeout; it resolves when the server answers or the transport
// gives up.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Subjects fetches the subject list, falling back to api.FallbackSubjects
// when the endpoint is unavailable, malformed or empty.
func (c *Client) Subjects(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/config", nil)
	if err != nil {
		return fallbackSubjects()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("config fetch failed, using fallback subjects", "err", err)
		return fallbackSubjects()
	}
	defer resp.Body.Close()

	var body struct {
		Subjects []string `json:"subjects"`
	}
	if resp.StatusCode/100 != 2 || json.NewDecoder(resp.Body).Decode(&body) != nil || len(body.Subjects) == 0 {
		return fallbackSubjects()
	}
	return body.Subjects
}

func fallbackSubjects() []string {
	return append([]string(nil), api.FallbackSubjects...)
}

// Chat posts one message. A non-2xx status yields *api.HTTPError; transport
// failures are returned as-is. Application errors are reported in the
// response's Error field.
func (c *Client) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, api.NewHTTPError(resp.StatusCode, api.ReasonPhrase(resp.StatusCode, resp.Status), string(body))
	}

	var out api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &out, nil
}
