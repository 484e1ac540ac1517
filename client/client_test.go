package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/tutorbot/api"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []string
	}{
		{
			name: "from server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"subjects":["History","Art"]}`))
			},
			want: []string{"History", "Art"},
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"subjects":[]}`))
			},
			want: api.FallbackSubjects,
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"subjects":"Math"}`))
			},
			want: api.FallbackSubjects,
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			want: api.FallbackSubjects,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusInternalServerError)
			},
			want: api.FallbackSubjects,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			assert.Equal(t, tt.want, New(srv.URL).Subjects(context.Background()))
		})
	}
}

func TestSubjectsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	assert.Equal(t, api.FallbackSubjects, New(url).Subjects(context.Background()))
}

func TestChatSendsMessageAndSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.ChatRequest{Message: "2+2", Subject: "Math"}, req)
		w.Write([]byte(`{"reply":"4","tool":"calculator","tool_result":"4"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL + "/").Chat(context.Background(), api.ChatRequest{Message: "2+2", Subject: "Math"})
	require.NoError(t, err)
	assert.Equal(t, "4", resp.Reply)
	assert.Equal(t, "calculator", resp.Tool)
	assert.Equal(t, "4", resp.ToolResult)
}

func TestChatHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), api.ChatRequest{Message: "hi"})
	var httpErr *api.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 502, httpErr.StatusCode)
	assert.Equal(t, "502 Bad Gateway", httpErr.Error())
}

func TestChatHTTPErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Empty message"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), api.ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, `{"error":"Empty message"}`, err.Error())
}

func TestChatBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), api.ChatRequest{Message: "hi"})
	require.Error(t, err)
	var httpErr *api.HTTPError
	assert.False(t, errors.As(err, &httpErr))
}
