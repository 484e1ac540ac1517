package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/api"
)

type echoAPI struct {
	subjects []string
}

func (e *echoAPI) Chat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	e.subjects = append(e.subjects, req.Subject)
	return &api.ChatResponse{Reply: "echo: " + req.Message}, nil
}

func TestRunLineChat(t *testing.T) {
	fake := &echoAPI{}
	in := strings.NewReader("hello\n\n/subject Math\n/subject Nope\nsum\n/quit\nignored\n")
	var out bytes.Buffer

	if err := runLineChat(context.Background(), fake, []string{"Coding", "Math"}, in, &out); err != nil {
		t.Fatalf("runLineChat: %v", err)
	}

	got := out.String()
	for _, want := range []string{"🤖 echo: hello", "Subject: Math", `Unknown subject "Nope".`, "🤖 echo: sum"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Errorf("lines after /quit were processed:\n%s", got)
	}
	if len(fake.subjects) != 2 || fake.subjects[0] != "Coding" || fake.subjects[1] != "Math" {
		t.Fatalf("subjects sent = %v", fake.subjects)
	}
}

func TestResolveServeTargets(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		all           bool
		web, telegram bool
		wantErr       bool
	}{
		{name: "default", web: true},
		{name: "telegram only", args: []string{"--telegram"}, telegram: true},
		{name: "both", args: []string{"--web", "--telegram"}, web: true, telegram: true},
		{name: "none", args: []string{"--web=false"}, wantErr: true},
		{name: "all", all: true, web: true, telegram: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{Use: "serve"}
			c.Flags().BoolVar(&serveWeb, "web", true, "")
			c.Flags().BoolVar(&serveTelegram, "telegram", false, "")
			if err := c.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			serveAll = tt.all
			defer func() { serveAll = false }()

			web, telegram, err := resolveServeTargets(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (web != tt.web || telegram != tt.telegram) {
				t.Fatalf("got web=%v telegram=%v, want web=%v telegram=%v", web, telegram, tt.web, tt.telegram)
			}
		})
	}
}

func TestParseAllowedIDs(t *testing.T) {
	ids := parseAllowedIDs(" 12, x, ,34 ")
	if len(ids) != 2 || ids[0] != 12 || ids[1] != 34 {
		t.Fatalf("parseAllowedIDs = %v", ids)
	}
}
