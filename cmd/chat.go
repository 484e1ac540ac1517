package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/linanwx/tutorbot/chat"
	"github.com/linanwx/tutorbot/client"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/render"
	"github.com/linanwx/tutorbot/tui"
)

var chatServer string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running tutorbot server",
	Long: `Open the terminal chat client against a tutorbot server.

On a terminal this starts the full-screen client. When input or output is
redirected it falls back to a line-oriented mode that reads one question
per line.

Examples:
  tutorbot chat
  tutorbot chat --server http://10.0.0.5:8000
  echo "What is 2+3?" | tutorbot chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "Server URL (default: client.server from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	c := client.New(serverURL(chatServer))

	ctx, stop := signalContext()
	defer stop()

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		app := tui.NewApp(ctx, tui.Options{API: c, Subjects: c.Subjects})
		return tui.Run(ctx, app)
	}
	return runLineChat(ctx, c, c.Subjects(ctx), cmd.InOrStdin(), cmd.OutOrStdout())
}

func serverURL(flag string) string {
	if s := strings.TrimSpace(flag); s != "" {
		return s
	}
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return cfg.Client.Server
}

// lineSink prints transcript changes as plain text.
type lineSink struct {
	out io.Writer
}

func (s lineSink) Appended(m render.Message) {
	if m.Sender == render.Bot {
		fmt.Fprintln(s.out, render.Plain(m))
	}
}

func (s lineSink) PendingChanged(pending bool) {
	if pending {
		fmt.Fprintln(s.out, "🤖 …")
	}
}

func (lineSink) BusyChanged(bool) {}

func runLineChat(ctx context.Context, api chat.API, subjects []string, in io.Reader, out io.Writer) error {
	ctrl := chat.NewController(api, subjects, lineSink{out: out})
	fmt.Fprintf(out, "Subjects: %s (current: %s). Type /subject NAME to switch, /quit to exit.\n",
		strings.Join(ctrl.State().Subjects, ", "), ctrl.Subject())

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/subject "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/subject "))
			if !ctrl.SelectSubject(name) {
				fmt.Fprintf(out, "Unknown subject %q.\n", name)
				continue
			}
			fmt.Fprintf(out, "Subject: %s\n", name)
			continue
		}
		ctrl.Submit(ctx, line)
	}
	return scanner.Err()
}
