package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/agent"
	"github.com/linanwx/tutorbot/chat"
	"github.com/linanwx/tutorbot/client"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/render"
)

var (
	askMessage string
	askSubject string
	askServer  string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a single question and print the reply",
	Long: `Send one question and print the rendered reply.

Without --server the question is answered in-process using the local
config; with --server it is sent to a running tutorbot server.

Examples:
  tutorbot ask -m "What is a closure?"
  tutorbot ask -m "12*(3+4)" --subject "Agent Mode"
  tutorbot ask -m "Explain photosynthesis" --subject Science --server http://127.0.0.1:8000`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMessage, "message", "m", "", "Question to ask (required)")
	askCmd.Flags().StringVar(&askSubject, "subject", "", "Subject tab (default: tutor.defaultSubject)")
	askCmd.Flags().StringVar(&askServer, "server", "", "Send to a running server instead of answering locally")
	_ = askCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	var (
		backend  chat.API
		subjects []string
	)
	if strings.TrimSpace(askServer) != "" {
		c := client.New(askServer)
		backend, subjects = c, c.Subjects(ctx)
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w\nRun 'tutorbot onboard' to initialize", err)
		}
		backend, subjects = agent.New(config.StaticStore(cfg)), cfg.SubjectNames()
	}

	ctrl := chat.NewController(backend, subjects, nil)
	if askSubject != "" && !ctrl.SelectSubject(askSubject) {
		return fmt.Errorf("unknown subject %q (available: %s)", askSubject, strings.Join(subjects, ", "))
	}

	reply, ok := ctrl.Submit(ctx, askMessage)
	if !ok {
		return fmt.Errorf("message is empty")
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Plain(reply))
	return nil
}
