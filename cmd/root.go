// Package cmd implements the tutorbot command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/logger"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "tutorbot",
	Short: "An offline AI tutor with a browser widget, terminal client and Telegram bot",
	Long: `tutorbot answers student questions through a local or hosted LLM.

Run 'tutorbot onboard' to create a config, 'tutorbot serve' to start the
server and 'tutorbot chat' to talk to it from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		config.SetConfigPath(configFlag)
		initLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.tutorbot/config.yaml, or $TUTORBOT_CONFIG)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogger() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	dir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
