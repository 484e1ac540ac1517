package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/agent"
	"github.com/linanwx/tutorbot/channel"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tutor server and channel integrations",
	Long: `Start tutorbot as a long-running service.

Supported channels:
  - web: chat widget, JSON API (/config, /chat) and live websocket (default)
  - telegram: Telegram bot (requires telegram.token)

The config file is watched; prompt, subject and model edits apply to the
next request without a restart.

Examples:
  tutorbot serve              # Web channel only
  tutorbot serve --telegram   # Telegram bot only
  tutorbot serve --all        # All configured channels`,
	RunE: runServe,
}

var (
	serveTelegram bool
	serveAll      bool
	serveWeb      bool
)

func init() {
	serveCmd.Flags().BoolVar(&serveWeb, "web", true, "Enable web channel (default: true)")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", false, "Enable Telegram bot channel")
	serveCmd.Flags().BoolVar(&serveAll, "all", false, "Enable all configured channels")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	store, err := config.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	web, telegram, err := resolveServeTargets(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if err := store.Watch(ctx); err != nil {
		logger.Warn("config hot reload disabled", "err", err)
	}

	tutor := agent.New(store)
	manager := channel.NewManager()

	if web {
		manager.Register(channel.NewWebChannel(store, tutor))
		logger.Info("Web channel enabled", "addr", store.Get().Server.Addr)
	}
	if telegram {
		if ch := channel.NewTelegramChannel(store, tutor); ch != nil {
			manager.Register(ch)
			logger.Info("Telegram channel enabled")
		}
	}
	if len(manager.Names()) == 0 {
		return fmt.Errorf("no channels could be started; check config at %s", path)
	}

	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}
	logger.Info("tutorbot service started", "channels", manager.Names())
	fmt.Println("tutorbot is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := manager.StopAll(); err != nil {
		logger.Error("error stopping channels", "err", err)
	}
	logger.Info("tutorbot service stopped")
	return nil
}

func resolveServeTargets(cmd *cobra.Command) (web, telegram bool, err error) {
	if serveAll {
		return true, true, nil
	}
	flags := cmd.Flags()
	if !flags.Changed("web") && !flags.Changed("telegram") {
		return true, false, nil
	}

	// Any explicit channel flag -> use explicit switches only.
	if flags.Changed("web") {
		web = serveWeb
	}
	if flags.Changed("telegram") {
		telegram = serveTelegram
	}
	if !web && !telegram {
		return false, false, fmt.Errorf("no channels enabled; use --web, --telegram, or --all")
	}
	return web, telegram, nil
}
