package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/provider"
)

var onboardForce bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize tutorbot configuration",
	Long:  `Create the tutorbot configuration directory, notes directory and default config file.`,
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVar(&onboardForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(onboardCmd)
}

// providerHints describes where each provider's endpoint lives.
var providerHints = map[string]string{
	"openai":    "Any OpenAI-compatible server: llama.cpp, vLLM, Ollama or api.openai.com",
	"anthropic": "Create a key at https://console.anthropic.com",
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil && !onboardForce {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or run 'tutorbot onboard --force'.")
		return nil
	}

	cfg := config.DefaultConfig()

	var (
		selectedProvider = cfg.LLM.Provider
		configureTG      bool
	)

	// Step 1: select provider
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your LLM backend").
				Description("A local llama.cpp server speaks the openai protocol.").
				Options(buildProviderOptions()...).
				Value(&selectedProvider),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: endpoint, model and key
	model, apiURL, apiKey := defaultsForProvider(cfg, selectedProvider)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API URL").
				Description(providerHints[selectedProvider]).
				Validate(requireValue("API URL")).
				Value(&apiURL),
			huh.NewInput().
				Title("Model").
				Description("Suggested: "+strings.Join(provider.SupportedModelsForProvider(selectedProvider), ", ")).
				Validate(requireValue("model")).
				Value(&model),
			huh.NewInput().
				Title("API key").
				Description("Leave empty for local servers or to use the provider's environment variable.").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 3: optional Telegram
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Configure Telegram bot?").
				Description("You can skip and configure later in config.yaml.").
				Value(&configureTG),
		),
	).Run()
	if err != nil {
		return err
	}

	var tgToken, tgAllowedIDs string
	if configureTG {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Telegram Bot Token").
					Description("Open @BotFather on Telegram, run /newbot, and paste the token here.").
					Validate(requireValue("bot token")).
					Value(&tgToken),
				huh.NewInput().
					Title("Allowed User IDs").
					Description("Open @userinfobot for each user, paste their IDs comma-separated. Leave empty to allow all.").
					Value(&tgAllowedIDs),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// --- apply config ---

	cfg.LLM.Provider = selectedProvider
	cfg.LLM.Model = strings.TrimSpace(model)
	cfg.LLM.APIURL = strings.TrimSpace(apiURL)
	cfg.LLM.APIKey = strings.TrimSpace(apiKey)
	if configureTG {
		cfg.Telegram = &config.TelegramConfig{
			Token:      strings.TrimSpace(tgToken),
			AllowedIDs: parseAllowedIDs(tgAllowedIDs),
		}
	}

	if err := cfg.SaveFile(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := os.MkdirAll(cfg.Tutor.NotesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	fmt.Println()
	fmt.Println("tutorbot initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Notes:", cfg.Tutor.NotesDir)
	fmt.Println("  Provider:", cfg.LLM.Provider)
	fmt.Println("  Model:", cfg.LLM.Model)
	fmt.Println()
	fmt.Println("Run 'tutorbot serve' to start.")
	return nil
}

func buildProviderOptions() []huh.Option[string] {
	names := provider.SupportedProviders()
	options := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		label := name
		if name == "openai" {
			label += " [Recommended for local models]"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

// defaultsForProvider pre-fills the endpoint form. Switching away from the
// default backend clears the local llama.cpp URL.
func defaultsForProvider(cfg *config.Config, name string) (model, apiURL, apiKey string) {
	model, apiURL, apiKey = cfg.LLM.Model, cfg.LLM.APIURL, cfg.LLM.APIKey
	if name == cfg.LLM.Provider {
		return model, apiURL, apiKey
	}
	if models := provider.SupportedModelsForProvider(name); len(models) > 0 {
		model = models[0]
	}
	if name == "anthropic" {
		apiURL = "https://api.anthropic.com"
	}
	return model, apiURL, apiKey
}

func requireValue(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func parseAllowedIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
