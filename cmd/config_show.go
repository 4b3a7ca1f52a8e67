package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/clarityhq/clarity/internal/config"
)

// Keyring coordinates used when checking whether a credential is stored.
const keyringService = "clarity"
const keyringUser = "llm_api_key"

// configShowCmd represents the show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current Clarity configuration",
	Long: `Displays the currently loaded configuration values
from config files and environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := GetProvider()
		if err != nil {
			return fmt.Errorf("failed to get service provider: %w", err)
		}
		return configShowRunE(provider.Config, provider.Keyring, cmd.OutOrStdout())
	},
}

// configShowRunE contains the core logic for the 'config show' command.
func configShowRunE(cfgProvider ConfigProvider, keyringClient KeyringClient, writer io.Writer) error {
	cfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	fmt.Fprintln(writer, "Current Clarity Configuration:")
	fmt.Fprintf(writer, "  Listen Address: %s\n", cfg.ListenAddr)
	fmt.Fprintf(writer, "  LLM Provider:   %s\n", cfg.LLM.Provider)
	fmt.Fprintf(writer, "  Temperature:    %.2f\n", cfg.LLM.Temperature)
	fmt.Fprintf(writer, "  Timeout:        %s\n", cfg.Timeout())
	switch cfg.LLM.Provider {
	case "openai":
		fmt.Fprintf(writer, "    OpenAI Model: %s\n", cfg.LLM.OpenAI.ModelName)
		if cfg.LLM.OpenAI.BaseURL != "" {
			fmt.Fprintf(writer, "    OpenAI BaseURL: %s\n", cfg.LLM.OpenAI.BaseURL)
		}
	default:
		fmt.Fprintf(writer, "    (No specific settings shown for provider '%s')\n", cfg.LLM.Provider)
	}

	// Check if API key exists using the injected KeyringClient
	_, err = keyringClient.GetAPIKey(keyringService, keyringUser)
	apiKeyStatus := "Set (use 'clarity config set-key' to change)"
	if err != nil {
		if errors.Is(err, config.ErrAPIKeyNotFound) {
			apiKeyStatus = "Not Set (use 'clarity config set-key' to set)"
		} else {
			apiKeyStatus = fmt.Sprintf("Status Unknown (error checking keychain/env: %v)", err)
		}
	}
	fmt.Fprintf(writer, "  LLM API Key:    %s\n", apiKeyStatus) // Display status, not the key itself

	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
