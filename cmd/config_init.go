package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Clarity configuration",
	Long: `Creates the default configuration directory and files if they don't exist.
This command ensures that the necessary configuration structure
(config.yaml and prompts.yaml) is in place for Clarity to function.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := GetProvider()
		if err != nil {
			log.Error().Err(err).Msg("Failed to get service provider")
			return fmt.Errorf("failed to get service provider: %w", err)
		}
		return configInitRunE(provider.Config, cmd.OutOrStdout(), cmd, args)
	},
}

func init() {
	configCmd.AddCommand(initCmd)
}

// configInitRunE contains the core logic for the config init command.
// It accepts dependencies for testability.
func configInitRunE(configProvider ConfigProvider, writer io.Writer, cmd *cobra.Command, args []string) error {
	log.Info().Msg("Initializing configuration...")
	err := configProvider.CreateDefaultConfigFiles("")
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize configuration files")
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	log.Info().Msg("Configuration initialization complete.")
	fmt.Fprintln(writer, "Configuration directory and default files ensured.")
	return nil
}
