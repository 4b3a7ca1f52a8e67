package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

// configLocateRunE contains the core logic for the config locate command.
// It uses dependency injection for testability.
func configLocateRunE(cfgProvider ConfigProvider, out io.Writer) error {
	configDir, err := cfgProvider.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("error ensuring config directory: %w", err)
	}

	fmt.Fprintf(out, "Configuration directory: %s\n", configDir)
	fmt.Fprintln(out, "Expected configuration files:")
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, "config.yaml"))
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, "prompts.yaml"))

	return nil
}

// locateCmd represents the locate command
var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate Clarity configuration files",
	Long: `Displays the paths to the configuration files being used by Clarity.
This command helps you find where Clarity is looking for its settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := GetProvider()
		if err != nil {
			return fmt.Errorf("failed to initialize provider: %w", err)
		}
		return configLocateRunE(provider.Config, cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(locateCmd)
}
