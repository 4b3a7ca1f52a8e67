package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set during build time (e.g., via ldflags)
// Default is "dev" for local development.
var version = "dev"

var (
	logLevel string
	// Log is the globally configured zerolog logger instance used throughout the cmd package.
	// It's initialized in rootCmd's PersistentPreRunE based on the --log-level flag.
	Log zerolog.Logger
)

// configureLogger sets up the global zerolog logger based on the logLevel flag.
func configureLogger(levelStr string) error {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Warn().Msgf("Invalid log level '%s', defaulting to 'info'", levelStr)
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	Log = log.Logger.With().Timestamp().Logger()

	Log.Debug().Msgf("Log level set to '%s'", level.String())
	return nil
}

// persistentPreRunLogic contains the logic for PersistentPreRunE.
func persistentPreRunLogic(cmd *cobra.Command, args []string) error {
	showVersion, _ := cmd.Flags().GetBool("version")
	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	return configureLogger(logLevel)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clarity",
	Short: "Clarity - turn rough ideas into polished LLM prompts",
	Long: `Clarity turns a rough idea into a polished natural-language prompt
for a generative-text API, optionally through an intermediate
multiple-choice clarification step. It runs as a proxy daemon
('clarity serve') or as a one-shot optimizer ('clarity optimize').`,
	PersistentPreRunE: persistentPreRunLogic,
}

// Execute is the main entry point for the Cobra CLI application.
// It parses command-line arguments, executes the appropriate command,
// handles flag parsing, and manages error reporting.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// Ensure logger is initialized even if PersistentPreRunE failed early
		if Log.GetLevel() == zerolog.Disabled {
			_ = configureLogger("info")
		}
		Log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:
  $ source <(clarity completion bash)

Zsh:
  $ clarity completion zsh > "${fpath[1]}/_clarity"

Fish:
  $ clarity completion fish | source

PowerShell:
  PS> clarity completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell type %q", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Set log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Bool("version", false, "Show application version")

	// Child commands like serveCmd, optimizeCmd, configCmd are added via
	// their own init() functions.
	rootCmd.AddCommand(completionCmd)
}
