package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/spf13/viper"

	"github.com/clarityhq/clarity/internal/prompt"
)

const (
	// DefaultConfigFileName is the standard name for the main configuration file.
	DefaultConfigFileName = "config.yaml"
	// DefaultPromptsFileName is the standard name for the prompt template override file.
	DefaultPromptsFileName = "prompts.yaml"
	// DefaultConfigDirName is the standard name for the configuration directory within the user's home directory.
	DefaultConfigDirName = ".clarity"
	// ConfigDirEnvVar is the environment variable used to override the default configuration directory path.
	ConfigDirEnvVar = "CLARITY_CONFIG_DIR"
)

// Bounds applied to the configured upstream timeout; values outside the
// observed band are clamped rather than rejected.
const (
	minTimeoutSeconds = 9
	maxTimeoutSeconds = 20
)

// EnsureConfigDir checks if the configuration directory exists, creating it if necessary.
// It prioritizes baseDir if provided. If baseDir is empty, it checks the CLARITY_CONFIG_DIR
// environment variable. If the environment variable is also empty or unset, it defaults to ~/.clarity.
// It returns the validated configuration directory path or an error if creation/validation fails.
func EnsureConfigDir(baseDir string) (string, error) {
	var configDirPath string

	if baseDir != "" {
		configDirPath = baseDir
		log.Debug().Str("path", configDirPath).Msg("Using provided base directory path")
	} else {
		envDir := os.Getenv(ConfigDirEnvVar)
		if envDir != "" {
			configDirPath = envDir
			log.Debug().Str("path", configDirPath).Str("env_var", ConfigDirEnvVar).Msg("Using config directory path from environment variable")
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get user home directory: %w", err)
			}
			configDirPath = filepath.Join(homeDir, DefaultConfigDirName)
			log.Debug().Str("path", configDirPath).Msg("Using default config directory path")
		}
	}

	info, err := os.Stat(configDirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configDirPath).Msg("Config directory does not exist, attempting to create")
			if mkdirErr := os.MkdirAll(configDirPath, 0700); mkdirErr != nil {
				log.Error().Err(mkdirErr).Str("path", configDirPath).Msg("Failed to create config directory")
				return "", fmt.Errorf("%w: %w", ErrConfigDirCreate, mkdirErr)
			}
			return configDirPath, nil
		}
		log.Error().Err(err).Str("path", configDirPath).Msg("Failed to stat config directory path")
		return "", fmt.Errorf("%w: %w", ErrConfigDirStat, err)
	}

	if !info.IsDir() {
		log.Error().Str("path", configDirPath).Msg("Config path exists but is not a directory")
		return "", ErrConfigDirNotDir
	}

	return configDirPath, nil
}

// OpenAIConfig holds configuration specific to the OpenAI-compatible upstream.
type OpenAIConfig struct {
	ModelName string `mapstructure:"model_name"`
	BaseURL   string `mapstructure:"base_url"` // Optional custom base URL
	// APIKey is handled separately via keyring/env var (GetAPIKey)
}

// LLMConfig holds configuration for the upstream generative-text provider
// and common generation settings.
type LLMConfig struct {
	Provider       string       `mapstructure:"provider"` // e.g. "openai"
	Temperature    float32      `mapstructure:"temperature"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds"`
	OpenAI         OpenAIConfig `mapstructure:"openai"`
}

// AppConfig holds the overall application configuration.
type AppConfig struct {
	ListenAddr string    `mapstructure:"listen_addr"` // address the proxy daemon binds
	LLM        LLMConfig `mapstructure:"llm"`
}

// Timeout returns the configured upstream timeout as a duration, clamped
// to the supported band.
func (c *AppConfig) Timeout() time.Duration {
	secs := c.LLM.TimeoutSeconds
	if secs < minTimeoutSeconds {
		secs = minTimeoutSeconds
	}
	if secs > maxTimeoutSeconds {
		secs = maxTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// LoadConfig loads the application configuration from the config file
// (e.g. ~/.clarity/config.yaml or baseDir/config.yaml), environment
// variables (CLARITY_*), and defaults. If baseDir is empty, it uses the
// default ~/.clarity.
func LoadConfig(baseDir string) (*AppConfig, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure config directory: %w", err)
	}

	v := viper.New()

	v.SetDefault("listen_addr", ":8393")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.9)
	v.SetDefault("llm.timeout_seconds", 15)
	v.SetDefault("llm.openai.model_name", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "")
	// No default for API key - use GetAPIKey() for retrieval

	configPath := filepath.Join(configDir, DefaultConfigFileName)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	log.Debug().Str("path", configPath).Msg("Attempting to load config file")

	v.SetEnvPrefix("CLARITY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys like llm.openai.model_name to CLARITY_LLM_OPENAI_MODEL_NAME

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Str("path", configPath).Msg("Config file not found. Using defaults and environment variables.")
		} else {
			log.Error().Err(err).Str("path", configPath).Msg("Failed to read config file")
			return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
		}
	}

	var cfg AppConfig
	err = v.Unmarshal(&cfg)
	if err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("Failed to unmarshal config file")
		return nil, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	log.Debug().Str("path", configPath).Interface("config", cfg).Msg("Unmarshalled config successfully")

	return &cfg, nil
}

// LoadPromptTemplates loads prompt template overrides from the prompts
// file (e.g. ~/.clarity/prompts.yaml or baseDir/prompts.yaml). Missing
// file or missing fields fall back to the built-in templates. It returns
// an error only if the file exists but cannot be read or parsed.
func LoadPromptTemplates(baseDir string) (prompt.Templates, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return prompt.Default(), fmt.Errorf("failed to ensure config directory for prompts: %w", err)
	}

	promptsPath := filepath.Join(configDir, DefaultPromptsFileName)
	log.Debug().Str("path", promptsPath).Msg("Attempting to load prompts file")

	fileBytes, err := os.ReadFile(promptsPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", promptsPath).Msg("Prompts file not found, using built-in templates")
			return prompt.Default(), nil
		}
		log.Error().Err(err).Str("path", promptsPath).Msg("Failed to read prompts file")
		return prompt.Default(), fmt.Errorf("%w: %w", ErrPromptsRead, err)
	}

	var tpl prompt.Templates
	if err := yaml.Unmarshal(fileBytes, &tpl); err != nil {
		log.Error().Err(err).Str("path", promptsPath).Msg("Failed to parse prompts file")
		return prompt.Default(), fmt.Errorf("%w: %w", ErrPromptsParse, err)
	}
	log.Debug().Str("path", promptsPath).Msg("Parsed prompts file successfully")

	return tpl, nil
}

// --- Default File Creation ---

const defaultConfigYAML = `# User-specific configuration for the Clarity prompt optimizer.
# Located at ~/.clarity/config.yaml

# Address the proxy daemon listens on ('clarity serve').
listen_addr: ":8393"

# Configuration for the upstream generative-text API.
llm:
  # Upstream provider ("openai" or any OpenAI-compatible endpoint).
  provider: "openai"

  # Sampling temperature for all three prompt variants.
  temperature: 0.9

  # Hard per-call timeout in seconds (clamped to 9-20).
  timeout_seconds: 15

  openai:
    # Name or identifier of the model to use.
    model_name: "gpt-4o-mini"
    # Optional: custom base URL for OpenAI-compatible endpoints.
    # base_url: ""
`

const defaultPromptsYAML = `# ~/.clarity/prompts.yaml
# Optional overrides for the instruction preambles of the three prompt
# variants. Any field left empty (or removed) keeps the built-in default.
#
# fast: |
#   Rewrite the user's idea into one polished instruction...
# clarify_questions: |
#   Identify the main ambiguities and turn each into a multiple-choice question...
# clarify_final: |
#   Synthesize one final instruction incorporating every choice...
`

// writeFileIfNotExists checks if a file exists. If not, it writes the provided content.
func writeFileIfNotExists(filePath string, content string, perm os.FileMode) error {
	_, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", filePath).Msg("File does not exist, attempting to write default content")
			if errWrite := os.WriteFile(filePath, []byte(content), perm); errWrite != nil {
				log.Error().Err(errWrite).Str("path", filePath).Msg("Failed to write default file content")
				return fmt.Errorf("%w: %w", ErrDefaultFileWrite, errWrite)
			}
			log.Info().Str("path", filePath).Msg("Successfully wrote default file content")
			return nil
		}
		log.Error().Err(err).Str("path", filePath).Msg("Failed to stat file path")
		return fmt.Errorf("%w: %w", ErrDefaultFileStat, err)
	}
	log.Debug().Str("path", filePath).Msg("File already exists, no action needed")
	return nil
}

// CreateDefaultConfigFiles ensures the configuration directory exists
// (using default or baseDir) and creates default configuration files
// (config.yaml, prompts.yaml) within it if they do not already exist.
func CreateDefaultConfigFiles(baseDir string) error {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}

	filesToCreate := []struct {
		name    string
		content string
		perm    os.FileMode
	}{
		{DefaultConfigFileName, defaultConfigYAML, 0600},
		{DefaultPromptsFileName, defaultPromptsYAML, 0644},
	}

	for _, file := range filesToCreate {
		filePath := filepath.Join(configDir, file.name)
		log.Debug().Str("file", file.name).Msg("Ensuring default file")
		if err := writeFileIfNotExists(filePath, file.content, file.perm); err != nil {
			return err
		}
	}

	return nil
}

// --- API Key Handling ---

const (
	keyringServiceName = "clarity"
	keyringUserName    = "llm_api_key"
	// EnvAPIKeyName defines the environment variable name used to look up the LLM API key
	// as a fallback if it's not found in the OS keychain.
	EnvAPIKeyName = "CLARITY_LLM_API_KEY"
)

// ErrAPIKeyNotFound is returned when the API key cannot be found in any source.
var ErrAPIKeyNotFound = errors.New("LLM API key not found in OS keychain or environment variable " + EnvAPIKeyName)

// GetAPIKey retrieves the upstream API key. It first tries the OS
// keychain/keyring using the service "clarity" and user "llm_api_key".
// If not found there, it checks the environment variable CLARITY_LLM_API_KEY.
// If not found in either, it returns ErrAPIKeyNotFound.
func GetAPIKey() (string, error) {
	log.Debug().Str("service", keyringServiceName).Str("user", keyringUserName).Msg("Attempting to get API key from keychain")
	key, err := keyring.Get(keyringServiceName, keyringUserName)
	if err == nil {
		log.Debug().Msg("API key retrieved successfully (from keychain)")
		return key, nil
	}

	if !errors.Is(err, keyring.ErrNotFound) {
		log.Error().Err(err).Str("service", keyringServiceName).Str("user", keyringUserName).Msg("Error reading key from keychain")
		return "", fmt.Errorf("%w: %w", ErrKeyringGet, err)
	}

	log.Warn().Str("service", keyringServiceName).Str("user", keyringUserName).Msgf("API key not found in keychain, checking environment variable %s", EnvAPIKeyName)
	key = os.Getenv(EnvAPIKeyName)
	if key != "" {
		log.Debug().Msg("API key retrieved successfully (from env var)")
		return key, nil
	}

	log.Error().Str("env_var", EnvAPIKeyName).Msg("API key not found in environment variable either.")
	return "", ErrAPIKeyNotFound
}

// SetAPIKey stores the upstream API key securely in the OS keychain/keyring.
func SetAPIKey(apiKey string) error {
	log.Debug().Str("service", keyringServiceName).Str("user", keyringUserName).Msg("Attempting to set API key in keychain")
	err := keyring.Set(keyringServiceName, keyringUserName, apiKey)
	if err != nil {
		log.Error().Err(err).Str("service", keyringServiceName).Str("user", keyringUserName).Msg("Failed to set API key in keychain")
		return fmt.Errorf("%w: %w", ErrKeyringSet, err)
	}
	log.Info().Str("service", keyringServiceName).Str("user", keyringUserName).Msg("API key stored successfully in keychain")
	return nil
}
