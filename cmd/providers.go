package cmd

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	keyring "github.com/zalando/go-keyring"

	"github.com/clarityhq/clarity/internal/config"
	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
	"github.com/clarityhq/clarity/internal/server"
)

// --- Concrete Implementations of Shared Interfaces ---

// DefaultConfigProvider implements the ConfigProvider interface using the
// actual config package functions. Exported for potential use in tests directly.
type DefaultConfigProvider struct{}

func (p *DefaultConfigProvider) LoadConfig() (*config.AppConfig, error) {
	return config.LoadConfig("") // Pass empty string for default behavior
}

func (p *DefaultConfigProvider) LoadPromptTemplates() (prompt.Templates, error) {
	return config.LoadPromptTemplates("")
}

func (p *DefaultConfigProvider) GetAPIKey() (string, error) {
	return config.GetAPIKey()
}

// CreateDefaultConfigFiles calls the underlying config function to create default files.
// It ignores the configDir parameter as the underlying function determines the path.
func (p *DefaultConfigProvider) CreateDefaultConfigFiles(configDir string) error {
	return config.CreateDefaultConfigFiles("")
}

// EnsureConfigDir calls the underlying config function to ensure the config directory exists.
func (p *DefaultConfigProvider) EnsureConfigDir() (string, error) {
	return config.EnsureConfigDir("")
}

// --- Keyring Client Implementation ---

// defaultKeyringClient implements the KeyringClient interface using the actual keyring package.
type defaultKeyringClient struct{}

// Set calls the underlying keyring package's Set function.
func (k *defaultKeyringClient) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// GetAPIKey calls the underlying config function to retrieve the API key.
// The service and user parameters are kept for interface compatibility;
// the config function owns the actual lookup order.
func (k *defaultKeyringClient) GetAPIKey(service, user string) (string, error) {
	return config.GetAPIKey()
}

// --- Upstream Client Factory ---

// NewOpenAIFactory returns a server.ClientFactory that builds an
// OpenAI-backed adapter from the loaded configuration, bound to the given
// per-request API key. The proxy calls it once per inbound request so a
// request-supplied key can override the configured credential.
func NewOpenAIFactory(cfg *config.AppConfig, templates prompt.Templates) server.ClientFactory {
	return func(apiKey string) (llm.Client, error) {
		sdkConfig := openai.DefaultConfig(apiKey)
		if cfg.LLM.OpenAI.BaseURL != "" {
			sdkConfig.BaseURL = cfg.LLM.OpenAI.BaseURL
			Log.Debug().Str("base_url", sdkConfig.BaseURL).Msg("Using custom OpenAI BaseURL")
		}
		sdkClient := openai.NewClientWithConfig(sdkConfig)
		return llm.NewOpenAIClient(sdkClient, cfg.LLM.OpenAI.ModelName, cfg.LLM.Temperature, cfg.Timeout(), templates)
	}
}

// --- Central Provider ---

// Provider serves as a central dependency injection container, aggregating
// the service interfaces required by the application's commands. This
// structure simplifies passing dependencies down the call stack and
// facilitates mocking during testing.
type Provider struct {
	Config    ConfigProvider
	Keyring   KeyringClient
	AppConfig *config.AppConfig
	Templates prompt.Templates
	LLM       llm.Client // may be nil when no credential is available
}

// GetProvider is the factory function responsible for initializing and
// returning a fully configured Provider instance. Errors during critical
// initialization steps (like loading AppConfig) are returned. Warnings are
// logged for non-critical failures (like a missing API key) so commands
// that don't need the upstream still function.
func GetProvider() (*Provider, error) {
	cfgProvider := &DefaultConfigProvider{}
	appCfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load application config: %w", err)
	}

	templates, err := cfgProvider.LoadPromptTemplates()
	if err != nil {
		Log.Warn().Err(err).Msg("Failed to load prompt template overrides; using built-in templates.")
		templates = prompt.Default()
	}

	keyringClient := &defaultKeyringClient{}

	// Initialize the upstream client when a credential is available.
	var llmClient llm.Client
	apiKey, keyErr := cfgProvider.GetAPIKey()
	if keyErr != nil {
		Log.Warn().Err(keyErr).Msg("Failed to get LLM API key during provider setup. Upstream operations might fail.")
	} else {
		factory := NewOpenAIFactory(appCfg, templates)
		llmClient, err = factory(apiKey)
		if err != nil {
			Log.Warn().Err(err).Msg("Failed to initialize upstream client. Upstream operations might fail.")
		}
	}

	provider := &Provider{
		Config:    cfgProvider,
		Keyring:   keyringClient,
		AppConfig: appCfg,
		Templates: templates,
		LLM:       llmClient,
	}

	Log.Debug().Msg("Service Provider initialized successfully.")
	return provider, nil
}
