package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarityhq/clarity/internal/prompt"
)

func TestEnsureConfigDir(t *testing.T) {
	t.Run("DirectoryDoesNotExist", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "conf")

		returnedDir, err := EnsureConfigDir(tempDir)
		require.NoError(t, err, "EnsureConfigDir should not return an error when creating the directory")
		require.DirExists(t, tempDir, "Base directory should be created")
		require.Equal(t, tempDir, returnedDir, "EnsureConfigDir should return the provided base directory path")
	})

	t.Run("DirectoryAlreadyExists", func(t *testing.T) {
		tempDir := t.TempDir()

		returnedDir, err := EnsureConfigDir(tempDir)
		require.NoError(t, err, "EnsureConfigDir should not return an error if the directory already exists")
		require.Equal(t, tempDir, returnedDir)
	})

	t.Run("PathIsAFile", func(t *testing.T) {
		tempDir := t.TempDir()
		filePath := filepath.Join(tempDir, "not-a-dir")
		require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

		_, err := EnsureConfigDir(filePath)
		assert.ErrorIs(t, err, ErrConfigDirNotDir)
	})

	t.Run("EnvVarOverride", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv(ConfigDirEnvVar, tempDir)

		returnedDir, err := EnsureConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, tempDir, returnedDir, "env var path wins when no base dir is given")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")
		validYAML := `
listen_addr: ":9000"
llm:
  provider: "openai"
  temperature: 0.5
  timeout_seconds: 12
  openai:
    model_name: "gpt-4o"
`
		require.NoError(t, os.WriteFile(configPath, []byte(validYAML), 0644))

		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.InDelta(t, 0.5, cfg.LLM.Temperature, 0.001)
		assert.Equal(t, 12, cfg.LLM.TimeoutSeconds)
		assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.ModelName)
	})

	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		tempDir := t.TempDir()

		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err, "a missing config file is not an error")
		assert.Equal(t, ":8393", cfg.ListenAddr)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.InDelta(t, 0.9, cfg.LLM.Temperature, 0.001)
		assert.Equal(t, 15, cfg.LLM.TimeoutSeconds)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.ModelName)
	})

	t.Run("MalformedFile", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("listen_addr: [unclosed"), 0644))

		_, err := LoadConfig(tempDir)
		assert.ErrorIs(t, err, ErrConfigRead)
	})
}

func TestTimeoutClamping(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"below band clamps up", 3, 9 * time.Second},
		{"lower bound", 9, 9 * time.Second},
		{"within band", 15, 15 * time.Second},
		{"upper bound", 20, 20 * time.Second},
		{"above band clamps down", 60, 20 * time.Second},
		{"zero clamps up", 0, 9 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{LLM: LLMConfig{TimeoutSeconds: tt.seconds}}
			assert.Equal(t, tt.want, cfg.Timeout())
		})
	}
}

func TestLoadPromptTemplates(t *testing.T) {
	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		tempDir := t.TempDir()

		tpl, err := LoadPromptTemplates(tempDir)
		require.NoError(t, err)
		assert.Equal(t, prompt.Default(), tpl)
	})

	t.Run("OverridesApply", func(t *testing.T) {
		tempDir := t.TempDir()
		promptsPath := filepath.Join(tempDir, "prompts.yaml")
		overrideYAML := `
fast: "Custom fast preamble."
`
		require.NoError(t, os.WriteFile(promptsPath, []byte(overrideYAML), 0644))

		tpl, err := LoadPromptTemplates(tempDir)
		require.NoError(t, err)
		assert.Equal(t, "Custom fast preamble.", tpl.Fast)
		assert.Empty(t, tpl.ClarifyQuestions, "unset fields stay empty; merging happens at assembly time")
	})

	t.Run("MalformedFile", func(t *testing.T) {
		tempDir := t.TempDir()
		promptsPath := filepath.Join(tempDir, "prompts.yaml")
		require.NoError(t, os.WriteFile(promptsPath, []byte("fast: [unclosed"), 0644))

		_, err := LoadPromptTemplates(tempDir)
		assert.ErrorIs(t, err, ErrPromptsParse)
	})
}

func TestCreateDefaultConfigFiles(t *testing.T) {
	t.Run("CreatesBothFiles", func(t *testing.T) {
		tempDir := t.TempDir()

		require.NoError(t, CreateDefaultConfigFiles(tempDir))
		assert.FileExists(t, filepath.Join(tempDir, DefaultConfigFileName))
		assert.FileExists(t, filepath.Join(tempDir, DefaultPromptsFileName))

		// The generated config must round-trip through LoadConfig.
		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err)
		assert.Equal(t, ":8393", cfg.ListenAddr)
	})

	t.Run("DoesNotOverwriteExisting", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, DefaultConfigFileName)
		custom := []byte("listen_addr: \":7777\"\n")
		require.NoError(t, os.WriteFile(configPath, custom, 0600))

		require.NoError(t, CreateDefaultConfigFiles(tempDir))

		got, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, custom, got, "existing files are left untouched")
	})
}

func TestGetAPIKeyFromEnvFallback(t *testing.T) {
	// The OS keychain is unavailable in CI; the env fallback covers the
	// lookup order's second leg.
	t.Setenv(EnvAPIKeyName, "env-key-123")

	key, err := GetAPIKey()
	if err != nil {
		// Some environments surface a keychain backend error before the
		// fallback is consulted; only the not-found path is asserted.
		t.Skipf("keychain backend unavailable: %v", err)
	}
	assert.Equal(t, "env-key-123", key)
}
