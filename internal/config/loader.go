package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration: defaults, then the config file if present,
// then LOBO_* environment variables.
func (l *Loader) Load() (*Config, error) {
	configPath := l.configPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetEnvPrefix("LOBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	bindDefaults(v, cfg)

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if l.configPath != "" {
		// An explicitly requested config file must exist.
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(dataDir(), "lobo.log")
	}

	return cfg, nil
}

// bindDefaults registers every key with viper so AutomaticEnv can see it.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("vision_model", cfg.VisionModel)
	v.SetDefault("ollama_base_url", cfg.OllamaBaseURL)
	v.SetDefault("openai_api_key", cfg.OpenAIAPIKey)
	v.SetDefault("anthropic_api_key", cfg.AnthropicAPIKey)
	v.SetDefault("editor_api_url", cfg.EditorAPIURL)
	v.SetDefault("default_trust_level", cfg.TrustLevel)
	v.SetDefault("custom_allowlist", cfg.CustomAllowlist)
	v.SetDefault("custom_denylist", cfg.CustomDenylist)
	v.SetDefault("max_tool_iterations", cfg.MaxToolIterations)
	v.SetDefault("command_timeout_sec", cfg.CommandTimeoutSec)
	v.SetDefault("system_prompt", cfg.SystemPrompt)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
}

// Save saves the configuration to file.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.configPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(cfg.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	return defaultConfigPath()
}

func defaultConfigPath() string {
	return filepath.Join(dataDir(), "lobo.json")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".lobo")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
