package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// MailboxConfig holds the IMAP server settings.
type MailboxConfig struct {
	// Host is the IMAP server hostname.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the IMAP server port (implicit TLS).
	Port string `mapstructure:"port" yaml:"port"`

	// Folder is the mailbox to search (usually INBOX).
	Folder string `mapstructure:"folder" yaml:"folder"`
}

// FetchConfig bounds the window of messages eligible for a run.
type FetchConfig struct {
	// WindowDays limits messages to those received within the last N days.
	WindowDays int `mapstructure:"window_days" yaml:"window_days"`

	// MaxCount caps the total number of messages fetched, newest first.
	MaxCount int `mapstructure:"max_count" yaml:"max_count"`
}

// AIConfig holds settings for the classification provider.
type AIConfig struct {
	// BaseURL is the OpenAI-compatible completions endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Model is the model identifier sent with each request.
	Model string `mapstructure:"model" yaml:"model"`

	// MaxTokens bounds the completion size per batch request.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// TimeoutSec bounds a single batch request so a stalled call
	// cannot hang the run.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// BatchSize is how many emails are classified per request.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Fetch   FetchConfig   `mapstructure:"fetch" yaml:"fetch"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/jobtracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "jobtracker", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mailbox: MailboxConfig{
			Host:   "imap.gmail.com",
			Port:   "993",
			Folder: "INBOX",
		},
		Fetch: FetchConfig{
			WindowDays: 7,
			MaxCount:   30,
		},
		AI: AIConfig{
			BaseURL:    "https://openrouter.ai/api/v1",
			Model:      "mistralai/mistral-7b-instruct",
			MaxTokens:  800,
			TimeoutSec: 60,
			BatchSize:  5,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mailbox.host", "imap.gmail.com")
	v.SetDefault("mailbox.port", "993")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("fetch.window_days", 7)
	v.SetDefault("fetch.max_count", 30)
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "mistralai/mistral-7b-instruct")
	v.SetDefault("ai.max_tokens", 800)
	v.SetDefault("ai.timeout_sec", 60)
	v.SetDefault("ai.batch_size", 5)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mailbox", cfg.Mailbox)
	v.Set("fetch", cfg.Fetch)
	v.Set("ai", cfg.AI)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
