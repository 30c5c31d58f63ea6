// Package config loads and persists GoodSleep configuration.
//
// Configuration lives in a JSON file (default ~/.goodsleep/config.json) and
// every field can be overridden through GOODSLEEP_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers, so
// allow_from can contain both "123456789" and 123456789.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Assistant  AssistantConfig  `json:"assistant"`
	Providers  ProvidersConfig  `json:"providers"`
	Server     ServerConfig     `json:"server"`
	Channels   ChannelsConfig   `json:"channels"`
	Storage    StorageConfig    `json:"storage"`
	Reminder   ReminderConfig   `json:"reminder"`
	Transcribe TranscribeConfig `json:"transcribe"`
	mu         sync.RWMutex
}

type AssistantConfig struct {
	Provider              string  `json:"provider" env:"GOODSLEEP_ASSISTANT_PROVIDER"`
	Model                 string  `json:"model" env:"GOODSLEEP_ASSISTANT_MODEL"`
	MaxTokens             int     `json:"max_tokens" env:"GOODSLEEP_ASSISTANT_MAX_TOKENS"`
	Temperature           float64 `json:"temperature" env:"GOODSLEEP_ASSISTANT_TEMPERATURE"`
	TopP                  float64 `json:"top_p" env:"GOODSLEEP_ASSISTANT_TOP_P"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds" env:"GOODSLEEP_ASSISTANT_REQUEST_TIMEOUT_SECONDS"`
}

type ProvidersConfig struct {
	SiliconFlow ProviderConfig `json:"siliconflow" envPrefix:"GOODSLEEP_PROVIDERS_SILICONFLOW_"`
	OpenRouter  ProviderConfig `json:"openrouter" envPrefix:"GOODSLEEP_PROVIDERS_OPENROUTER_"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" env:"API_KEY"`
	APIBase string `json:"api_base" env:"API_BASE"`
	Proxy   string `json:"proxy,omitempty" env:"PROXY"`
}

type ServerConfig struct {
	Host           string   `json:"host" env:"GOODSLEEP_SERVER_HOST"`
	Port           int      `json:"port" env:"GOODSLEEP_SERVER_PORT"`
	AllowedOrigins []string `json:"allowed_origins" env:"GOODSLEEP_SERVER_ALLOWED_ORIGINS" envSeparator:","`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Enabled   bool                `json:"enabled" env:"GOODSLEEP_CHANNELS_DISCORD_ENABLED"`
	Token     string              `json:"token" env:"GOODSLEEP_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"GOODSLEEP_CHANNELS_DISCORD_ALLOW_FROM"`
}

type StorageConfig struct {
	Path string `json:"path" env:"GOODSLEEP_STORAGE_PATH"`
}

type ReminderConfig struct {
	Enabled bool   `json:"enabled" env:"GOODSLEEP_REMINDER_ENABLED"`
	Cron    string `json:"cron" env:"GOODSLEEP_REMINDER_CRON"`
	Channel string `json:"channel" env:"GOODSLEEP_REMINDER_CHANNEL"`
	ChatID  string `json:"chat_id" env:"GOODSLEEP_REMINDER_CHAT_ID"`
}

type TranscribeConfig struct {
	Model string `json:"model" env:"GOODSLEEP_TRANSCRIBE_MODEL"`
}

func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Provider:              "siliconflow",
			Model:                 "deepseek-ai/DeepSeek-V3",
			MaxTokens:             4096,
			Temperature:           0.7,
			TopP:                  0.7,
			RequestTimeoutSeconds: 60,
		},
		Providers: ProvidersConfig{
			SiliconFlow: ProviderConfig{},
			OpenRouter:  ProviderConfig{},
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8990,
			AllowedOrigins: []string{"*"},
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Storage: StorageConfig{
			Path: "~/.goodsleep/session.db",
		},
		Reminder: ReminderConfig{
			Enabled: false,
			Cron:    "0 22 * * *",
			Channel: "discord",
			ChatID:  "",
		},
		Transcribe: TranscribeConfig{
			Model: "FunAudioLLM/SenseVoiceSmall",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file is fine: defaults plus env overrides.
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// StoragePath returns the session database path with ~ expanded.
func (c *Config) StoragePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Storage.Path)
}

func ExpandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
