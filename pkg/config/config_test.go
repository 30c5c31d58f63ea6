package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_Model verifies the default reflection model
func TestDefaultConfig_Model(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Assistant.Model != "deepseek-ai/DeepSeek-V3" {
		t.Errorf("Model = %q, want %q", cfg.Assistant.Model, "deepseek-ai/DeepSeek-V3")
	}
	if cfg.Assistant.Provider != "siliconflow" {
		t.Errorf("Provider = %q, want %q", cfg.Assistant.Provider, "siliconflow")
	}
}

// TestDefaultConfig_Sampling verifies sampling defaults match the reply capability contract
func TestDefaultConfig_Sampling(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Assistant.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Assistant.Temperature)
	}
	if cfg.Assistant.TopP != 0.7 {
		t.Errorf("TopP = %v, want 0.7", cfg.Assistant.TopP)
	}
	if cfg.Assistant.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want 4096", cfg.Assistant.MaxTokens)
	}
}

// TestDefaultConfig_RequestTimeout verifies external calls are bounded by default
func TestDefaultConfig_RequestTimeout(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Assistant.RequestTimeoutSeconds <= 0 {
		t.Error("RequestTimeoutSeconds should be positive by default")
	}
}

// TestDefaultConfig_Server verifies server defaults
func TestDefaultConfig_Server(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Error("Server host should have default value")
	}
	if cfg.Server.Port == 0 {
		t.Error("Server port should have default value")
	}
}

// TestDefaultConfig_Providers verifies provider credentials are empty by default
func TestDefaultConfig_Providers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Providers.SiliconFlow.APIKey != "" {
		t.Error("SiliconFlow API key should be empty by default")
	}
	if cfg.Providers.OpenRouter.APIKey != "" {
		t.Error("OpenRouter API key should be empty by default")
	}
}

// TestDefaultConfig_Reminder verifies the bedtime reminder is off by default
// but carries a valid nightly schedule.
func TestDefaultConfig_Reminder(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Reminder.Enabled {
		t.Error("Reminder should be disabled by default")
	}
	if cfg.Reminder.Cron == "" {
		t.Error("Reminder cron expression should have a default")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}
	if cfg.Assistant.Model == "" {
		t.Error("expected defaults to be applied for missing config file")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("GOODSLEEP_ASSISTANT_MODEL", "deepseek-ai/DeepSeek-V3.1")
	t.Setenv("GOODSLEEP_PROVIDERS_SILICONFLOW_API_KEY", "sk-test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Assistant.Model != "deepseek-ai/DeepSeek-V3.1" {
		t.Errorf("env override not applied, model = %q", cfg.Assistant.Model)
	}
	if cfg.Providers.SiliconFlow.APIKey != "sk-test" {
		t.Errorf("env override not applied, api key = %q", cfg.Providers.SiliconFlow.APIKey)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Providers.SiliconFlow.APIKey = "sk-roundtrip"
	cfg.Channels.Discord.AllowFrom = FlexibleStringSlice{"123", "night-owl"}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Providers.SiliconFlow.APIKey != "sk-roundtrip" {
		t.Errorf("api key = %q after round trip", loaded.Providers.SiliconFlow.APIKey)
	}
	if len(loaded.Channels.Discord.AllowFrom) != 2 {
		t.Errorf("allow_from = %v after round trip", loaded.Channels.Discord.AllowFrom)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFlexibleStringSlice_MixedTypes(t *testing.T) {
	var f FlexibleStringSlice
	if err := f.UnmarshalJSON([]byte(`["abc", 123456789]`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if len(f) != 2 || f[0] != "abc" || f[1] != "123456789" {
		t.Errorf("FlexibleStringSlice = %v", f)
	}
}
