package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:9000
recommend:
  provider: llm
  llm:
    base_url: https://api.example.com/v1
    api_key: sk-test
    model: mimo-v2-flash
speech:
  command: say
  args: ["-r", "180"]
log:
  level: debug
concurrency:
  qps: 2
  rpm: 60
db:
  host: localhost
  user: lucidly
  name: lucidly
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:9000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != DefaultTimeout {
		t.Errorf("Backend.Timeout = %d, want default %d", cfg.Backend.Timeout, DefaultTimeout)
	}
	if cfg.Recommend.Provider != ProviderLLM || cfg.Recommend.LLM.Model != "mimo-v2-flash" {
		t.Errorf("Recommend = %+v", cfg.Recommend)
	}
	if cfg.Speech.Command != "say" || len(cfg.Speech.Args) != 2 {
		t.Errorf("Speech = %+v", cfg.Speech)
	}
	if cfg.Concurrency.RPM != 60 || cfg.DB.Port != 5432 {
		t.Errorf("Concurrency = %+v, DB = %+v", cfg.Concurrency, cfg.DB)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, DefaultBaseURL)
	}
	if cfg.Recommend.Provider != ProviderBackend {
		t.Errorf("Recommend.Provider = %q", cfg.Recommend.Provider)
	}
	if cfg.Speech.Command != DefaultSpeechCommand {
		t.Errorf("Speech.Command = %q", cfg.Speech.Command)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigInvalidProvider(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "recommend:\n  provider: magic\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown recommend provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestLoadConfigLLMRequiresModel(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "recommend:\n  provider: llm\n"))
	if err == nil {
		t.Fatalf("expected error for llm provider without model")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBaseURL || cfg.Recommend.Provider != ProviderBackend {
		t.Errorf("sample config = %+v", cfg)
	}
	if cfg.DB.Host != "" {
		t.Errorf("sample config should not enable history, DB.Host = %q", cfg.DB.Host)
	}
}

func TestDefaultLogLevel(t *testing.T) {
	if got := Default().Log.Level; got != DefaultLogLevel {
		t.Errorf("Default().Log.Level = %q, want %q", got, DefaultLogLevel)
	}
	cfg, err := LoadConfig(writeConfig(t, "backend:\n  timeout: 5\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}
