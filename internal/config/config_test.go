package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
sources:
  tavily:
    api_key: "tvly-xxx"
llm:
  provider: "anthropic"
  api_key: "sk-ant-xxx"
store:
  backend: "badger"
  path: "data/jobs"
  job_ttl: "2h"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %s, want :9000", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("Provider = %s", cfg.LLM.Provider)
	}
	if cfg.Store.JobTTLDuration() != 2*time.Hour {
		t.Errorf("JobTTL = %v, want 2h", cfg.Store.JobTTLDuration())
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("default Addr = %s", cfg.Server.Addr)
	}
	if cfg.Polymarket.GammaURL != "https://gamma-api.polymarket.com" {
		t.Errorf("default GammaURL = %s", cfg.Polymarket.GammaURL)
	}
	if cfg.Sources.Reddit.BaseURL != "https://www.reddit.com" {
		t.Errorf("default Reddit BaseURL = %s", cfg.Sources.Reddit.BaseURL)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("default Provider = %s", cfg.LLM.Provider)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("default Backend = %s", cfg.Store.Backend)
	}
	if cfg.Store.JobTTLDuration() != time.Hour {
		t.Errorf("default JobTTL = %v", cfg.Store.JobTTLDuration())
	}
	if cfg.Concurrency.MaxJobs != 8 {
		t.Errorf("default MaxJobs = %d", cfg.Concurrency.MaxJobs)
	}
	if cfg.Compress.TargetTokens != 4000 {
		t.Errorf("default TargetTokens = %d", cfg.Compress.TargetTokens)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}
