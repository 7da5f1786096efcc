package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("provider = %q", cfg.LLM.Provider)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[redis]
addr = "redis.internal:6379"
db = 2

[llm]
provider = "openai"
model = "qwen2.5-32b-instruct"
base_url = "https://llm.internal/v1"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCTRANS_REDIS_ADDR", "override:6379")
	t.Setenv("DOCTRANS_LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("file value lost: %q", cfg.Server.Addr)
	}
	if cfg.Redis.Addr != "override:6379" {
		t.Errorf("env must override file: %q", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("db = %d", cfg.Redis.DB)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("llm config: %+v", cfg.LLM)
	}
}

func TestProviderAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "gm-key" {
		t.Errorf("api key fallback not applied: %q", cfg.LLM.APIKey)
	}
}

func TestWorkDirLayout(t *testing.T) {
	cfg := Default()
	cfg.Storage.WorkDir = "/srv/doctrans"
	if cfg.OriginalDir() != filepath.Join("/srv/doctrans", "translation", "original") {
		t.Errorf("original dir = %q", cfg.OriginalDir())
	}
	if cfg.TranslatedDir() != filepath.Join("/srv/doctrans", "translation", "translated") {
		t.Errorf("translated dir = %q", cfg.TranslatedDir())
	}
}
