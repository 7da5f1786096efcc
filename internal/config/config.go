// Package config loads the service configuration from an optional TOML file
// with environment variable overrides. Flags on the serve command override
// both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	LLM     LLMConfig     `toml:"llm"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type StorageConfig struct {
	// WorkDir receives uploaded originals under translation/original and
	// translated output under translation/translated.
	WorkDir string `toml:"work_dir"`
	// HistoryDB is the SQLite database path.
	HistoryDB string `toml:"history_db"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LLMConfig struct {
	// Provider is "gemini" or "openai".
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	// BaseURL applies to the openai provider only.
	BaseURL string `toml:"base_url"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file and no overrides exist.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{
			WorkDir:   filepath.Join(os.TempDir(), "doctrans"),
			HistoryDB: "doctrans.db",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (when non-empty and existing) over the defaults, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps DOCTRANS_* environment variables onto the config.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "DOCTRANS_ADDR")
	setString(&c.Storage.WorkDir, "DOCTRANS_WORK_DIR")
	setString(&c.Storage.HistoryDB, "DOCTRANS_HISTORY_DB")
	setString(&c.Redis.Addr, "DOCTRANS_REDIS_ADDR")
	setString(&c.Redis.Password, "DOCTRANS_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "DOCTRANS_REDIS_DB")
	setString(&c.LLM.Provider, "DOCTRANS_LLM_PROVIDER")
	setString(&c.LLM.APIKey, "DOCTRANS_LLM_API_KEY")
	setString(&c.LLM.Model, "DOCTRANS_LLM_MODEL")
	setString(&c.LLM.BaseURL, "DOCTRANS_LLM_BASE_URL")
	setString(&c.Log.Level, "DOCTRANS_LOG_LEVEL")
	setString(&c.Log.File, "DOCTRANS_LOG_FILE")
	if c.LLM.APIKey == "" {
		// Provider-specific fallbacks keep existing deployments working.
		switch c.LLM.Provider {
		case "openai":
			setString(&c.LLM.APIKey, "OPENAI_API_KEY")
		default:
			setString(&c.LLM.APIKey, "GEMINI_API_KEY")
		}
	}
}

// OriginalDir is where uploads land before translation.
func (c *Config) OriginalDir() string {
	return filepath.Join(c.Storage.WorkDir, "translation", "original")
}

// TranslatedDir receives translated output files.
func (c *Config) TranslatedDir() string {
	return filepath.Join(c.Storage.WorkDir, "translation", "translated")
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
