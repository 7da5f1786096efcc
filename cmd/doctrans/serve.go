package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"doctrans/internal/config"
	"doctrans/internal/history"
	"doctrans/internal/llm"
	"doctrans/internal/logger"
	_ "doctrans/internal/pptx" // registers the pptx format handler
	"doctrans/internal/server"
	"doctrans/internal/statuscache"
)

type serveOptions struct {
	configPath string
	addr       string
	redisAddr  string
	provider   string
	logLevel   string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the translation HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &opts)
		},
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config.toml")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address (overrides config)")
	cmd.Flags().StringVar(&opts.provider, "llm-provider", "", "llm provider: gemini or openai (overrides config)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.redisAddr != "" {
		cfg.Redis.Addr = opts.redisAddr
	}
	if opts.provider != "" {
		cfg.LLM.Provider = opts.provider
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := initLogging(cfg); err != nil {
		return err
	}

	client, err := newLLMClient(cmd, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	cache := statuscache.NewRedisCache(redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}))
	if err := cache.Ping(cmd.Context()); err != nil {
		return err
	}

	store, err := history.Open(cfg.Storage.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(cache, store, client, cfg.OriginalDir(), cfg.TranslatedDir())
	logger.Info("Listening", "addr", cfg.Server.Addr, "llm_provider", cfg.LLM.Provider)
	return srv.Router().Run(cfg.Server.Addr)
}

func initLogging(cfg *config.Config) error {
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if cfg.Log.File == "" {
		logger.Init(level, nil)
		return nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", cfg.Log.File, err)
	}
	logger.Init(level, f)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func newLLMClient(cmd *cobra.Command, cfg *config.Config) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not configured")
	}
	switch cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiClient(cmd.Context(), cfg.LLM.APIKey, cfg.LLM.Model)
	case "openai":
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm base_url is required for the openai provider")
		}
		return llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
