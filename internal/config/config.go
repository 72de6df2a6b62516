package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Dedupe   DedupeConfig   `mapstructure:"dedupe"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	API      APIConfig      `mapstructure:"api"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type FeedConfig struct {
	SearchBaseURL string        `mapstructure:"search_base_url"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	FetchDelay    time.Duration `mapstructure:"fetch_delay"`
	DefaultLang   string        `mapstructure:"default_lang"`
	DefaultWhen   string        `mapstructure:"default_when"`
	DefaultLimit  int           `mapstructure:"default_limit"`
}

type DedupeConfig struct {
	// Threshold is the minimum similarity ratio at which two titles are
	// considered the same story. Earlier deployments ran at 0.5.
	Threshold  float64       `mapstructure:"threshold"`
	HistoryTTL time.Duration `mapstructure:"history_ttl"`
}

type DispatchConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	SendDelay   time.Duration `mapstructure:"send_delay"`
}

type PipelineConfig struct {
	PassInterval time.Duration `mapstructure:"pass_interval"`
}

type APIConfig struct {
	Port int `mapstructure:"port"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".feedhook.db")

	return &Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Feed: FeedConfig{
			SearchBaseURL: "https://news.google.com/rss/search",
			HTTPTimeout:   30 * time.Second,
			UserAgent:     "feedhook/1.0 (https://github.com/pders01/feedhook)",
			FetchDelay:    2 * time.Second,
			DefaultLang:   "ko",
			DefaultWhen:   "1h",
			DefaultLimit:  5,
		},
		Dedupe: DedupeConfig{
			Threshold:  0.4,
			HistoryTTL: 2 * time.Hour,
		},
		Dispatch: DispatchConfig{
			HTTPTimeout: 30 * time.Second,
			SendDelay:   10 * time.Second,
		},
		Pipeline: PipelineConfig{
			PassInterval: 30 * time.Minute,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults are registered per leaf key so env overrides and partial
	// config sections both merge against them.
	cfg := defaultConfig()
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("feed.search_base_url", cfg.Feed.SearchBaseURL)
	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.fetch_delay", cfg.Feed.FetchDelay)
	v.SetDefault("feed.default_lang", cfg.Feed.DefaultLang)
	v.SetDefault("feed.default_when", cfg.Feed.DefaultWhen)
	v.SetDefault("feed.default_limit", cfg.Feed.DefaultLimit)
	v.SetDefault("dedupe.threshold", cfg.Dedupe.Threshold)
	v.SetDefault("dedupe.history_ttl", cfg.Dedupe.HistoryTTL)
	v.SetDefault("dispatch.http_timeout", cfg.Dispatch.HTTPTimeout)
	v.SetDefault("dispatch.send_delay", cfg.Dispatch.SendDelay)
	v.SetDefault("pipeline.pass_interval", cfg.Pipeline.PassInterval)
	v.SetDefault("api.port", cfg.API.Port)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "feedhook")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FEEDHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Database.Path = expandPath(config.Database.Path)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	v.Set("database", map[string]interface{}{
		"path": config.Database.Path,
	})
	v.Set("feed", map[string]interface{}{
		"search_base_url": config.Feed.SearchBaseURL,
		"http_timeout":    config.Feed.HTTPTimeout.String(),
		"user_agent":      config.Feed.UserAgent,
		"fetch_delay":     config.Feed.FetchDelay.String(),
		"default_lang":    config.Feed.DefaultLang,
		"default_when":    config.Feed.DefaultWhen,
		"default_limit":   config.Feed.DefaultLimit,
	})
	v.Set("dedupe", map[string]interface{}{
		"threshold":   config.Dedupe.Threshold,
		"history_ttl": config.Dedupe.HistoryTTL.String(),
	})
	v.Set("dispatch", map[string]interface{}{
		"http_timeout": config.Dispatch.HTTPTimeout.String(),
		"send_delay":   config.Dispatch.SendDelay.String(),
	})
	v.Set("pipeline", map[string]interface{}{
		"pass_interval": config.Pipeline.PassInterval.String(),
	})
	v.Set("api", map[string]interface{}{
		"port": config.API.Port,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
