package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Encoding  string `yaml:"encoding"`
	AuditFile string `yaml:"audit_file" split_words:"true"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type MarketConfig struct {
	BaseCurrency  string `yaml:"base_currency" split_words:"true"`
	QuoteCurrency string `yaml:"quote_currency" split_words:"true"`
}

type TakeProfitConfig struct {
	// MaxTargets <= 0 removes the cap.
	MaxTargets int `yaml:"max_targets" split_words:"true"`
}

// Config is read from YAML first; PLANNER_* environment variables override it,
// e.g. PLANNER_SERVER_PORT or PLANNER_LOGGING_LEVEL. No envconfig tags: a tagged
// field also reads the unprefixed name (PATH, PORT).
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Market     MarketConfig     `yaml:"market"`
	TakeProfit TakeProfitConfig `yaml:"take_profit" split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		Logging:    LoggingConfig{Level: "info", Encoding: "json"},
		Server:     ServerConfig{Port: 8080},
		Storage:    StorageConfig{Path: "planner.db"},
		Market:     MarketConfig{BaseCurrency: "BTC", QuoteCurrency: "USDT"},
		TakeProfit: TakeProfitConfig{MaxTargets: 5},
	}
}

func configPath() string {
	if p := os.Getenv("PLANNER_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// loadConfig layers defaults, the YAML file and the environment. A missing
// file is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := envconfig.Process("planner", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}
