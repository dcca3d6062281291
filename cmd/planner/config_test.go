package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
server:
  port: 9090
market:
  base_currency: ETH
take_profit:
  max_targets: 3
`), 0o644))

	t.Setenv("PLANNER_SERVER_PORT", "9191")
	t.Setenv("PLANNER_STORAGE_PATH", "/tmp/tickets.db")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Encoding)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/tmp/tickets.db", cfg.Storage.Path)
	assert.Equal(t, "ETH", cfg.Market.BaseCurrency)
	assert.Equal(t, "USDT", cfg.Market.QuoteCurrency)
	assert.Equal(t, 3, cfg.TakeProfit.MaxTargets)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("PLANNER_CONFIG", "")
	assert.Equal(t, defaultConfigPath, configPath())

	t.Setenv("PLANNER_CONFIG", "/etc/planner.yaml")
	assert.Equal(t, "/etc/planner.yaml", configPath())
}
