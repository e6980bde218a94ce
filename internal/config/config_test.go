package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MotoTrader/internal/model"
)

var overrideVars = []string{
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY", "LEDGER_STATE_FILE",
	"SQLITE_PATH", "REDIS_ADDR", "CRON_CYCLE", "RISK_CAP", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultWatchlist, cfg.Watchlist)
	assert.Equal(t, "1y", cfg.DataSource.Period)
	assert.Equal(t, "1d", cfg.DataSource.Interval)
	assert.Equal(t, 0.05, cfg.Risk.RiskCap)
	assert.Equal(t, 60, cfg.Risk.MinBars)
	assert.False(t, cfg.Risk.AutoReconcile)
	assert.False(t, cfg.Weights.UseAdaptive)
	assert.Equal(t, 0.2, cfg.Adaptive.Alpha)
	assert.Equal(t, BackendJSON, cfg.Ledger.Backend)
	assert.Equal(t, model.DefaultStartingCash, cfg.Ledger.StartingCash)
	assert.Equal(t, "0 30 16 * * 1-5", cfg.Schedule.CycleCron)
	assert.Equal(t, 26, cfg.Indicators.MACDSlow)
	assert.True(t, cfg.Macro.Enabled)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_source:
  provider: finance-go
  period: 6mo
  interval: 1h
  timeout: 5s
watchlist: [" spy", "qqq "]
macro:
  enabled: false
weights:
  tech: 0.6
  macro: 0.2
  fund: 0.2
  use_adaptive: true
risk:
  risk_cap: 0.1
  auto_reconcile: true
indicators:
  rsi_length: 7
ledger:
  backend: sqlite
  account: alt
redis:
  ttl: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderFinanceGo, cfg.DataSource.Provider)
	assert.Equal(t, 5*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Watchlist)
	assert.False(t, cfg.Macro.Enabled)
	assert.True(t, cfg.Weights.UseAdaptive)
	assert.True(t, cfg.Risk.AutoReconcile)
	assert.Equal(t, 7, cfg.Indicators.RSILength)
	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, "alt", cfg.Ledger.Account)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.InDelta(t, 0.6, cfg.StaticWeights()[model.FactorTech], 1e-12)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("RISK_CAP", "0.02")
	t.Setenv("CRON_CYCLE", "0 0 17 * * 1-5")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LEDGER_STATE_FILE", "/tmp/p.json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "risk:\n  risk_cap: 0.2\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 0.02, cfg.Risk.RiskCap)
	assert.Equal(t, "0 0 17 * * 1-5", cfg.Schedule.CycleCron)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "/tmp/p.json", cfg.Ledger.StateFile)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoad_ZeroRiskCapIsKept(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(writeConfig(t, "risk:\n  risk_cap: 0\n"))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 0.0, cfg.Risk.RiskCap)
	})
	t.Run("env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RISK_CAP", "0")
		cfg, err := Load(writeConfig(t, "risk:\n  risk_cap: 0.2\n"))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 0.0, cfg.Risk.RiskCap)
	})
	t.Run("absent", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(writeConfig(t, "risk:\n  auto_reconcile: true\n"))
		require.NoError(t, err)
		assert.Equal(t, DefaultRiskCap, cfg.Risk.RiskCap)
	})
}

func TestLoad_BadInput(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "watchlist: {"))
	assert.Error(t, err)

	t.Setenv("RISK_CAP", "lots")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"period", func(c *Config) { c.DataSource.Period = "10y" }},
		{"interval", func(c *Config) { c.DataSource.Interval = "1m" }},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }},
		{"negative weight", func(c *Config) { c.Weights.Tech = -0.1 }},
		{"zero weights", func(c *Config) { c.Weights.Tech, c.Weights.Macro, c.Weights.Fund = 0, 0, 0 }},
		{"alpha", func(c *Config) { c.Adaptive.Alpha = 1.5 }},
		{"negative risk cap", func(c *Config) { c.Risk.RiskCap = -0.05 }},
		{"risk cap above one", func(c *Config) { c.Risk.RiskCap = 1.5 }},
		{"indicators", func(c *Config) { c.Indicators.MACDFast = 30 }},
		{"backend", func(c *Config) { c.Ledger.Backend = "postgres" }},
		{"cron", func(c *Config) { c.Schedule.CycleCron = "every day" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "tok" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
