package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "BTC_USDT", cfg.Trading.Symbol)
	assert.Equal(t, 3, cfg.Trading.Leverage)
	assert.Equal(t, 10000.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 150.0, cfg.Trading.ProfitTargetUSD)
	assert.Equal(t, 10000.0, cfg.Trading.HardStopLossUSD)
	assert.True(t, cfg.Exchange.Simulation)
	assert.NoError(t, cfg.Validate())

	every, err := cfg.Trading.CheckEvery()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, every)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"unknown exchange", func(c *Config) { c.Exchange.Name = "kraken" }, "exchange.name"},
		{"live without keys", func(c *Config) { c.Exchange.Simulation = false }, "api_key"},
		{"live with keys", func(c *Config) {
			c.Exchange.Simulation = false
			c.Exchange.APIKey, c.Exchange.APISecret = "k", "s"
		}, ""},
		{"zero leverage", func(c *Config) { c.Trading.Leverage = 0 }, "trading.leverage"},
		{"leverage too high", func(c *Config) { c.Trading.Leverage = 126 }, "trading.leverage"},
		{"max leverage", func(c *Config) { c.Trading.Leverage = 125 }, ""},
		{"negative balance", func(c *Config) { c.Trading.InitialBalance = -1000 }, "initial_balance"},
		{"zero profit target", func(c *Config) { c.Trading.ProfitTargetUSD = 0 }, "profit_target_usd"},
		{"zero stop", func(c *Config) { c.Trading.HardStopLossUSD = 0 }, "hard_stop_loss_usd"},
		{"limit below min candles", func(c *Config) { c.Trading.CandleLimit = 10 }, "candle_limit"},
		{"bad check interval", func(c *Config) { c.Trading.CheckInterval = "soon" }, "check_interval"},
		{"negative timeout", func(c *Config) { c.Exchange.Timeout = "-1s" }, "exchange.timeout"},
		{"zero period", func(c *Config) { c.Indicators.MACDSignal = 0 }, "macd_signal"},
		{"fast not below slow", func(c *Config) { c.Indicators.EMAFast = 26 }, "ema_fast"},
		{"threshold at one", func(c *Config) { c.Indicators.VolumeThreshold = 1 }, "volume_threshold"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "mongo" }, "journal.type"},
		{"sqlite without path", func(c *Config) {
			c.Journal.Type = "sqlite"
			c.Journal.DBPath = ""
		}, "db_path"},
		{"no journal", func(c *Config) { c.Journal.Type = "none" }, ""},
		{"telegram without chat", func(c *Config) { c.Telegram.Token = "t" }, "chat_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Trading.Symbol = "ETH_USDT"
			cfg.Telegram = TelegramConfig{Token: "tok", ChatID: -100123}
			path := filepath.Join(tmpDir, "nested", "test"+ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trading:\n  leverage: 10\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Trading.Leverage)
	assert.Equal(t, "BTC_USDT", cfg.Trading.Symbol)
	assert.Equal(t, 26, cfg.Indicators.EMASlow)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trading: [unclosed"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"GATE_API_KEY":       "key",
		"GATE_API_SECRET":    "secret",
		"GATE_SANDBOX":       "false",
		"ENABLE_SIMULATION":  "no",
		"SYMBOL":             "ETH_USDT",
		"LEVERAGE":           "5",
		"INITIAL_BALANCE":    "2500.5",
		"PROFIT_TARGET_USD":  "75",
		"HARD_STOP_LOSS_USD": "40",
		"EMA_FAST":           "9",
		"VOLUME_THRESHOLD":   "1.5",
		"TELEGRAM_BOT_TOKEN": "tok",
		"TELEGRAM_CHAT_ID":   "-1001",
		"LOG_LEVEL":          "debug",
		"BINANCE_API_KEY":    "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.Exchange.APIKey)
	assert.Equal(t, "secret", cfg.Exchange.APISecret)
	assert.False(t, cfg.Exchange.Testnet)
	assert.False(t, cfg.Exchange.Simulation)
	assert.Equal(t, "ETH_USDT", cfg.Trading.Symbol)
	assert.Equal(t, 5, cfg.Trading.Leverage)
	assert.Equal(t, 2500.5, cfg.Trading.InitialBalance)
	assert.Equal(t, 75.0, cfg.Trading.ProfitTargetUSD)
	assert.Equal(t, 40.0, cfg.Trading.HardStopLossUSD)
	assert.Equal(t, 9, cfg.Indicators.EMAFast)
	assert.Equal(t, 1.5, cfg.Indicators.VolumeThreshold)
	assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvBinanceKeys(t *testing.T) {
	cfg := Default()
	cfg.Exchange.Name = "binance"
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"GATE_API_KEY":       "ignored",
		"BINANCE_API_KEY":    "bkey",
		"BINANCE_SECRET_KEY": "bsecret",
	})))
	assert.Equal(t, "bkey", cfg.Exchange.APIKey)
	assert.Equal(t, "bsecret", cfg.Exchange.APISecret)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"LEVERAGE":          "ten",
		"ENABLE_SIMULATION": "maybe",
		"SYMBOL":            "   ",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "LEVERAGE")
	assert.Contains(t, err.Error(), "ENABLE_SIMULATION")
	assert.Equal(t, 3, cfg.Trading.Leverage)
	assert.Equal(t, "BTC_USDT", cfg.Trading.Symbol)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".env", []byte("SYMBOL=SOL_USDT\nLEVERAGE=7\n"), 0o600))
	t.Setenv("LEVERAGE", "4")
	t.Cleanup(func() { os.Unsetenv("SYMBOL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "SOL_USDT", cfg.Trading.Symbol)
	// the process environment wins over .env
	assert.Equal(t, 4, cfg.Trading.Leverage)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trading:\n  symbol: DOGE_USDT\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DOGE_USDT", cfg.Trading.Symbol)
}
