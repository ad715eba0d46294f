package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load builds the configuration from path (or the defaults when path is
// empty), then applies a .env file from the working directory if one exists,
// then the process environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	switch c.Exchange.Name {
	case "binance":
		e.str("BINANCE_API_KEY", &c.Exchange.APIKey)
		e.str("BINANCE_SECRET_KEY", &c.Exchange.APISecret)
	default:
		e.str("GATE_API_KEY", &c.Exchange.APIKey)
		e.str("GATE_API_SECRET", &c.Exchange.APISecret)
		e.boolean("GATE_SANDBOX", &c.Exchange.Testnet)
	}
	e.boolean("ENABLE_SIMULATION", &c.Exchange.Simulation)

	e.str("SYMBOL", &c.Trading.Symbol)
	e.float("INITIAL_BALANCE", &c.Trading.InitialBalance)
	e.integer("LEVERAGE", &c.Trading.Leverage)
	e.float("PROFIT_TARGET_USD", &c.Trading.ProfitTargetUSD)
	e.float("HARD_STOP_LOSS_USD", &c.Trading.HardStopLossUSD)

	e.integer("EMA_FAST", &c.Indicators.EMAFast)
	e.integer("EMA_SLOW", &c.Indicators.EMASlow)
	e.integer("MACD_FAST", &c.Indicators.MACDFast)
	e.integer("MACD_SLOW", &c.Indicators.MACDSlow)
	e.integer("MACD_SIGNAL", &c.Indicators.MACDSignal)
	e.float("VOLUME_THRESHOLD", &c.Indicators.VolumeThreshold)

	e.str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	var chat int
	if e.integer("TELEGRAM_CHAT_ID", &chat) {
		c.Telegram.ChatID = int64(chat)
	}
	e.str("LOG_LEVEL", &c.Log.Level)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, v, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = f
}

func (e *envReader) integer(key string, dst *int) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return false
	}
	*dst = i
	return true
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "y", "yes":
		*dst = true
	case "0", "false", "n", "no":
		*dst = false
	default:
		e.fail(key, v, errors.New("not a boolean"))
	}
}
