package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/leverbot/indicators"
	"github.com/rustyeddy/leverbot/risk"
	"github.com/rustyeddy/leverbot/signal"
)

var ErrInvalid = errors.New("invalid config")

// Config is the complete bot configuration. It is built once and passed by
// value into constructors.
type Config struct {
	Exchange   ExchangeConfig  `json:"exchange" yaml:"exchange"`
	Trading    TradingConfig   `json:"trading" yaml:"trading"`
	Indicators IndicatorConfig `json:"indicators" yaml:"indicators"`
	Journal    JournalConfig   `json:"journal" yaml:"journal"`
	Telegram   TelegramConfig  `json:"telegram" yaml:"telegram"`
	Status     StatusConfig    `json:"status" yaml:"status"`
	Log        LogConfig       `json:"log" yaml:"log"`
}

// ExchangeConfig selects the connector. Simulation trades against an
// in-process ledger priced from the real public market data of Name.
type ExchangeConfig struct {
	Name          string  `json:"name" yaml:"name"` // "gateio" or "binance"
	Simulation    bool    `json:"simulation" yaml:"simulation"`
	Testnet       bool    `json:"testnet" yaml:"testnet"`
	APIKey        string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret     string  `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	ContractSize  float64 `json:"contract_size" yaml:"contract_size"`
	FallbackPrice float64 `json:"fallback_price" yaml:"fallback_price"` // 0 disables
	Timeout       string  `json:"timeout" yaml:"timeout"`
}

type TradingConfig struct {
	Symbol          string  `json:"symbol" yaml:"symbol"`
	Leverage        int     `json:"leverage" yaml:"leverage"`
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	ProfitTargetUSD float64 `json:"profit_target_usd" yaml:"profit_target_usd"`
	HardStopLossUSD float64 `json:"hard_stop_loss_usd" yaml:"hard_stop_loss_usd"`
	CandleInterval  string  `json:"candle_interval" yaml:"candle_interval"`
	CandleLimit     int     `json:"candle_limit" yaml:"candle_limit"`
	CheckInterval   string  `json:"check_interval" yaml:"check_interval"` // e.g. "5m", "30s"
	MinCandles      int     `json:"min_candles" yaml:"min_candles"`
}

type IndicatorConfig struct {
	EMAFast         int     `json:"ema_fast" yaml:"ema_fast"`
	EMASlow         int     `json:"ema_slow" yaml:"ema_slow"`
	MACDFast        int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow        int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal      int     `json:"macd_signal" yaml:"macd_signal"`
	VolumeSMA       int     `json:"volume_sma" yaml:"volume_sma"`
	VolumeThreshold float64 `json:"volume_threshold" yaml:"volume_threshold"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type    string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	CSVPath string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

// Enabled reports whether both a token and a chat are set.
func (t TelegramConfig) Enabled() bool { return t.Token != "" && t.ChatID != 0 }

type StatusConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // empty disables the server
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// CheckEvery returns the parsed cycle period.
func (t TradingConfig) CheckEvery() (time.Duration, error) {
	return parseDuration("trading.check_interval", t.CheckInterval)
}

func (e ExchangeConfig) RequestTimeout() (time.Duration, error) {
	return parseDuration("exchange.timeout", e.Timeout)
}

func (e ExchangeConfig) Live() bool { return !e.Simulation }

func (c *Config) RiskParams() risk.Params {
	return risk.NewParams(c.Trading.Leverage, c.Trading.ProfitTargetUSD, c.Trading.HardStopLossUSD)
}

func (c *Config) SignalConfig() signal.Config {
	in := c.Indicators
	return signal.Config{
		Periods: indicators.Periods{
			EMAFast:    in.EMAFast,
			EMASlow:    in.EMASlow,
			MACDFast:   in.MACDFast,
			MACDSlow:   in.MACDSlow,
			MACDSignal: in.MACDSignal,
			VolumeSMA:  in.VolumeSMA,
		},
		MinCandles:      c.Trading.MinCandles,
		VolumeThreshold: in.VolumeThreshold,
	}
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalid, field)
	}
	return d, nil
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback. Fields missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Exchange.Name {
	case "gateio", "binance":
	default:
		return invalid("exchange.name must be 'gateio' or 'binance', got %q", c.Exchange.Name)
	}
	if c.Exchange.Live() && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return invalid("exchange.api_key and exchange.api_secret are required for live trading")
	}
	if c.Exchange.Name == "gateio" && c.Exchange.ContractSize <= 0 {
		return invalid("exchange.contract_size must be positive")
	}
	if c.Exchange.FallbackPrice < 0 {
		return invalid("exchange.fallback_price must not be negative")
	}
	if _, err := c.Exchange.RequestTimeout(); err != nil {
		return err
	}

	t := c.Trading
	if t.Symbol == "" {
		return invalid("trading.symbol is required")
	}
	if t.Leverage < risk.MinLeverage || t.Leverage > risk.MaxLeverage {
		return invalid("trading.leverage must be between %d and %d", risk.MinLeverage, risk.MaxLeverage)
	}
	if t.InitialBalance <= 0 {
		return invalid("trading.initial_balance must be positive")
	}
	if t.ProfitTargetUSD <= 0 {
		return invalid("trading.profit_target_usd must be positive")
	}
	if t.HardStopLossUSD <= 0 {
		return invalid("trading.hard_stop_loss_usd must be positive")
	}
	if t.CandleInterval == "" {
		return invalid("trading.candle_interval is required")
	}
	if t.MinCandles <= 0 {
		return invalid("trading.min_candles must be positive")
	}
	if t.CandleLimit < t.MinCandles {
		return invalid("trading.candle_limit must be at least min_candles (%d)", t.MinCandles)
	}
	if _, err := t.CheckEvery(); err != nil {
		return err
	}

	in := c.Indicators
	for name, p := range map[string]int{
		"ema_fast": in.EMAFast, "ema_slow": in.EMASlow,
		"macd_fast": in.MACDFast, "macd_slow": in.MACDSlow, "macd_signal": in.MACDSignal,
		"volume_sma": in.VolumeSMA,
	} {
		if p <= 0 {
			return invalid("indicators.%s must be positive", name)
		}
	}
	if in.EMAFast >= in.EMASlow {
		return invalid("indicators.ema_fast must be less than ema_slow")
	}
	if in.MACDFast >= in.MACDSlow {
		return invalid("indicators.macd_fast must be less than macd_slow")
	}
	if in.VolumeThreshold <= 1 {
		return invalid("indicators.volume_threshold must be greater than 1.0")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.CSVPath == "" {
			return invalid("journal.csv_path required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return invalid("journal.db_path required for SQLite type")
		}
	default:
		return invalid("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return invalid("telegram.chat_id is required when telegram.token is set")
	}
	return nil
}

// Default returns the stock configuration: simulated BTC_USDT at 3x.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Name:         "gateio",
			Simulation:   true,
			Testnet:      true,
			ContractSize: 0.0001,
			Timeout:      "10s",
		},
		Trading: TradingConfig{
			Symbol:          "BTC_USDT",
			Leverage:        3,
			InitialBalance:  10000,
			ProfitTargetUSD: 150,
			HardStopLossUSD: 10000,
			CandleInterval:  "1h",
			CandleLimit:     200,
			CheckInterval:   "5m",
			MinCandles:      50,
		},
		Indicators: IndicatorConfig{
			EMAFast:         12,
			EMASlow:         26,
			MACDFast:        12,
			MACDSlow:        26,
			MACDSignal:      9,
			VolumeSMA:       20,
			VolumeThreshold: 1.2,
		},
		Journal: JournalConfig{
			Type:    "csv",
			CSVPath: "data/simulation_orders.csv",
			DBPath:  "data/leverbot.sqlite",
		},
		Log: LogConfig{Level: "info", Pretty: true},
	}
}
