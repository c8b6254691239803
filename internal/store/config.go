package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fx-bridge-bot/internal/types"
)

type Config struct {
	Symbol string `yaml:"symbol"`

	Paths struct {
		Snapshot string `yaml:"snapshot"`
		History  string `yaml:"history"`
		Signal   string `yaml:"signal"`
		Orders   string `yaml:"orders"`
		Decision string `yaml:"decision"`
		Memory   string `yaml:"memory"`
	} `yaml:"paths"`

	Poll struct {
		SignalSeconds   int `yaml:"signal_seconds"`
		RouterSeconds   int `yaml:"router_seconds"`
		ExecutorSeconds int `yaml:"executor_seconds"`
	} `yaml:"poll"`

	Router struct {
		MaxOpenTrades int     `yaml:"max_open_trades"`
		FixedLot      float64 `yaml:"fixed_lot"`
	} `yaml:"router"`

	Lot struct {
		Min       float64 `yaml:"min"`
		Increment float64 `yaml:"increment"`
	} `yaml:"lot"`

	Executor struct {
		AcceptConfidence []string `yaml:"accept_confidence"`
		Slippage         int      `yaml:"slippage"`
	} `yaml:"executor"`

	Indicators struct {
		MAWindow int     `yaml:"ma_window"`
		BBWindow int     `yaml:"bb_window"`
		BBStdDev float64 `yaml:"bb_stddev"`
	} `yaml:"indicators"`

	Stream struct {
		CSVPath         string `yaml:"csv_path"`
		RollingWindow   int    `yaml:"rolling_window"`
		IntervalSeconds int    `yaml:"interval_seconds"`
	} `yaml:"stream"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol cannot be empty")
	}
	if c.Paths.Snapshot == "" || c.Paths.Signal == "" || c.Paths.Orders == "" {
		return errors.New("paths.snapshot, paths.signal and paths.orders are required")
	}
	if c.Router.MaxOpenTrades <= 0 {
		return fmt.Errorf("router.max_open_trades must be positive, got %d", c.Router.MaxOpenTrades)
	}
	if c.Router.FixedLot < c.Lot.Min {
		return fmt.Errorf("router.fixed_lot %.4f below lot.min %.4f", c.Router.FixedLot, c.Lot.Min)
	}
	if c.Lot.Min <= 0 || c.Lot.Increment <= 0 {
		return fmt.Errorf("lot.min and lot.increment must be positive, got %.4f / %.4f", c.Lot.Min, c.Lot.Increment)
	}
	for _, lvl := range c.Executor.AcceptConfidence {
		switch lvl {
		case types.ConfidenceLow, types.ConfidenceMedium, types.ConfidenceHigh:
		default:
			return fmt.Errorf("executor.accept_confidence contains unknown level '%s'", lvl)
		}
	}
	if c.Indicators.MAWindow <= 0 || c.Indicators.BBWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive, got ma=%d bb=%d", c.Indicators.MAWindow, c.Indicators.BBWindow)
	}
	if c.Stream.RollingWindow < c.Indicators.BBWindow {
		return fmt.Errorf("stream.rolling_window %d smaller than indicators.bb_window %d", c.Stream.RollingWindow, c.Indicators.BBWindow)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Poll.SignalSeconds == 0 {
		c.Poll.SignalSeconds = 5
	}
	if c.Poll.RouterSeconds == 0 {
		c.Poll.RouterSeconds = 2
	}
	if c.Poll.ExecutorSeconds == 0 {
		c.Poll.ExecutorSeconds = 10
	}
	if c.Router.MaxOpenTrades == 0 {
		c.Router.MaxOpenTrades = 4
	}
	if c.Router.FixedLot == 0 {
		c.Router.FixedLot = 0.10
	}
	if c.Lot.Min == 0 {
		c.Lot.Min = 0.01
	}
	if c.Lot.Increment == 0 {
		c.Lot.Increment = 0.01
	}
	if c.Executor.Slippage == 0 {
		c.Executor.Slippage = 3
	}
	if len(c.Executor.AcceptConfidence) == 0 {
		c.Executor.AcceptConfidence = []string{types.ConfidenceMedium, types.ConfidenceHigh}
	}
	if c.Indicators.MAWindow == 0 {
		c.Indicators.MAWindow = 10
	}
	if c.Indicators.BBWindow == 0 {
		c.Indicators.BBWindow = 20
	}
	if c.Indicators.BBStdDev == 0 {
		c.Indicators.BBStdDev = 2.0
	}
	if c.Stream.RollingWindow == 0 {
		c.Stream.RollingWindow = 20
	}
	if c.Stream.IntervalSeconds == 0 {
		c.Stream.IntervalSeconds = 60
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9150"
	}
}

// AcceptsConfidence reports whether the advisor confidence level passes the
// configured acceptance set.
func (c *Config) AcceptsConfidence(level string) bool {
	for _, lvl := range c.Executor.AcceptConfidence {
		if lvl == level {
			return true
		}
	}
	return false
}
