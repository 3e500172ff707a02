package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c-johnson06/optionSentinel/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Tradier struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		TTL     struct {
			Quote       time.Duration `yaml:"quote"`
			Expirations time.Duration `yaml:"expirations"`
			Chain       time.Duration `yaml:"chain"`
			Search      time.Duration `yaml:"search"`
			History     time.Duration `yaml:"history"`
		} `yaml:"ttl"`
	} `yaml:"tradier"`
	Scanner struct {
		DefaultTickers     []string `yaml:"default_tickers"`
		BroadMarketETFs    []string `yaml:"broad_market_etfs"`
		MegaCaps           []string `yaml:"mega_caps"`
		MaxUniverse        int      `yaml:"max_universe"`
		DefaultExpirations int      `yaml:"default_expirations"`
		DynamicExpirations int      `yaml:"dynamic_expirations"`
		MinScoreDefault    int      `yaml:"min_score_default"`
		MinScoreDynamic    int      `yaml:"min_score_dynamic"`
	} `yaml:"scanner"`
	Broadcast struct {
		Interval      time.Duration `yaml:"interval"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"broadcast"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables before validating, so secrets never have to live in the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRADIER_API_TOKEN"); v != "" {
		c.Tradier.Token = v
	}
	if v := os.Getenv("TRADIER_BASE_URL"); v != "" {
		c.Tradier.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("DEFAULT_TICKERS"); v != "" {
		c.Scanner.DefaultTickers = util.SplitSymbols(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Tradier.BaseURL == "" {
		c.Tradier.BaseURL = "https://sandbox.tradier.com/v1"
	}
	if c.Tradier.TTL.Quote == 0 {
		c.Tradier.TTL.Quote = 10 * time.Second
	}
	if c.Tradier.TTL.Expirations == 0 {
		c.Tradier.TTL.Expirations = 60 * time.Second
	}
	if c.Tradier.TTL.Chain == 0 {
		c.Tradier.TTL.Chain = 15 * time.Second
	}
	if c.Tradier.TTL.Search == 0 {
		c.Tradier.TTL.Search = 30 * time.Second
	}
	if c.Tradier.TTL.History == 0 {
		c.Tradier.TTL.History = 5 * time.Minute
	}
	if len(c.Scanner.DefaultTickers) == 0 {
		c.Scanner.DefaultTickers = []string{"SPY", "QQQ", "TSLA", "NVDA", "AAPL", "AMD"}
	}
	if len(c.Scanner.BroadMarketETFs) == 0 {
		c.Scanner.BroadMarketETFs = []string{"SPY", "QQQ", "IWM"}
	}
	if len(c.Scanner.MegaCaps) == 0 {
		c.Scanner.MegaCaps = []string{"TSLA", "NVDA", "AAPL", "MSFT", "AMZN", "META", "GOOGL", "AMD"}
	}
	if c.Scanner.MaxUniverse == 0 {
		c.Scanner.MaxUniverse = 20
	}
	if c.Scanner.DefaultExpirations == 0 {
		c.Scanner.DefaultExpirations = 1
	}
	if c.Scanner.DynamicExpirations == 0 {
		c.Scanner.DynamicExpirations = 3
	}
	if c.Scanner.MinScoreDefault == 0 {
		c.Scanner.MinScoreDefault = 40
	}
	if c.Scanner.MinScoreDynamic == 0 {
		c.Scanner.MinScoreDynamic = 30
	}
	if c.Broadcast.Interval == 0 {
		c.Broadcast.Interval = 30 * time.Second
	}
	if c.Broadcast.SweepInterval == 0 {
		c.Broadcast.SweepInterval = 60 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Tradier.Token == "" {
		return fmt.Errorf("tradier.token is required")
	}
	if len(c.Scanner.DefaultTickers) == 0 {
		return fmt.Errorf("scanner.default_tickers cannot be empty")
	}
	if c.Scanner.MaxUniverse < len(c.Scanner.DefaultTickers) {
		return fmt.Errorf("scanner.max_universe must cover the default tickers")
	}
	return nil
}
