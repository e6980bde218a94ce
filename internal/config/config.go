package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MotoTrader/internal/calculator"
	"MotoTrader/internal/collector"
	"MotoTrader/internal/model"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		Name      string `yaml:"name"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"app"`
	DataSource DataSource `yaml:"data_source"`
	Watchlist  []string   `yaml:"watchlist"`
	Macro      struct {
		Enabled   bool   `yaml:"enabled"`
		VIXSymbol string `yaml:"vix_symbol"`
		DXYSymbol string `yaml:"dxy_symbol"`
	} `yaml:"macro"`
	Weights struct {
		Tech        float64 `yaml:"tech"`
		Macro       float64 `yaml:"macro"`
		Fund        float64 `yaml:"fund"`
		UseAdaptive bool    `yaml:"use_adaptive"`
	} `yaml:"weights"`
	Adaptive struct {
		Alpha     float64 `yaml:"alpha"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"adaptive"`
	Risk struct {
		RiskCap       float64 `yaml:"risk_cap"`
		AutoReconcile bool    `yaml:"auto_reconcile"`
		MinBars       int     `yaml:"min_bars"`
	} `yaml:"risk"`
	Indicators calculator.Params `yaml:"indicators"`
	Ledger     struct {
		Backend      string  `yaml:"backend"`
		StateFile    string  `yaml:"state_file"`
		SQLitePath   string  `yaml:"sqlite_path"`
		Account      string  `yaml:"account"`
		StartingCash float64 `yaml:"starting_cash"`
	} `yaml:"ledger"`
	Schedule struct {
		CycleCron string `yaml:"cycle_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		ChatID      string `yaml:"chat_id"`
		PollTimeout int    `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"api"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// DataSource selects and tunes the market data provider.
type DataSource struct {
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	Period            string        `yaml:"period"`
	Interval          string        `yaml:"interval"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
}

// Ledger backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Data providers.
const (
	ProviderYahoo     = "yahoo"
	ProviderFinanceGo = "finance-go"
	ProviderMock      = "mock"
)

// DefaultRiskCap applies when risk.risk_cap is absent. An explicit 0 keeps
// every target exposure at 0.
const DefaultRiskCap = 0.05

// DefaultWatchlist is used when none is configured.
var DefaultWatchlist = []string{"SPY", "SOFI", "NVDA", "AMD"}

// Load reads .env (if present), the YAML file (if present), applies
// environment variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Fields where the zero value is a valid setting are seeded before
	// parsing, so only an absent key takes the default.
	cfg := &Config{}
	cfg.Macro.Enabled = true
	cfg.Risk.RiskCap = DefaultRiskCap

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LEDGER_STATE_FILE"); v != "" {
		c.Ledger.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CRON_CYCLE"); v != "" {
		c.Schedule.CycleCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("RISK_CAP"); v != "" {
		capValue, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse RISK_CAP %q: %w", v, err)
		}
		c.Risk.RiskCap = capValue
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "MotoTrader"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "console"
	}

	ds := &c.DataSource
	if ds.Provider == "" {
		ds.Provider = ProviderYahoo
	}
	if ds.Period == "" {
		ds.Period = "1y"
	}
	if ds.Interval == "" {
		ds.Interval = "1d"
	}
	if ds.Timeout == 0 {
		ds.Timeout = 30 * time.Second
	}
	if ds.RequestsPerSecond == 0 {
		ds.RequestsPerSecond = 2
	}
	if ds.Burst == 0 {
		ds.Burst = 2
	}
	if ds.BreakerFailures == 0 {
		ds.BreakerFailures = 3
	}
	if ds.BreakerTimeout == 0 {
		ds.BreakerTimeout = 60 * time.Second
	}

	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	for i, s := range c.Watchlist {
		c.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	if c.Macro.VIXSymbol == "" {
		c.Macro.VIXSymbol = "^VIX"
	}
	if c.Macro.DXYSymbol == "" {
		c.Macro.DXYSymbol = "DX-Y.NYB"
	}

	if c.Weights.Tech == 0 && c.Weights.Macro == 0 && c.Weights.Fund == 0 {
		c.Weights.Tech, c.Weights.Macro, c.Weights.Fund = 0.5, 0.3, 0.2
	}
	if c.Adaptive.Alpha == 0 {
		c.Adaptive.Alpha = 0.2
	}
	if c.Adaptive.StateFile == "" {
		c.Adaptive.StateFile = "data/attribution.json"
	}

	if c.Risk.MinBars == 0 {
		c.Risk.MinBars = collector.DefaultMinBars
	}

	c.Indicators = c.Indicators.WithDefaults()

	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendJSON
	}
	if c.Ledger.StateFile == "" {
		c.Ledger.StateFile = "data/portfolio.json"
	}
	if c.Ledger.SQLitePath == "" {
		c.Ledger.SQLitePath = "data/ledger.db"
	}
	if c.Ledger.Account == "" {
		c.Ledger.Account = "paper"
	}
	if c.Ledger.StartingCash == 0 {
		c.Ledger.StartingCash = model.DefaultStartingCash
	}

	if c.Schedule.CycleCron == "" {
		c.Schedule.CycleCron = "0 30 16 * * 1-5"
	}
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 30
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "mototrader:"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 15 * time.Minute
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/mototrader.db"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
}

// StaticWeights returns the configured weight vector on the simplex.
func (c *Config) StaticWeights() model.WeightVector {
	return model.WeightVector{
		model.FactorTech:  c.Weights.Tech,
		model.FactorMacro: c.Weights.Macro,
		model.FactorFund:  c.Weights.Fund,
	}.Normalize()
}

// TelegramEnabled reports whether both bot credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderFinanceGo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, finance-go, mock", c.DataSource.Provider)
	}
	if err := collector.ValidatePeriod(c.DataSource.Period); err != nil {
		return fmt.Errorf("data_source.period: %w", err)
	}
	if err := collector.ValidateInterval(c.DataSource.Interval); err != nil {
		return fmt.Errorf("data_source.interval: %w", err)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for _, s := range c.Watchlist {
		if s == "" {
			return fmt.Errorf("watchlist contains an empty symbol")
		}
	}

	for name, w := range map[string]float64{"tech": c.Weights.Tech, "macro": c.Weights.Macro, "fund": c.Weights.Fund} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weights.%s must be in [0, 1], got %v", name, w)
		}
	}
	if c.Weights.Tech+c.Weights.Macro+c.Weights.Fund <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if !(c.Adaptive.Alpha > 0 && c.Adaptive.Alpha <= 1) {
		return fmt.Errorf("adaptive.alpha must be in (0, 1], got %v", c.Adaptive.Alpha)
	}

	if !(c.Risk.RiskCap >= 0 && c.Risk.RiskCap <= 1) {
		return fmt.Errorf("risk.risk_cap must be in [0, 1], got %v", c.Risk.RiskCap)
	}
	if c.Risk.MinBars < 1 {
		return fmt.Errorf("risk.min_bars must be positive")
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}

	switch c.Ledger.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("ledger.backend %q is not one of json, sqlite, memory", c.Ledger.Backend)
	}
	if c.Ledger.StartingCash < 0 {
		return fmt.Errorf("ledger.starting_cash must not be negative")
	}

	if _, err := cronParser.Parse(c.Schedule.CycleCron); err != nil {
		return fmt.Errorf("schedule.cycle_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
