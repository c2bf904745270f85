package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // trading-date timezone must resolve in minimal images

	applogger "DarkPull/pkg/logger"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Log         applogger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"20"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL        string        `yaml:"base_url" default:"https://api.polygon.io"`
		APIKey         string        `yaml:"api_key"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"5"`
		Burst          int           `yaml:"burst" default:"5"`
		PageLimit      int           `yaml:"page_limit" default:"50000"`
		MaxPages       int           `yaml:"max_pages" default:"200"`
	} `yaml:"provider"`
	Batch struct {
		Concurrency   int           `yaml:"concurrency" default:"5"`
		Delay         time.Duration `yaml:"delay" default:"1s"`
		Retries       int           `yaml:"retries" default:"3"`
		RetryInterval time.Duration `yaml:"retry_interval" default:"500ms"`
		RetryStrategy string        `yaml:"retry_strategy" default:"linear"`
	} `yaml:"batch"`
	Store struct {
		Backend   string `yaml:"backend" default:"memory"` // memory, redis, clickhouse
		KeyPrefix string `yaml:"key_prefix" default:"darkpool:daily"`
		Table     string `yaml:"table" default:"darkpool_daily_stats"`
	} `yaml:"store"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"darkpull"`
		L1Size   int    `yaml:"l1_size" default:"512"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"darkpull"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"darkpool.alerts"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Notify struct {
		WebhookURL     string            `yaml:"webhook_url"`
		WebhookHeaders map[string]string `yaml:"webhook_headers"`
		Timeout        time.Duration     `yaml:"timeout" default:"10s"`
		MaxScenarios   int               `yaml:"max_scenarios" default:"20"`
	} `yaml:"notify"`
	DarkPool struct {
		VenueCode         int           `yaml:"venue_code" default:"4"`
		Timezone          string        `yaml:"timezone" default:"America/New_York"`
		ChunkSize         int           `yaml:"chunk_size" default:"10000"`
		MinActivityRatio  float64       `yaml:"min_activity_ratio" default:"3.0"`
		MinPrice          float64       `yaml:"min_price" default:"10"`
		MinTotalValue     float64       `yaml:"min_total_value" default:"250000000"`
		MaxResults        int           `yaml:"max_results" default:"50"`
		RatioWindowDays   int           `yaml:"ratio_window_days" default:"7"`
		HistoryWindowDays int           `yaml:"history_window_days" default:"90"`
		RecentDays        int           `yaml:"recent_days" default:"5"`
		HistoryRefresh    time.Duration `yaml:"history_refresh" default:"15m"`
	} `yaml:"darkpool"`
	Straddle struct {
		ProfitableThreshold    float64       `yaml:"profitable_threshold" default:"55"`
		DaysToExpiration       int           `yaml:"days_to_expiration" default:"30"`
		LookbackDays           int           `yaml:"lookback_days" default:"365"`
		CacheTTL               time.Duration `yaml:"cache_ttl" default:"5m"`
		SyntheticDailyVol      float64       `yaml:"synthetic_daily_vol" default:"0.02"`
		SyntheticMeanReversion float64       `yaml:"synthetic_mean_reversion" default:"0.05"`
		DefaultAnnualVol       float64       `yaml:"default_annual_vol" default:"0.35"`
	} `yaml:"straddle"`
	Pipeline struct {
		MaxTickers    int     `yaml:"max_tickers" default:"50"`
		MinTotalValue float64 `yaml:"min_total_value" default:"100000000"`
		Schedule      string  `yaml:"schedule"` // cron spec, empty disables
		Notify        bool    `yaml:"notify" default:"true"`
	} `yaml:"pipeline"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("POLYGON_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = p
		}
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Backend {
	case "memory", "redis", "clickhouse":
	default:
		return fmt.Errorf("store.backend must be 'memory', 'redis' or 'clickhouse', got '%s'", c.Store.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Batch.Retries < 1 {
		return fmt.Errorf("batch.retries must be at least 1, got %d", c.Batch.Retries)
	}
	if c.DarkPool.RatioWindowDays < 1 || c.DarkPool.HistoryWindowDays < c.DarkPool.RatioWindowDays {
		return fmt.Errorf("darkpool windows invalid: ratio=%d history=%d", c.DarkPool.RatioWindowDays, c.DarkPool.HistoryWindowDays)
	}
	if c.DarkPool.MinActivityRatio <= 0 {
		return fmt.Errorf("darkpool.min_activity_ratio must be positive")
	}
	if c.Straddle.ProfitableThreshold < 0 || c.Straddle.ProfitableThreshold > 100 {
		return fmt.Errorf("straddle.profitable_threshold must be within [0, 100], got %v", c.Straddle.ProfitableThreshold)
	}
	if c.Straddle.DaysToExpiration < 1 {
		return fmt.Errorf("straddle.days_to_expiration must be positive")
	}
	if _, err := time.LoadLocation(c.DarkPool.Timezone); err != nil {
		return fmt.Errorf("darkpool.timezone: %w", err)
	}
	return nil
}

// Location returns the trading-date timezone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DarkPool.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
