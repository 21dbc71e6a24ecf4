package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Redis      RedisConfig      `yaml:"redis"`
	Climate    ClimateConfig    `yaml:"climate"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	RequirePermissions bool     `yaml:"require_permissions"`
	Admins             []string `yaml:"admins"` // granted users:permissions at startup
}

// CacheTTL returns the GET response cache lifetime.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Configured reports whether both VAPID keys are present.
func (p PushConfig) Configured() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// ReminderConfig controls the periodic due-date scan.
type ReminderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	HorizonHours    int           `yaml:"horizon_hours"`
	Horizon         time.Duration `yaml:"-"`
}

// RedisConfig holds the rotation event feed connection.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

// ClimateConfig holds temperature/humidity limits and trend settings.
type ClimateConfig struct {
	TemperatureMin    float64 `yaml:"temperature_min"`
	TemperatureMax    float64 `yaml:"temperature_max"`
	HumidityMin       float64 `yaml:"humidity_min"`
	HumidityMax       float64 `yaml:"humidity_max"`
	TrendWindowHours  int     `yaml:"trend_window_hours"`
	TrendTolerance    float64 `yaml:"trend_tolerance"`
	SummaryMaxSamples int     `yaml:"summary_max_samples"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds < 0 {
		cfg.Server.CacheTTLSeconds = 0
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Reminder.IntervalSeconds <= 0 {
		cfg.Reminder.IntervalSeconds = 3600
	}
	cfg.Reminder.Interval = time.Duration(cfg.Reminder.IntervalSeconds) * time.Second
	if cfg.Reminder.HorizonHours <= 0 {
		cfg.Reminder.HorizonHours = 72
	}
	cfg.Reminder.Horizon = time.Duration(cfg.Reminder.HorizonHours) * time.Hour

	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = "wheel-rotation:events"
	}
	if cfg.Redis.MaxLen < 0 {
		cfg.Redis.MaxLen = 0
	}

	if cfg.Climate.TemperatureMin == 0 && cfg.Climate.TemperatureMax == 0 {
		cfg.Climate.TemperatureMin, cfg.Climate.TemperatureMax = 15, 25
	}
	if cfg.Climate.HumidityMin == 0 && cfg.Climate.HumidityMax == 0 {
		cfg.Climate.HumidityMin, cfg.Climate.HumidityMax = 30, 60
	}
	if cfg.Climate.TrendWindowHours <= 0 {
		cfg.Climate.TrendWindowHours = 24
	}
	if cfg.Climate.TrendTolerance <= 0 {
		cfg.Climate.TrendTolerance = 0.5
	}
	if cfg.Climate.SummaryMaxSamples <= 0 {
		cfg.Climate.SummaryMaxSamples = 1000
	}
}
