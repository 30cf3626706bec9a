package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the lead engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Admission AdmissionConfig `yaml:"admission"`
	Resource  ResourceConfig  `yaml:"resource"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the connection for rate-limit counters and the
// maintenance-job lock.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AdmissionConfig holds the admission checklist policy knobs.
type AdmissionConfig struct {
	RateLimits        RateLimitConfig `yaml:"rate_limits"`
	MinTouchGapDays   int             `yaml:"min_touch_gap_days"`
	WarmupMinAgeDays  int             `yaml:"warmup_min_age_days"`
	CoolingPeriodDays int             `yaml:"cooling_period_days"`
	DefaultMaxTouches int             `yaml:"default_max_touches"`
}

// RateLimitConfig maps each channel to its per-tenant daily send
// ceiling. The channel set is closed: validation fails on startup if a
// channel is missing or nonpositive.
type RateLimitConfig struct {
	Email    int `yaml:"email"`
	SMS      int `yaml:"sms"`
	LinkedIn int `yaml:"linkedin"`
	Voice    int `yaml:"voice"`
	Mail     int `yaml:"mail"`
}

// ForChannel returns the daily ceiling for a channel, or 0 for an
// unknown channel.
func (r RateLimitConfig) ForChannel(c domain.Channel) int {
	switch c {
	case domain.ChannelEmail:
		return r.Email
	case domain.ChannelSMS:
		return r.SMS
	case domain.ChannelLinkedIn:
		return r.LinkedIn
	case domain.ChannelVoice:
		return r.Voice
	case domain.ChannelMail:
		return r.Mail
	}
	return 0
}

// Validate ensures every known channel has a positive ceiling.
func (r RateLimitConfig) Validate() error {
	for _, c := range domain.Channels {
		if r.ForChannel(c) <= 0 {
			return fmt.Errorf("rate limit for channel %q must be positive", c)
		}
	}
	return nil
}

// ResourceConfig holds the health thresholds and capacity derivation
// for shared sending resources.
type ResourceConfig struct {
	DailyLimitGood       int     `yaml:"daily_limit_good"`
	DailyLimitWarning    int     `yaml:"daily_limit_warning"`
	ResponseBufferRatio  float64 `yaml:"response_buffer_ratio"`
	BufferRatio          float64 `yaml:"buffer_ratio"`
	BounceCriticalPct    float64 `yaml:"bounce_critical_pct"`
	BounceWarningPct     float64 `yaml:"bounce_warning_pct"`
	ComplaintCriticalPct float64 `yaml:"complaint_critical_pct"`
	ComplaintWarningPct  float64 `yaml:"complaint_warning_pct"`
	RollingWindowDays    int     `yaml:"rolling_window_days"`
}

// IngestConfig holds the S3 enrichment feed settings.
type IngestConfig struct {
	Enabled   bool   `yaml:"enabled"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Prefix  string `yaml:"s3_prefix"`
	S3Region  string `yaml:"s3_region"`
	BatchSize int    `yaml:"batch_size"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Admission.RateLimits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("INGEST_S3_BUCKET"); v != "" {
		cfg.Ingest.S3Bucket = v
		cfg.Ingest.Enabled = true
	}
	if v := os.Getenv("INGEST_S3_REGION"); v != "" {
		cfg.Ingest.S3Region = v
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}

	rl := &cfg.Admission.RateLimits
	if rl.Email == 0 {
		rl.Email = 50
	}
	if rl.SMS == 0 {
		rl.SMS = 100
	}
	if rl.LinkedIn == 0 {
		rl.LinkedIn = 17
	}
	if rl.Voice == 0 {
		rl.Voice = 50
	}
	if rl.Mail == 0 {
		rl.Mail = 20
	}

	if cfg.Admission.MinTouchGapDays == 0 {
		cfg.Admission.MinTouchGapDays = 2
	}
	if cfg.Admission.WarmupMinAgeDays == 0 {
		cfg.Admission.WarmupMinAgeDays = 14
	}
	if cfg.Admission.CoolingPeriodDays == 0 {
		cfg.Admission.CoolingPeriodDays = 3
	}
	if cfg.Admission.DefaultMaxTouches == 0 {
		cfg.Admission.DefaultMaxTouches = 8
	}

	rc := &cfg.Resource
	if rc.DailyLimitGood == 0 {
		rc.DailyLimitGood = 50
	}
	if rc.DailyLimitWarning == 0 {
		rc.DailyLimitWarning = 35
	}
	if rc.ResponseBufferRatio == 0 {
		rc.ResponseBufferRatio = 0.10
	}
	if rc.BufferRatio == 0 {
		rc.BufferRatio = 0.40
	}
	if rc.BounceCriticalPct == 0 {
		rc.BounceCriticalPct = 5.0
	}
	if rc.BounceWarningPct == 0 {
		rc.BounceWarningPct = 2.0
	}
	if rc.ComplaintCriticalPct == 0 {
		rc.ComplaintCriticalPct = 0.1
	}
	if rc.ComplaintWarningPct == 0 {
		rc.ComplaintWarningPct = 0.05
	}
	if rc.RollingWindowDays == 0 {
		rc.RollingWindowDays = 30
	}

	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 500
	}
	if cfg.Ingest.S3Region == "" {
		cfg.Ingest.S3Region = "us-west-2"
	}
}
