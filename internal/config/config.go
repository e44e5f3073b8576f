package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int     `yaml:"port"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Matching struct {
		Strategy        string `yaml:"strategy"` // "schedule" or "rating"
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"matching"`

	Schedule struct {
		DefaultStart string `yaml:"default_start"` // "08:00"
		DefaultEnd   string `yaml:"default_end"`   // "20:00"
		WorkingDays  []int  `yaml:"working_days"`  // ISO weekdays, Monday=1
	} `yaml:"schedule"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/masterok.db"
	}
	if cfg.Matching.Strategy == "" {
		cfg.Matching.Strategy = "schedule"
	}
	if cfg.Schedule.DefaultStart == "" {
		cfg.Schedule.DefaultStart = "08:00"
	}
	if cfg.Schedule.DefaultEnd == "" {
		cfg.Schedule.DefaultEnd = "20:00"
	}
	if len(cfg.Schedule.WorkingDays) == 0 {
		cfg.Schedule.WorkingDays = []int{1, 2, 3, 4, 5} // Mon-Fri
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WorkingWeekdays converts configured ISO weekday numbers (Monday=1,
// Sunday=7) to time.Weekday values.
func (c *Config) WorkingWeekdays() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(c.Schedule.WorkingDays))
	for _, d := range c.Schedule.WorkingDays {
		if d < 1 || d > 7 {
			return nil, fmt.Errorf("working day out of range 1-7: %d", d)
		}
		days = append(days, time.Weekday(d%7)) // ISO 7 (Sunday) -> 0
	}
	return days, nil
}

// MatchCacheTTL returns the redis match-cache TTL; zero disables caching.
func (c *Config) MatchCacheTTL() time.Duration {
	if c.Matching.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Matching.CacheTTLSeconds) * time.Second
}
