// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Email providers.
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// SMTPConfig holds relay settings for the smtp provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Config holds all configuration for the notifier.
type Config struct {
	DatabaseURL string

	// Redis
	RedisURL    string
	AlertsQueue string

	// Email
	Provider     string
	ResendAPIKey string
	SMTP         SMTPConfig
	FromEmail    string
	FrontendURL  string
	SendInterval time.Duration

	// Dedup
	DedupEnabled bool
	DedupTTL     time.Duration

	// Schedule
	ScheduleEnabled bool
	DailyHourUTC    int
	WeeklyDay       string

	Port     int
	LogLevel slog.Level
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Alerts string `yaml:"alerts"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Email struct {
		Provider     string `yaml:"provider"`
		From         string `yaml:"from"`
		ResendAPIKey string `yaml:"resend_api_key"`
		SendInterval string `yaml:"send_interval"`
		SMTP         struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			Timeout  string `yaml:"timeout"`
		} `yaml:"smtp"`
	} `yaml:"email"`
	FrontendURL string `yaml:"frontend_url"`
	Dedup       struct {
		Enabled *bool  `yaml:"enabled"`
		TTL     string `yaml:"ttl"`
	} `yaml:"dedup"`
	Schedule struct {
		Enabled      *bool  `yaml:"enabled"`
		DailyHourUTC *int   `yaml:"daily_hour_utc"`
		WeeklyDay    string `yaml:"weekly_day"`
	} `yaml:"schedule"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. YAML values win; environment variables fill the
// gaps. A missing config file is allowed.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config/config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using environment only", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	default:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:  firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		RedisURL:     firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		AlertsQueue:  firstNonEmpty(raw.Redis.Queues.Alerts, envOrDefault("ALERTS_QUEUE", "sponsorship-alerts")),
		Provider:     strings.ToLower(firstNonEmpty(raw.Email.Provider, envOrDefault("EMAIL_PROVIDER", ProviderResend))),
		ResendAPIKey: firstNonEmpty(raw.Email.ResendAPIKey, os.Getenv("RESEND_API_KEY")),
		SMTP: SMTPConfig{
			Host:     firstNonEmpty(raw.Email.SMTP.Host, os.Getenv("SMTP_HOST")),
			Port:     firstPositive(raw.Email.SMTP.Port, envOrDefaultInt("SMTP_PORT", 587)),
			Username: firstNonEmpty(raw.Email.SMTP.Username, os.Getenv("SMTP_USER")),
			Password: firstNonEmpty(raw.Email.SMTP.Password, os.Getenv("SMTP_PASS")),
			Timeout:  durationOr(raw.Email.SMTP.Timeout, envOrDefaultDuration("SMTP_TIMEOUT", 30*time.Second)),
		},
		FromEmail:    firstNonEmpty(raw.Email.From, envOrDefault("FROM_EMAIL", "sponsorships@fraternitybase.com")),
		FrontendURL:  firstNonEmpty(raw.FrontendURL, envOrDefault("FRONTEND_URL", "https://fraternitybase.com")),
		SendInterval: durationOr(raw.Email.SendInterval, envOrDefaultDuration("SEND_INTERVAL", 100*time.Millisecond)),

		DedupEnabled: boolOr(raw.Dedup.Enabled, envOrDefaultBool("DEDUP_ENABLED", false)),
		DedupTTL:     durationOr(raw.Dedup.TTL, envOrDefaultDuration("DEDUP_TTL", 7*24*time.Hour)),

		ScheduleEnabled: boolOr(raw.Schedule.Enabled, envOrDefaultBool("SCHEDULE_ENABLED", false)),
		DailyHourUTC:    intOr(raw.Schedule.DailyHourUTC, envOrDefaultInt("DAILY_HOUR_UTC", 9)),
		WeeklyDay:       strings.ToLower(firstNonEmpty(raw.Schedule.WeeklyDay, envOrDefault("WEEKLY_DAY", "monday"))),

		Port:     envOrDefaultInt("PORT", 8080),
		LogLevel: parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Provider {
	case ProviderResend:
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
	case ProviderSMTP:
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp provider")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q (want resend or smtp)", c.Provider)
	}
	if c.DailyHourUTC < 0 || c.DailyHourUTC > 23 {
		return fmt.Errorf("DAILY_HOUR_UTC must be between 0 and 23, got %d", c.DailyHourUTC)
	}
	return nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return fallback
}

func boolOr(b *bool, fallback bool) bool {
	if b != nil {
		return *b
	}
	return fallback
}

func intOr(n *int, fallback int) int {
	if n != nil {
		return *n
	}
	return fallback
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
