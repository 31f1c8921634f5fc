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

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnv = []string{
	"DATABASE_URL", "REDIS_URL", "ALERTS_QUEUE", "EMAIL_PROVIDER", "RESEND_API_KEY",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_TIMEOUT", "FROM_EMAIL", "FRONTEND_URL",
	"SEND_INTERVAL", "DEDUP_ENABLED", "DEDUP_TTL", "SCHEDULE_ENABLED", "DAILY_HOUR_UTC",
	"WEEKLY_DAY", "PORT", "LOG_LEVEL",
}

// isolate clears every setting and points CONFIG_PATH at a missing file.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/fb")
	t.Setenv("RESEND_API_KEY", "re_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderResend {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.FromEmail != "sponsorships@fraternitybase.com" {
		t.Errorf("FromEmail = %q", cfg.FromEmail)
	}
	if cfg.FrontendURL != "https://fraternitybase.com" {
		t.Errorf("FrontendURL = %q", cfg.FrontendURL)
	}
	if cfg.SendInterval != 100*time.Millisecond {
		t.Errorf("SendInterval = %v", cfg.SendInterval)
	}
	if cfg.DedupEnabled || cfg.DedupTTL != 168*time.Hour {
		t.Errorf("dedup = %v %v", cfg.DedupEnabled, cfg.DedupTTL)
	}
	if cfg.ScheduleEnabled || cfg.DailyHourUTC != 9 || cfg.WeeklyDay != "monday" {
		t.Errorf("schedule = %v %d %q", cfg.ScheduleEnabled, cfg.DailyHourUTC, cfg.WeeklyDay)
	}
	if cfg.AlertsQueue != "sponsorship-alerts" || cfg.Port != 8080 {
		t.Errorf("queue/port = %q %d", cfg.AlertsQueue, cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/fb")
	t.Setenv("EMAIL_PROVIDER", "SMTP")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_TIMEOUT", "15s")
	t.Setenv("SEND_INTERVAL", "250ms")
	t.Setenv("DEDUP_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderSMTP || cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.Port != 2525 {
		t.Errorf("smtp = %q %+v", cfg.Provider, cfg.SMTP)
	}
	if cfg.SMTP.Timeout != 15*time.Second {
		t.Errorf("SMTP.Timeout = %v", cfg.SMTP.Timeout)
	}
	if cfg.SendInterval != 250*time.Millisecond {
		t.Errorf("SendInterval = %v", cfg.SendInterval)
	}
	if !cfg.DedupEnabled {
		t.Error("DedupEnabled = false")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)
	t.Setenv("RESEND_KEY_FROM_VAULT", "re_yaml")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  url: postgres://db/fb
redis:
  queues:
    alerts: alerts-yaml
email:
  from: team@fraternitybase.com
  resend_api_key: ${RESEND_KEY_FROM_VAULT}
  send_interval: 50ms
frontend_url: https://staging.fraternitybase.com
dedup:
  enabled: true
  ttl: 48h
schedule:
  enabled: true
  daily_hour_utc: 0
  weekly_day: Friday
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DAILY_HOUR_UTC", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db/fb" || cfg.ResendAPIKey != "re_yaml" {
		t.Errorf("db/key = %q %q", cfg.DatabaseURL, cfg.ResendAPIKey)
	}
	if cfg.AlertsQueue != "alerts-yaml" || cfg.FromEmail != "team@fraternitybase.com" {
		t.Errorf("queue/from = %q %q", cfg.AlertsQueue, cfg.FromEmail)
	}
	if cfg.SendInterval != 50*time.Millisecond || cfg.DedupTTL != 48*time.Hour || !cfg.DedupEnabled {
		t.Errorf("interval/dedup = %v %v %v", cfg.SendInterval, cfg.DedupTTL, cfg.DedupEnabled)
	}
	// An explicit zero hour in YAML is kept over the env var.
	if !cfg.ScheduleEnabled || cfg.DailyHourUTC != 0 || cfg.WeeklyDay != "friday" {
		t.Errorf("schedule = %v %d %q", cfg.ScheduleEnabled, cfg.DailyHourUTC, cfg.WeeklyDay)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"RESEND_API_KEY": "re_test"}},
		{"resend without key", map[string]string{"DATABASE_URL": "postgres://x"}},
		{"smtp without host", map[string]string{"DATABASE_URL": "postgres://x", "EMAIL_PROVIDER": "smtp"}},
		{"unknown provider", map[string]string{"DATABASE_URL": "postgres://x", "EMAIL_PROVIDER": "carrier-pigeon"}},
		{"hour out of range", map[string]string{"DATABASE_URL": "postgres://x", "RESEND_API_KEY": "k", "DAILY_HOUR_UTC": "24"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
