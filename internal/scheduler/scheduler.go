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

// Package scheduler triggers the daily and weekly digest runs from inside
// the server process, for deployments without an external cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// RunFunc starts a digest run for the given cadence.
type RunFunc func(ctx context.Context, freq models.Frequency) error

// Config holds the schedule.
type Config struct {
	DailyHourUTC int
	WeeklyDay    time.Weekday
}

// Scheduler fires digest runs at fixed UTC times.
type Scheduler struct {
	cfg    Config
	run    RunFunc
	daily  cron.Schedule
	weekly cron.Schedule
}

// New creates a scheduler. The weekly run shares the daily hour.
func New(cfg Config, run RunFunc) (*Scheduler, error) {
	daily, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=UTC 0 %d * * *", cfg.DailyHourUTC))
	if err != nil {
		return nil, fmt.Errorf("daily schedule: %w", err)
	}
	weekly, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=UTC 0 %d * * %d", cfg.DailyHourUTC, int(cfg.WeeklyDay)))
	if err != nil {
		return nil, fmt.Errorf("weekly schedule: %w", err)
	}
	return &Scheduler{cfg: cfg, run: run, daily: daily, weekly: weekly}, nil
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Next returns the next run time strictly after now and the cadences due
// then.
func (s *Scheduler) Next(now time.Time) (time.Time, []models.Frequency) {
	now = now.UTC()
	at := s.daily.Next(now)
	due := []models.Frequency{models.FrequencyDaily}
	if s.weekly.Next(now).Equal(at) {
		due = append(due, models.FrequencyWeekly)
	}
	return at, due
}

// Run blocks until the context is cancelled, firing runs as they come due.
// A cadence whose previous run is still going is skipped.
func (s *Scheduler) Run(ctx context.Context) {
	logger := slogLogger{}
	chain := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))
	c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(logger))
	c.Schedule(s.daily, chain.Then(s.job(ctx, models.FrequencyDaily)))
	c.Schedule(s.weekly, chain.Then(s.job(ctx, models.FrequencyWeekly)))

	at, due := s.Next(time.Now())
	slog.Info("digest scheduler starting",
		"daily_hour_utc", s.cfg.DailyHourUTC,
		"weekly_day", s.cfg.WeeklyDay.String(),
		"next", at.Format(time.RFC3339),
		"cadences", due,
	)
	c.Start()

	<-ctx.Done()
	slog.Info("digest scheduler stopping")
	<-c.Stop().Done()
}

func (s *Scheduler) job(ctx context.Context, freq models.Frequency) cron.Job {
	return cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("scheduled digest run starting", "cadence", freq)
		if err := s.run(ctx, freq); err != nil {
			slog.Error("scheduled digest run failed", "cadence", freq, "error", err)
		}
	})
}

// slogLogger routes cron's internal logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
