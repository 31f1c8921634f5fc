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

// FraternityBase sponsorship notifier server.
//
// It:
//  1. Loads configuration from .env, config.yaml and the environment
//  2. Connects to PostgreSQL and Redis
//  3. Runs the immediate-alert worker on the Redis queue
//  4. Optionally schedules daily and weekly digests in-process
//  5. Serves the trigger, tracking and subscription HTTP API
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/api"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/app"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/config"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/queue"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/scheduler"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		app.SetupLogging(slog.LevelInfo)
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	app.SetupLogging(cfg.LogLevel)

	slog.Info("starting sponsorship notifier",
		"port", cfg.Port,
		"schedule", cfg.ScheduleEnabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{WantRedis: true})
	if err != nil {
		slog.Error("failed to initialise notifier", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	checks := map[string]api.Pinger{"postgres": a.Store}
	var wg sync.WaitGroup

	// --- Immediate Alert Queue ---
	var alerts api.AlertQueue
	if a.Redis != nil {
		publisher := queue.NewPublisher(a.Redis, cfg.AlertsQueue)
		alerts = publisher
		checks["redis"] = publisher

		worker := queue.NewWorker(publisher, func(ctx context.Context, opportunityID string) error {
			_, err := a.Dispatcher.SendImmediateNotification(ctx, opportunityID)
			return err
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		slog.Warn("no alert queue, immediate notifications run inline")
	}

	// --- Digest Scheduler ---
	if cfg.ScheduleEnabled {
		day, err := scheduler.ParseWeekday(cfg.WeeklyDay)
		if err != nil {
			slog.Error("invalid WEEKLY_DAY", "error", err)
			os.Exit(1)
		}
		sched, err := scheduler.New(scheduler.Config{
			DailyHourUTC: cfg.DailyHourUTC,
			WeeklyDay:    day,
		}, func(ctx context.Context, freq models.Frequency) error {
			_, err := a.Dispatcher.SendDigests(ctx, freq)
			return err
		})
		if err != nil {
			slog.Error("invalid digest schedule", "error", err)
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(ctx)
		}()
	}

	// --- HTTP API ---
	handler := api.NewHandler(a.Dispatcher, alerts, a.Store, checks)
	ready, err := api.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start api server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	<-ctx.Done()
	slog.Info("received shutdown signal")
	wg.Wait()

	slog.Info("sponsorship notifier stopped")
}
