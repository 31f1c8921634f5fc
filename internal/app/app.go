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

// Package app wires the notifier's dependencies from configuration. Both
// commands build the same dispatcher through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/config"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/dedup"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/dispatch"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/email"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/render"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/store"
)

// App holds the process-wide clients.
type App struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client // nil when Redis is not in use
	Store      *store.Store
	Dispatcher *dispatch.Dispatcher
}

// Options selects optional infrastructure.
type Options struct {
	// WantRedis connects to Redis even when dedup is off. A failed
	// connection is then logged and Redis left nil.
	WantRedis bool
}

// SetupLogging installs the JSON slog handler at the given level.
func SetupLogging(level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// New connects to Postgres (and Redis when needed) and builds the
// dispatcher. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create Postgres pool: %w", err)
	}
	a.Pool = pool
	if err := pool.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	slog.Info("connected to PostgreSQL")

	st, err := store.New(ctx, pool)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialise store: %w", err)
	}
	a.Store = st

	if cfg.DedupEnabled || opts.WantRedis {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		switch {
		case err != nil && cfg.DedupEnabled:
			a.Close()
			return nil, fmt.Errorf("dedup enabled but Redis unavailable: %w", err)
		case err != nil:
			slog.Warn("Redis unavailable, continuing without it", "error", err)
		default:
			a.Redis = rdb
			slog.Info("connected to Redis")
		}
	}

	renderer, err := render.NewRenderer(cfg.FrontendURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	dcfg := dispatch.Config{
		Preferences:   st,
		Opportunities: st,
		Contacts:      st,
		Log:           st,
		Sender:        NewSender(cfg),
		Renderer:      renderer,
		From:          cfg.FromEmail,
		SendInterval:  cfg.SendInterval,
	}
	if cfg.DedupEnabled {
		dcfg.Dedup = dedup.NewFilter(a.Redis, cfg.DedupTTL)
	}
	a.Dispatcher = dispatch.New(dcfg)

	slog.Info("notifier initialised",
		"provider", cfg.Provider,
		"from", cfg.FromEmail,
		"frontend_url", cfg.FrontendURL,
		"send_interval", cfg.SendInterval,
		"dedup", cfg.DedupEnabled,
	)
	return a, nil
}

// NewSender returns the configured email provider.
func NewSender(cfg *config.Config) email.Sender {
	if cfg.Provider == config.ProviderSMTP {
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			Timeout:  cfg.SMTP.Timeout,
		})
	}
	return email.NewResendSender(cfg.ResendAPIKey)
}

// Close releases every client.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
