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

// Package store provides Postgres-backed access to sponsorship opportunities,
// company notification preferences, company contacts and the notification
// log. The tables live in the Supabase database shared with the web app;
// only sponsorship_notifications is owned by this service.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("not found")

// Store implements the read and write queries used by the notifier.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store backed by the given Postgres pool. It ensures the
// notification log table exists on creation.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure notification schema: %w", err)
	}
	slog.Info("sponsorship store initialised")
	return s, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sponsorship_notifications (
			id                     UUID PRIMARY KEY,
			company_id             UUID NOT NULL,
			notification_type      TEXT NOT NULL,
			status                 TEXT NOT NULL DEFAULT 'sent',
			sent_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			email_address          TEXT NOT NULL,
			resend_email_id        TEXT DEFAULT '',
			opportunities_included UUID[] NOT NULL DEFAULT '{}',
			opportunities_count    INT NOT NULL DEFAULT 0,
			opened_at              TIMESTAMPTZ,
			open_count             INT NOT NULL DEFAULT 0,
			clicked_at             TIMESTAMPTZ,
			click_count            INT NOT NULL DEFAULT 0,
			created_at             TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sponsorship_notifications_company
			ON sponsorship_notifications(company_id, sent_at DESC);
	`)
	return err
}

// execOne runs an update that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidID reports whether id is a UUID. Malformed ids never match a row and
// are rejected before they reach a $1::uuid comparison.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isNoRows reports whether err is pgx's no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
