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

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// PrimaryContact returns the oldest company user with an email address, or
// nil if the company has none.
func (s *Store) PrimaryContact(ctx context.Context, companyID string) (*models.Contact, error) {
	if !ValidID(companyID) {
		return nil, nil
	}
	var c models.Contact
	err := s.pool.QueryRow(ctx, `
		SELECT email, COALESCE(first_name, ''), COALESCE(last_name, '')
		FROM company_users
		WHERE company_id = $1::uuid AND COALESCE(email, '') <> ''
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, companyID).Scan(&c.Email, &c.FirstName, &c.LastName)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertNotification appends a record to the notification log. An id is
// generated when rec.ID is empty.
func (s *Store) InsertNotification(ctx context.Context, rec *models.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	included := rec.OpportunitiesIncluded
	if included == nil {
		included = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sponsorship_notifications
			(id, company_id, notification_type, status, sent_at, email_address,
			 resend_email_id, opportunities_included, opportunities_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.CompanyID, string(rec.NotificationType), rec.Status, rec.SentAt,
		rec.EmailAddress, rec.ProviderMessageID, included, rec.OpportunitiesCount)
	if err != nil {
		return fmt.Errorf("insert notification for company %s: %w", rec.CompanyID, err)
	}
	return nil
}

// TrackOpen records an email open. The counter is incremented in a single
// statement so concurrent opens never lose updates.
func (s *Store) TrackOpen(ctx context.Context, notificationID string) error {
	if !ValidID(notificationID) {
		return ErrNotFound
	}
	return s.execOne(ctx, `
		UPDATE sponsorship_notifications
		SET opened_at = NOW(), open_count = open_count + 1
		WHERE id = $1::uuid
	`, notificationID)
}

// TrackClick records a link click.
func (s *Store) TrackClick(ctx context.Context, notificationID string) error {
	if !ValidID(notificationID) {
		return ErrNotFound
	}
	return s.execOne(ctx, `
		UPDATE sponsorship_notifications
		SET clicked_at = NOW(), click_count = click_count + 1
		WHERE id = $1::uuid
	`, notificationID)
}

// ListNotifications returns a company's notification history, newest first.
func (s *Store) ListNotifications(ctx context.Context, companyID string, limit, offset int) ([]models.NotificationRecord, error) {
	if !ValidID(companyID) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, company_id::text, notification_type, status, sent_at,
		       email_address, COALESCE(resend_email_id, ''),
		       opportunities_included::text[], opportunities_count,
		       opened_at, open_count, clicked_at, click_count
		FROM sponsorship_notifications
		WHERE company_id = $1::uuid
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.NotificationRecord
	for rows.Next() {
		r, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanNotification(row pgx.Row) (*models.NotificationRecord, error) {
	var r models.NotificationRecord
	var kind string
	err := row.Scan(
		&r.ID, &r.CompanyID, &kind, &r.Status, &r.SentAt,
		&r.EmailAddress, &r.ProviderMessageID,
		&r.OpportunitiesIncluded, &r.OpportunitiesCount,
		&r.OpenedAt, &r.OpenCount, &r.ClickedAt, &r.ClickCount,
	)
	if err != nil {
		return nil, err
	}
	r.NotificationType = models.NotificationType(kind)
	return &r, nil
}
