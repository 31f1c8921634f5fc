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

	"github.com/jackc/pgx/v5"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// preferencesSelect joins preferences with the owning company. The inner
// join drops preference rows whose company no longer exists.
const preferencesSelect = `
	SELECT p.company_id::text, p.email_frequency, COALESCE(p.send_time_utc, 9)::int,
	       COALESCE(p.target_states, '{}'), COALESCE(p.target_organizations, '{}'),
	       COALESCE(p.target_universities, '{}'),
	       COALESCE(p.interested_opportunity_types, '{}'),
	       COALESCE(p.excluded_opportunity_types, '{}'),
	       COALESCE(p.preferred_geographic_scope, '{}'),
	       COALESCE(p.min_budget_range, 0)::float8, COALESCE(p.max_budget_range, 0)::float8,
	       COALESCE(p.min_expected_reach, 0)::int,
	       COALESCE(p.receive_featured_opportunities, true),
	       COALESCE(p.receive_urgent_alerts, false),
	       p.unsubscribed_at,
	       c.id::text, COALESCE(c.name, ''), COALESCE(c.industry, '')
	FROM sponsorship_notification_preferences p
	JOIN companies c ON c.id = p.company_id
`

// preferencesOrder gives batch runs a deterministic company order.
const preferencesOrder = ` ORDER BY c.name, c.id`

const listByFrequencySQL = preferencesSelect + `
	WHERE p.email_frequency = $1 AND p.unsubscribed_at IS NULL
` + preferencesOrder

const listImmediateSQL = preferencesSelect + `
	WHERE (p.email_frequency = 'immediate' OR p.receive_urgent_alerts = true)
	  AND p.unsubscribed_at IS NULL
` + preferencesOrder

// ListByFrequency returns subscribed companies with the given email frequency.
func (s *Store) ListByFrequency(ctx context.Context, freq models.Frequency) ([]models.Preferences, error) {
	rows, err := s.pool.Query(ctx, listByFrequencySQL, string(freq))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPreferences(rows)
}

// ListImmediateRecipients returns subscribed companies that want immediate
// emails or have opted in to urgent alerts.
func (s *Store) ListImmediateRecipients(ctx context.Context) ([]models.Preferences, error) {
	rows, err := s.pool.Query(ctx, listImmediateSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPreferences(rows)
}

// GetPreferences returns one company's preferences, or nil if none exist.
func (s *Store) GetPreferences(ctx context.Context, companyID string) (*models.Preferences, error) {
	if !ValidID(companyID) {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, preferencesSelect+`WHERE p.company_id = $1::uuid`, companyID)
	p, err := scanPreferences(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// EnsurePreferences returns a company's preferences, creating the daily
// defaults first when the company has none. A malformed id is ErrNotFound.
func (s *Store) EnsurePreferences(ctx context.Context, companyID string) (*models.Preferences, error) {
	if !ValidID(companyID) {
		return nil, ErrNotFound
	}
	p, err := s.GetPreferences(ctx, companyID)
	if err != nil || p != nil {
		return p, err
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO sponsorship_notification_preferences (company_id, email_frequency, send_time_utc)
		VALUES ($1::uuid, 'daily', 9)
	`, companyID); err != nil {
		return nil, fmt.Errorf("create default preferences for company %s: %w", companyID, err)
	}
	return s.GetPreferences(ctx, companyID)
}

// Unsubscribe opts a company out of all sponsorship emails.
func (s *Store) Unsubscribe(ctx context.Context, companyID, reason string) error {
	if !ValidID(companyID) {
		return ErrNotFound
	}
	var r *string
	if reason != "" {
		r = &reason
	}
	if err := s.execOne(ctx, `
		UPDATE sponsorship_notification_preferences
		SET email_frequency = 'never', unsubscribed_at = NOW(), unsubscribe_reason = $2
		WHERE company_id = $1::uuid
	`, companyID, r); err != nil {
		return fmt.Errorf("unsubscribe company %s: %w", companyID, err)
	}
	return nil
}

// Resubscribe clears a company's opt-out and restores the given frequency.
func (s *Store) Resubscribe(ctx context.Context, companyID string, freq models.Frequency) error {
	if !ValidID(companyID) {
		return ErrNotFound
	}
	if err := s.execOne(ctx, `
		UPDATE sponsorship_notification_preferences
		SET email_frequency = $2, unsubscribed_at = NULL, unsubscribe_reason = NULL
		WHERE company_id = $1::uuid
	`, companyID, string(freq)); err != nil {
		return fmt.Errorf("resubscribe company %s: %w", companyID, err)
	}
	return nil
}

func scanPreferences(row pgx.Row) (*models.Preferences, error) {
	var p models.Preferences
	var freq string
	err := row.Scan(
		&p.CompanyID, &freq, &p.SendTimeUTC,
		&p.TargetStates, &p.TargetOrganizations,
		&p.TargetUniversities,
		&p.InterestedOpportunityTypes,
		&p.ExcludedOpportunityTypes,
		&p.PreferredGeographicScope,
		&p.MinBudgetRange, &p.MaxBudgetRange,
		&p.MinExpectedReach,
		&p.ReceiveFeaturedOpportunities,
		&p.ReceiveUrgentAlerts,
		&p.UnsubscribedAt,
		&p.Company.ID, &p.Company.Name, &p.Company.Industry,
	)
	if err != nil {
		return nil, err
	}
	p.EmailFrequency = models.Frequency(freq)
	return &p, nil
}

func collectPreferences(rows pgx.Rows) ([]models.Preferences, error) {
	var prefs []models.Preferences
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, *p)
	}
	return prefs, rows.Err()
}
