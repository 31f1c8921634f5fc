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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// opportunitySelect joins each opportunity with its chapter, university and
// organization display fields.
const opportunitySelect = `
	SELECT o.id::text, COALESCE(o.chapter_id::text, ''), o.title,
	       COALESCE(o.description, ''), o.opportunity_type,
	       COALESCE(o.target_industries, '{}'), COALESCE(o.geographic_scope, ''),
	       o.budget_needed::float8, COALESCE(o.budget_range, ''),
	       o.event_date::timestamptz, o.application_deadline::timestamptz,
	       COALESCE(o.timeline_description, ''), o.expected_reach::int,
	       COALESCE(o.deliverables, '{}'), o.status,
	       COALESCE(o.is_featured, false), COALESCE(o.is_urgent, false),
	       o.posted_at, o.expires_at,
	       COALESCE(c.chapter_name, ''), COALESCE(u.name, ''), COALESCE(u.state, ''),
	       COALESCE(g.name, ''), COALESCE(c.instagram_handle, ''),
	       c.member_count::int, c.grade::float8
	FROM sponsorship_opportunities o
	LEFT JOIN chapters c ON c.id = o.chapter_id
	LEFT JOIN universities u ON u.id = c.university_id
	LEFT JOIN greek_organizations g ON g.id = c.greek_organization_id
`

// ListActiveSince returns active opportunities posted at or after since,
// newest first.
func (s *Store) ListActiveSince(ctx context.Context, since time.Time) ([]models.Opportunity, error) {
	rows, err := s.pool.Query(ctx, opportunitySelect+`
		WHERE o.status = 'active' AND o.posted_at >= $1
		ORDER BY o.posted_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *o)
	}
	return opps, rows.Err()
}

// GetOpportunity returns a single opportunity with its joined fields, or
// nil if it does not exist.
func (s *Store) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	if !ValidID(id) {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, opportunitySelect+`WHERE o.id = $1::uuid`, id)
	o, err := scanOpportunity(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(
		&o.ID, &o.ChapterID, &o.Title,
		&o.Description, &o.OpportunityType,
		&o.TargetIndustries, &o.GeographicScope,
		&o.BudgetNeeded, &o.BudgetRange,
		&o.EventDate, &o.ApplicationDeadline,
		&o.TimelineDescription, &o.ExpectedReach,
		&o.Deliverables, &o.Status,
		&o.IsFeatured, &o.IsUrgent,
		&o.PostedAt, &o.ExpiresAt,
		&o.ChapterName, &o.UniversityName, &o.UniversityState,
		&o.OrganizationName, &o.ChapterInstagram,
		&o.ChapterMemberCount, &o.ChapterGrade,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
