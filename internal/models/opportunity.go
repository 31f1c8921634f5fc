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

// Package models defines the data structures shared across the sponsorship
// notification service.
package models

import "time"

// Opportunity statuses. Only active opportunities are eligible for matching.
const (
	StatusActive = "active"
	StatusClosed = "closed"
	StatusDraft  = "draft"
)

// Opportunity is one sponsorship ask posted by a chapter, with the chapter,
// university and organization display fields joined in at read time.
type Opportunity struct {
	ID                  string     `json:"id"`
	ChapterID           string     `json:"chapter_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	OpportunityType     string     `json:"opportunity_type"`
	TargetIndustries    []string   `json:"target_industries"`
	GeographicScope     string     `json:"geographic_scope"`
	BudgetNeeded        *float64   `json:"budget_needed,omitempty"`
	BudgetRange         string     `json:"budget_range,omitempty"`
	EventDate           *time.Time `json:"event_date,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	TimelineDescription string     `json:"timeline_description,omitempty"`
	ExpectedReach       *int       `json:"expected_reach,omitempty"`
	Deliverables        []string   `json:"deliverables"`
	Status              string     `json:"status"`
	IsFeatured          bool       `json:"is_featured"`
	IsUrgent            bool       `json:"is_urgent"`
	PostedAt            time.Time  `json:"posted_at"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`

	// Joined from chapters / universities / greek_organizations.
	ChapterName        string   `json:"chapter_name,omitempty"`
	UniversityName     string   `json:"university_name,omitempty"`
	UniversityState    string   `json:"university_state,omitempty"`
	OrganizationName   string   `json:"greek_org_name,omitempty"`
	ChapterInstagram   string   `json:"chapter_instagram,omitempty"`
	ChapterMemberCount *int     `json:"chapter_member_count,omitempty"`
	ChapterGrade       *float64 `json:"chapter_grade,omitempty"`
}

// Budget returns the budget needed and whether it is set. A zero budget
// counts as unset.
func (o *Opportunity) Budget() (float64, bool) {
	if o.BudgetNeeded == nil || *o.BudgetNeeded == 0 {
		return 0, false
	}
	return *o.BudgetNeeded, true
}

// Reach returns the expected reach and whether it is set. A zero reach
// counts as unset.
func (o *Opportunity) Reach() (int, bool) {
	if o.ExpectedReach == nil || *o.ExpectedReach == 0 {
		return 0, false
	}
	return *o.ExpectedReach, true
}
