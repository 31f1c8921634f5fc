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

package models

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a company wants to hear about new opportunities.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyNever     Frequency = "never"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly, FrequencyNever:
		return f, nil
	default:
		return "", fmt.Errorf("unknown email frequency %q", s)
	}
}

// Company is the display identity of a subscribing company.
type Company struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// Contact is the person a company's notifications are addressed to.
type Contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns the greeting name, falling back to "there" when no
// first name is on file.
func (c *Contact) DisplayName() string {
	if c == nil || strings.TrimSpace(c.FirstName) == "" {
		return "there"
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Preferences holds a company's sponsorship notification settings. Empty
// slices and zero bounds mean "no restriction".
type Preferences struct {
	CompanyID      string    `json:"company_id"`
	EmailFrequency Frequency `json:"email_frequency"`
	// SendTimeUTC is advisory; batch runs follow the scheduler, not this hour.
	SendTimeUTC int `json:"send_time_utc"`

	TargetStates        []string `json:"target_states"`
	TargetOrganizations []string `json:"target_organizations"`
	// TargetUniversities is stored but not used for matching.
	TargetUniversities         []string `json:"target_universities"`
	InterestedOpportunityTypes []string `json:"interested_opportunity_types"`
	ExcludedOpportunityTypes   []string `json:"excluded_opportunity_types"`
	PreferredGeographicScope   []string `json:"preferred_geographic_scope"`

	MinBudgetRange   float64 `json:"min_budget_range"`
	MaxBudgetRange   float64 `json:"max_budget_range"`
	MinExpectedReach int     `json:"min_expected_reach"`

	ReceiveFeaturedOpportunities bool       `json:"receive_featured_opportunities"`
	ReceiveUrgentAlerts          bool       `json:"receive_urgent_alerts"`
	UnsubscribedAt               *time.Time `json:"unsubscribed_at,omitempty"`

	Company Company `json:"company"`
}

// Unsubscribed reports whether the company has opted out of all sends.
func (p *Preferences) Unsubscribed() bool {
	return p.UnsubscribedAt != nil
}
