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

package dispatch

import (
	"log/slog"
	"time"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// SkipReason explains why a company received nothing in a run.
type SkipReason string

const (
	SkipNoContact  SkipReason = "no_contact"
	SkipNoMatches  SkipReason = "no_matches"
	SkipNotMatched SkipReason = "not_matched"
	SkipDuplicate  SkipReason = "duplicate"

	// SkipUnsubscribed is a row the store should already have filtered.
	SkipUnsubscribed SkipReason = "unsubscribed"
)

// Notes for runs that ended before processing any company.
const (
	NoteNoRecipients = "no_recipients"
	NoteNotFound     = "opportunity_not_found"
	NoteNotUrgent    = "opportunity_not_urgent"
)

// Summary describes the outcome of one run.
type Summary struct {
	Cadence       string             `json:"cadence"`
	OpportunityID string             `json:"opportunity_id,omitempty"`
	Note          string             `json:"note,omitempty"`
	Companies     int                `json:"companies"`
	Sent          int                `json:"sent"`
	Skipped       int                `json:"skipped"`
	Failed        int                `json:"failed"`
	SkipReasons   map[SkipReason]int `json:"skip_reasons,omitempty"`
	Failures      []Failure          `json:"failures,omitempty"`
	Elapsed       time.Duration      `json:"elapsed_ns"`
}

// Failure is a company whose processing errored.
type Failure struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Error       string `json:"error"`
}

func newSummary(cadence string) *Summary {
	return &Summary{
		Cadence:     cadence,
		SkipReasons: make(map[SkipReason]int),
	}
}

// record tallies one processed company and logs failures.
func (s *Summary) record(p *models.Preferences, reason SkipReason, err error) {
	s.Companies++
	switch {
	case err != nil:
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			CompanyID:   p.CompanyID,
			CompanyName: p.Company.Name,
			Error:       err.Error(),
		})
		slog.Error("sponsorship notification failed",
			"cadence", s.Cadence,
			"company", p.Company.Name,
			"company_id", p.CompanyID,
			"error", err,
		)
	case reason != "":
		s.Skipped++
		s.SkipReasons[reason]++
	default:
		s.Sent++
	}
}

func (s *Summary) finish(elapsed time.Duration) {
	s.Elapsed = elapsed
}
