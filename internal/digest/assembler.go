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

// Package digest assembles the list of opportunities that go into one
// company's digest email.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/matcher"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

const (
	// DailyWindow is the lookback for daily digests.
	DailyWindow = 24 * time.Hour
	// WeeklyWindow is the lookback for weekly digests.
	WeeklyWindow = 7 * 24 * time.Hour
)

// OpportunitySource lists active opportunities posted at or after since,
// newest first. Implemented by store.Store.
type OpportunitySource interface {
	ListActiveSince(ctx context.Context, since time.Time) ([]models.Opportunity, error)
}

// Assembler fetches candidate opportunities and filters them for a company.
type Assembler struct {
	source OpportunitySource
}

// NewAssembler creates a digest assembler reading from source.
func NewAssembler(source OpportunitySource) *Assembler {
	return &Assembler{source: source}
}

// Collect returns the opportunities posted since the given time that match
// prefs, featured first. Within each group the store's posted-time order is
// kept. The result may be empty.
func (a *Assembler) Collect(ctx context.Context, prefs *models.Preferences, since time.Time) ([]models.Opportunity, error) {
	candidates, err := a.source.ListActiveSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list opportunities since %s: %w", since.Format(time.RFC3339), err)
	}

	matched := matcher.Filter(candidates, prefs)

	slog.Debug("digest assembled",
		"company_id", prefs.CompanyID,
		"candidates", len(candidates),
		"matched", len(matched),
	)

	return FeaturedFirst(matched), nil
}

// FeaturedFirst stably partitions opps so featured opportunities come first.
func FeaturedFirst(opps []models.Opportunity) []models.Opportunity {
	if len(opps) == 0 {
		return opps
	}
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.IsFeatured {
			out = append(out, o)
		}
	}
	for _, o := range opps {
		if !o.IsFeatured {
			out = append(out, o)
		}
	}
	return out
}

// Window returns the start of the lookback window for a digest frequency.
func Window(now time.Time, freq models.Frequency) (time.Time, error) {
	switch freq {
	case models.FrequencyDaily:
		return now.Add(-DailyWindow), nil
	case models.FrequencyWeekly:
		return now.Add(-WeeklyWindow), nil
	default:
		return time.Time{}, fmt.Errorf("no digest window for frequency %q", freq)
	}
}
