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

package matcher

import (
	"testing"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func baseOpportunity() models.Opportunity {
	return models.Opportunity{
		ID:               "opp-1",
		OpportunityType:  "event_sponsor",
		GeographicScope:  "local",
		BudgetNeeded:     ptrFloat(5000),
		ExpectedReach:    ptrInt(2500),
		Status:           models.StatusActive,
		UniversityState:  "TX",
		OrganizationName: "Sigma Chi",
	}
}

// TestMatches_Filters verifies each predicate independently.
func TestMatches_Filters(t *testing.T) {
	tests := []struct {
		name  string
		opp   func(o *models.Opportunity)
		prefs models.Preferences
		want  bool
	}{
		{name: "empty preferences", want: true},
		{
			name:  "excluded type",
			prefs: models.Preferences{ExcludedOpportunityTypes: []string{"event_sponsor"}},
			want:  false,
		},
		{
			name: "exclusion beats interest",
			prefs: models.Preferences{
				InterestedOpportunityTypes: []string{"event_sponsor"},
				ExcludedOpportunityTypes:   []string{"event_sponsor"},
			},
			want: false,
		},
		{
			name:  "interested type present",
			prefs: models.Preferences{InterestedOpportunityTypes: []string{"venue_rental", "event_sponsor"}},
			want:  true,
		},
		{
			name:  "interested type missing",
			prefs: models.Preferences{InterestedOpportunityTypes: []string{"venue_rental"}},
			want:  false,
		},
		{
			name:  "state outside targets",
			prefs: models.Preferences{TargetStates: []string{"CA"}},
			want:  false,
		},
		{
			name:  "state unknown passes",
			opp:   func(o *models.Opportunity) { o.UniversityState = "" },
			prefs: models.Preferences{TargetStates: []string{"CA"}},
			want:  true,
		},
		{
			name:  "organization outside targets",
			prefs: models.Preferences{TargetOrganizations: []string{"Kappa Sigma"}},
			want:  false,
		},
		{
			name:  "organization unknown passes",
			opp:   func(o *models.Opportunity) { o.OrganizationName = "" },
			prefs: models.Preferences{TargetOrganizations: []string{"Kappa Sigma"}},
			want:  true,
		},
		{
			name:  "budget below minimum",
			prefs: models.Preferences{MinBudgetRange: 6000},
			want:  false,
		},
		{
			name:  "budget above maximum",
			prefs: models.Preferences{MaxBudgetRange: 4000},
			want:  false,
		},
		{
			name:  "budget within bounds",
			prefs: models.Preferences{MinBudgetRange: 1000, MaxBudgetRange: 5000},
			want:  true,
		},
		{
			name:  "nil budget passes bounds",
			opp:   func(o *models.Opportunity) { o.BudgetNeeded = nil },
			prefs: models.Preferences{MinBudgetRange: 6000, MaxBudgetRange: 7000},
			want:  true,
		},
		{
			name:  "zero budget passes bounds",
			opp:   func(o *models.Opportunity) { o.BudgetNeeded = ptrFloat(0) },
			prefs: models.Preferences{MinBudgetRange: 6000},
			want:  true,
		},
		{
			name:  "scope not preferred",
			prefs: models.Preferences{PreferredGeographicScope: []string{"national"}},
			want:  false,
		},
		{
			name:  "reach below floor",
			prefs: models.Preferences{MinExpectedReach: 3000},
			want:  false,
		},
		{
			name:  "unknown reach passes floor",
			opp:   func(o *models.Opportunity) { o.ExpectedReach = nil },
			prefs: models.Preferences{MinExpectedReach: 3000},
			want:  true,
		},
		{
			name:  "target universities ignored",
			prefs: models.Preferences{TargetUniversities: []string{"Nowhere State"}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := baseOpportunity()
			if tt.opp != nil {
				tt.opp(&opp)
			}
			prefs := tt.prefs
			if got := Matches(&opp, &prefs); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatches_Total verifies nil and zero-value inputs never panic.
func TestMatches_Total(t *testing.T) {
	if Matches(nil, &models.Preferences{}) {
		t.Error("nil opportunity should not match")
	}
	if !Matches(&models.Opportunity{}, nil) {
		t.Error("nil preferences should match everything")
	}
	if !Matches(&models.Opportunity{}, &models.Preferences{}) {
		t.Error("zero-value inputs should match")
	}
}

// TestMatches_Deterministic verifies repeated calls agree.
func TestMatches_Deterministic(t *testing.T) {
	opp := baseOpportunity()
	prefs := models.Preferences{TargetStates: []string{"TX"}, MinBudgetRange: 2000}
	first := Matches(&opp, &prefs)
	for i := 0; i < 10; i++ {
		if Matches(&opp, &prefs) != first {
			t.Fatal("Matches returned different results for identical inputs")
		}
	}
}

// TestFilter_PreservesOrder verifies Filter keeps input order.
func TestFilter_PreservesOrder(t *testing.T) {
	a := baseOpportunity()
	a.ID = "a"
	b := baseOpportunity()
	b.ID = "b"
	b.OpportunityType = "venue_rental"
	c := baseOpportunity()
	c.ID = "c"

	got := Filter([]models.Opportunity{a, b, c}, &models.Preferences{
		ExcludedOpportunityTypes: []string{"venue_rental"},
	})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Filter() = %v, want [a c]", ids(got))
	}
}

func ids(opps []models.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.ID
	}
	return out
}
