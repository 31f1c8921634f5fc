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

// Package matcher decides whether a sponsorship opportunity fits a company's
// notification preferences.
package matcher

import (
	"slices"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

// Matches reports whether opp passes every active filter in prefs.
//
// Each filter only applies when the preference is set. Field filters on the
// opportunity side (state, organization, budget, reach) additionally require
// the opportunity to carry a value: missing data never excludes.
// TargetUniversities is not consulted.
func Matches(opp *models.Opportunity, prefs *models.Preferences) bool {
	if opp == nil {
		return false
	}
	if prefs == nil {
		return true
	}

	// Exclusion wins over interest.
	if slices.Contains(prefs.ExcludedOpportunityTypes, opp.OpportunityType) {
		return false
	}

	if len(prefs.InterestedOpportunityTypes) > 0 &&
		!slices.Contains(prefs.InterestedOpportunityTypes, opp.OpportunityType) {
		return false
	}

	if len(prefs.TargetStates) > 0 && opp.UniversityState != "" &&
		!slices.Contains(prefs.TargetStates, opp.UniversityState) {
		return false
	}

	if len(prefs.TargetOrganizations) > 0 && opp.OrganizationName != "" &&
		!slices.Contains(prefs.TargetOrganizations, opp.OrganizationName) {
		return false
	}

	if budget, ok := opp.Budget(); ok {
		if prefs.MinBudgetRange != 0 && budget < prefs.MinBudgetRange {
			return false
		}
		if prefs.MaxBudgetRange != 0 && budget > prefs.MaxBudgetRange {
			return false
		}
	}

	if len(prefs.PreferredGeographicScope) > 0 &&
		!slices.Contains(prefs.PreferredGeographicScope, opp.GeographicScope) {
		return false
	}

	if reach, ok := opp.Reach(); ok && prefs.MinExpectedReach != 0 && reach < prefs.MinExpectedReach {
		return false
	}

	return true
}

// Filter returns the opportunities in opps that match prefs, preserving order.
func Filter(opps []models.Opportunity, prefs *models.Preferences) []models.Opportunity {
	var out []models.Opportunity
	for i := range opps {
		if Matches(&opps[i], prefs) {
			out = append(out, opps[i])
		}
	}
	return out
}
