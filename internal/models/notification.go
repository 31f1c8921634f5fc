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

import "time"

// NotificationType identifies the kind of email that was sent.
type NotificationType string

const (
	NotificationDailyDigest         NotificationType = "daily_digest"
	NotificationWeeklyDigest        NotificationType = "weekly_digest"
	NotificationImmediateAlert      NotificationType = "immediate_alert"
	NotificationFeaturedOpportunity NotificationType = "featured_opportunity"
)

// NotificationStatusSent is the only status written by the dispatcher;
// failed sends are reported, not logged as rows.
const NotificationStatusSent = "sent"

// NotificationRecord is the audit row written once per successfully sent email.
type NotificationRecord struct {
	ID                    string           `json:"id"`
	CompanyID             string           `json:"company_id"`
	NotificationType      NotificationType `json:"notification_type"`
	Status                string           `json:"status"`
	SentAt                time.Time        `json:"sent_at"`
	EmailAddress          string           `json:"email_address"`
	ProviderMessageID     string           `json:"resend_email_id"`
	OpportunitiesIncluded []string         `json:"opportunities_included"`
	OpportunitiesCount    int              `json:"opportunities_count"`

	// Engagement, filled in by the tracking endpoints.
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	OpenCount  int        `json:"open_count"`
	ClickedAt  *time.Time `json:"clicked_at,omitempty"`
	ClickCount int        `json:"click_count"`
}
