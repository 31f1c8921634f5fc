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

// Package render builds the subject line, HTML body and plain-text body of
// sponsorship notification emails.
package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dateLayout = "January 2, 2006"

// Email is a fully rendered notification.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns matched opportunities into email content. It is safe for
// concurrent use.
type Renderer struct {
	frontendURL string
	html        *htmltemplate.Template
	text        *texttemplate.Template
	printer     *message.Printer
	now         func() time.Time
}

// NewRenderer parses the embedded templates. Links in rendered emails are
// built from frontendURL.
func NewRenderer(frontendURL string) (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/digest.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/digest.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return &Renderer{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		html:        html,
		text:        text,
		printer:     message.NewPrinter(language.AmericanEnglish),
		now:         time.Now,
	}, nil
}

// opportunityView holds pre-formatted fields for one opportunity block.
// Empty strings are omitted by the templates.
type opportunityView struct {
	Featured    bool
	Title       string
	ChapterName string
	University  string
	State       string
	Grade       string
	Members     string
	Description string
	Budget      string
	Reach       string
	Scope       string
	EventDate   string
	Deadline    string
	URL         string
}

type emailView struct {
	ContactName    string
	CompanyName    string
	Urgent         bool
	Count          int
	Single         bool
	Noun           string
	Opportunities  []opportunityView
	BrowseURL      string
	PreferencesURL string
	UnsubscribeURL string
	Year           int
}

// Render produces the email for one company. opps must not be empty.
func (r *Renderer) Render(contactName, companyName, companyID string, opps []models.Opportunity, kind models.NotificationType) (*Email, error) {
	if len(opps) == 0 {
		return nil, fmt.Errorf("render %s: no opportunities", kind)
	}
	if strings.TrimSpace(contactName) == "" {
		contactName = "there"
	}

	view := emailView{
		ContactName:    contactName,
		CompanyName:    companyName,
		Urgent:         kind == models.NotificationImmediateAlert,
		Count:          len(opps),
		Single:         len(opps) == 1,
		Noun:           strings.ToLower(opportunityNoun(len(opps))),
		BrowseURL:      r.frontendURL + "/sponsorships",
		PreferencesURL: r.frontendURL + "/settings/notifications",
		UnsubscribeURL: r.frontendURL + "/unsubscribe?" + url.Values{"company_id": {companyID}}.Encode(),
		Year:           r.now().Year(),
	}
	for i := range opps {
		view.Opportunities = append(view.Opportunities, r.opportunityView(&opps[i]))
	}

	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, "digest.html.tmpl", view); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	if err := r.text.ExecuteTemplate(&text, "digest.txt.tmpl", view); err != nil {
		return nil, fmt.Errorf("execute text template: %w", err)
	}

	return &Email{
		Subject: Subject(kind, len(opps)),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// OpportunityURL returns the deep link to an opportunity's detail page.
func (r *Renderer) OpportunityURL(id string) string {
	return r.frontendURL + "/sponsorships/" + url.PathEscape(id)
}

func (r *Renderer) opportunityView(o *models.Opportunity) opportunityView {
	v := opportunityView{
		Featured:    o.IsFeatured,
		Title:       o.Title,
		ChapterName: o.ChapterName,
		University:  o.UniversityName,
		State:       o.UniversityState,
		Description: strings.TrimSpace(o.Description),
		Budget:      o.BudgetRange,
		Scope:       o.GeographicScope,
		URL:         r.OpportunityURL(o.ID),
	}
	if v.State == "" {
		v.State = "N/A"
	}
	if v.Description == "" {
		v.Description = "No description provided"
	}
	if o.ChapterGrade != nil && *o.ChapterGrade != 0 {
		v.Grade = strconv.FormatFloat(*o.ChapterGrade, 'f', -1, 64)
	}
	if o.ChapterMemberCount != nil && *o.ChapterMemberCount != 0 {
		v.Members = r.printer.Sprintf("%d", *o.ChapterMemberCount)
	}
	if reach, ok := o.Reach(); ok {
		v.Reach = r.printer.Sprintf("%d", reach)
	}
	if o.EventDate != nil {
		v.EventDate = o.EventDate.UTC().Format(dateLayout)
	}
	if o.ApplicationDeadline != nil {
		v.Deadline = o.ApplicationDeadline.UTC().Format(dateLayout)
	}
	return v
}

// Subject returns the subject line for a notification type and opportunity count.
func Subject(kind models.NotificationType, count int) string {
	switch kind {
	case models.NotificationDailyDigest:
		return fmt.Sprintf("%d New Sponsorship %s Today", count, opportunityNoun(count))
	case models.NotificationWeeklyDigest:
		return fmt.Sprintf("Weekly Sponsorship Digest - %d %s", count, opportunityNoun(count))
	case models.NotificationImmediateAlert:
		return "Urgent Sponsorship Opportunity - Act Fast!"
	case models.NotificationFeaturedOpportunity:
		return "Featured Sponsorship Opportunity"
	default:
		return "New Sponsorship Opportunities from FraternityBase"
	}
}

func opportunityNoun(count int) string {
	if count == 1 {
		return "Opportunity"
	}
	return "Opportunities"
}
