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

// Package dispatch sends sponsorship opportunity emails to companies. It
// drives the daily and weekly digest runs and the immediate alert for a
// single urgent opportunity, one company at a time, behind a send-rate
// limiter.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/digest"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/email"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/matcher"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/render"
)

// DefaultSendInterval is the minimum spacing between two provider sends.
const DefaultSendInterval = 100 * time.Millisecond

// PreferenceStore lists the companies to notify.
type PreferenceStore interface {
	ListByFrequency(ctx context.Context, freq models.Frequency) ([]models.Preferences, error)
	ListImmediateRecipients(ctx context.Context) ([]models.Preferences, error)
}

// OpportunityStore reads sponsorship opportunities.
type OpportunityStore interface {
	digest.OpportunitySource
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
}

// ContactResolver finds the address a company's emails go to.
type ContactResolver interface {
	PrimaryContact(ctx context.Context, companyID string) (*models.Contact, error)
}

// NotificationLog records successful sends.
type NotificationLog interface {
	InsertNotification(ctx context.Context, rec *models.NotificationRecord) error
}

// SentFilter remembers which opportunities a company has already received.
type SentFilter interface {
	MarkNew(ctx context.Context, companyID, opportunityID string, kind models.NotificationType) (bool, error)
	Forget(ctx context.Context, companyID, opportunityID string, kind models.NotificationType) error
}

// Config holds dependencies for the dispatcher.
type Config struct {
	Preferences   PreferenceStore
	Opportunities OpportunityStore
	Contacts      ContactResolver
	Log           NotificationLog
	Sender        email.Sender
	Renderer      *render.Renderer
	Dedup         SentFilter // optional
	From          string

	// SendInterval spaces provider sends. Zero means DefaultSendInterval;
	// a negative value disables limiting.
	SendInterval time.Duration
	Now          func() time.Time
}

// Dispatcher runs notification batches. Batches started concurrently share
// one limiter, so the provider rate holds across runs.
type Dispatcher struct {
	prefs     PreferenceStore
	opps      OpportunityStore
	contacts  ContactResolver
	log       NotificationLog
	sender    email.Sender
	renderer  *render.Renderer
	dedup     SentFilter
	from      string
	assembler *digest.Assembler
	limiter   *rate.Limiter
	now       func() time.Time
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	interval := cfg.SendInterval
	if interval == 0 {
		interval = DefaultSendInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		prefs:     cfg.Preferences,
		opps:      cfg.Opportunities,
		contacts:  cfg.Contacts,
		log:       cfg.Log,
		sender:    cfg.Sender,
		renderer:  cfg.Renderer,
		dedup:     cfg.Dedup,
		from:      cfg.From,
		assembler: digest.NewAssembler(cfg.Opportunities),
		limiter:   rate.NewLimiter(limit, 1),
		now:       now,
	}
}

// SendDailyDigests emails every daily subscriber the matching opportunities
// posted in the last 24 hours.
func (d *Dispatcher) SendDailyDigests(ctx context.Context) (*Summary, error) {
	return d.SendDigests(ctx, models.FrequencyDaily)
}

// SendWeeklyDigests emails every weekly subscriber the matching
// opportunities posted in the last 7 days.
func (d *Dispatcher) SendWeeklyDigests(ctx context.Context) (*Summary, error) {
	return d.SendDigests(ctx, models.FrequencyWeekly)
}

// SendDigests runs a digest batch for the daily or weekly cadence. Failures
// for individual companies are recorded in the summary; only a failed
// subscriber query or cancellation is returned as an error.
func (d *Dispatcher) SendDigests(ctx context.Context, freq models.Frequency) (*Summary, error) {
	kind, err := digestKind(freq)
	if err != nil {
		return nil, err
	}
	start := d.now()
	since, err := digest.Window(start, freq)
	if err != nil {
		return nil, err
	}

	summary := newSummary(string(freq))

	prefs, err := d.prefs.ListByFrequency(ctx, freq)
	if err != nil {
		slog.Error("list digest subscribers failed", "cadence", freq, "error", err)
		return summary, fmt.Errorf("list %s subscribers: %w", freq, err)
	}
	if len(prefs) == 0 {
		slog.Info("no companies subscribed to cadence", "cadence", freq)
		summary.Note = NoteNoRecipients
		return summary, nil
	}

	slog.Info("starting digest run",
		"cadence", freq,
		"companies", len(prefs),
		"since", since.Format(time.RFC3339),
	)

	for i := range prefs {
		if err := ctx.Err(); err != nil {
			summary.finish(d.now().Sub(start))
			return summary, err
		}
		p := &prefs[i]
		reason, err := d.processDigest(ctx, p, kind, since)
		if err != nil && ctx.Err() != nil {
			summary.finish(d.now().Sub(start))
			return summary, ctx.Err()
		}
		summary.record(p, reason, err)
	}

	summary.finish(d.now().Sub(start))
	slog.Info("digest run complete",
		"cadence", freq,
		"companies", summary.Companies,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// SendImmediateNotification alerts every immediate or urgent-alert
// subscriber whose preferences match the opportunity. Only urgent
// opportunities are sent; anything else is a logged no-op.
func (d *Dispatcher) SendImmediateNotification(ctx context.Context, opportunityID string) (*Summary, error) {
	start := d.now()
	summary := newSummary(string(models.FrequencyImmediate))
	summary.OpportunityID = opportunityID

	opp, err := d.opps.GetOpportunity(ctx, opportunityID)
	if err != nil {
		slog.Error("load opportunity failed", "opportunity", opportunityID, "error", err)
		return summary, fmt.Errorf("get opportunity %s: %w", opportunityID, err)
	}
	if opp == nil {
		slog.Info("opportunity not found", "opportunity", opportunityID)
		summary.Note = NoteNotFound
		return summary, nil
	}
	if !opp.IsUrgent {
		slog.Info("opportunity not urgent, skipping", "opportunity", opportunityID)
		summary.Note = NoteNotUrgent
		return summary, nil
	}

	prefs, err := d.prefs.ListImmediateRecipients(ctx)
	if err != nil {
		slog.Error("list immediate recipients failed", "error", err)
		return summary, fmt.Errorf("list immediate recipients: %w", err)
	}
	if len(prefs) == 0 {
		slog.Info("no companies subscribed to immediate alerts", "opportunity", opportunityID)
		summary.Note = NoteNoRecipients
		return summary, nil
	}

	for i := range prefs {
		if err := ctx.Err(); err != nil {
			summary.finish(d.now().Sub(start))
			return summary, err
		}
		p := &prefs[i]
		reason, err := d.processImmediate(ctx, p, opp)
		if err != nil && ctx.Err() != nil {
			summary.finish(d.now().Sub(start))
			return summary, ctx.Err()
		}
		summary.record(p, reason, err)
	}

	summary.finish(d.now().Sub(start))
	slog.Info("immediate alert run complete",
		"opportunity", opportunityID,
		"companies", summary.Companies,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// processDigest handles one company in a digest run. It returns the skip
// reason when nothing was sent, or an error when the company failed.
func (d *Dispatcher) processDigest(ctx context.Context, p *models.Preferences, kind models.NotificationType, since time.Time) (SkipReason, error) {
	if p.Unsubscribed() {
		return SkipUnsubscribed, nil
	}
	contact, err := d.contacts.PrimaryContact(ctx, p.CompanyID)
	if err != nil {
		return "", fmt.Errorf("resolve contact: %w", err)
	}
	if contact == nil || contact.Email == "" {
		slog.Warn("no contact email for company, skipping", "company", p.Company.Name)
		return SkipNoContact, nil
	}

	opps, err := d.assembler.Collect(ctx, p, since)
	if err != nil {
		return "", err
	}
	if len(opps) == 0 {
		slog.Info("no matching opportunities", "company", p.Company.Name)
		return SkipNoMatches, nil
	}

	opps = d.unsent(ctx, p.CompanyID, opps, kind)
	if len(opps) == 0 {
		slog.Info("all matching opportunities already sent", "company", p.Company.Name)
		return SkipDuplicate, nil
	}

	return "", d.deliver(ctx, p, contact, opps, kind)
}

// processImmediate handles one company in an immediate alert run.
func (d *Dispatcher) processImmediate(ctx context.Context, p *models.Preferences, opp *models.Opportunity) (SkipReason, error) {
	if p.Unsubscribed() {
		return SkipUnsubscribed, nil
	}
	if !matcher.Matches(opp, p) {
		return SkipNotMatched, nil
	}

	contact, err := d.contacts.PrimaryContact(ctx, p.CompanyID)
	if err != nil {
		return "", fmt.Errorf("resolve contact: %w", err)
	}
	if contact == nil || contact.Email == "" {
		slog.Warn("no contact email for company, skipping", "company", p.Company.Name)
		return SkipNoContact, nil
	}

	kind := models.NotificationImmediateAlert
	opps := d.unsent(ctx, p.CompanyID, []models.Opportunity{*opp}, kind)
	if len(opps) == 0 {
		return SkipDuplicate, nil
	}

	return "", d.deliver(ctx, p, contact, opps, kind)
}

// deliver renders, sends and records one email. Dedup marks are released
// if the send fails so the next run can retry.
func (d *Dispatcher) deliver(ctx context.Context, p *models.Preferences, contact *models.Contact, opps []models.Opportunity, kind models.NotificationType) error {
	msg, err := d.renderer.Render(contact.DisplayName(), p.Company.Name, p.CompanyID, opps, kind)
	if err != nil {
		d.release(ctx, p.CompanyID, opps, kind)
		return fmt.Errorf("render email: %w", err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.release(ctx, p.CompanyID, opps, kind)
		return fmt.Errorf("wait for send slot: %w", err)
	}

	providerID, err := d.sender.Send(ctx, &email.Message{
		From:    d.from,
		To:      contact.Email,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		d.release(ctx, p.CompanyID, opps, kind)
		return fmt.Errorf("send email: %w", err)
	}

	ids := make([]string, len(opps))
	for i := range opps {
		ids[i] = opps[i].ID
	}
	rec := &models.NotificationRecord{
		CompanyID:             p.CompanyID,
		NotificationType:      kind,
		Status:                models.NotificationStatusSent,
		SentAt:                d.now().UTC(),
		EmailAddress:          contact.Email,
		ProviderMessageID:     providerID,
		OpportunitiesIncluded: ids,
		OpportunitiesCount:    len(ids),
	}
	if err := d.log.InsertNotification(ctx, rec); err != nil {
		return fmt.Errorf("record notification (email %s sent): %w", providerID, err)
	}

	slog.Info("sponsorship email sent",
		"company", p.Company.Name,
		"type", kind,
		"opportunities", len(ids),
		"provider_id", providerID,
	)
	return nil
}

// unsent drops opportunities the company already received. Without a
// dedup filter every opportunity is returned.
func (d *Dispatcher) unsent(ctx context.Context, companyID string, opps []models.Opportunity, kind models.NotificationType) []models.Opportunity {
	if d.dedup == nil {
		return opps
	}
	kept := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		isNew, err := d.dedup.MarkNew(ctx, companyID, o.ID, kind)
		if err != nil {
			slog.Warn("dedup check failed", "company_id", companyID, "opportunity", o.ID, "error", err)
			kept = append(kept, o)
			continue
		}
		if isNew {
			kept = append(kept, o)
		}
	}
	return kept
}

func (d *Dispatcher) release(ctx context.Context, companyID string, opps []models.Opportunity, kind models.NotificationType) {
	if d.dedup == nil {
		return
	}
	// The run context may already be cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, o := range opps {
		if err := d.dedup.Forget(ctx, companyID, o.ID, kind); err != nil {
			slog.Warn("dedup release failed", "company_id", companyID, "opportunity", o.ID, "error", err)
		}
	}
}

func digestKind(freq models.Frequency) (models.NotificationType, error) {
	switch freq {
	case models.FrequencyDaily:
		return models.NotificationDailyDigest, nil
	case models.FrequencyWeekly:
		return models.NotificationWeeklyDigest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCadence, freq)
	}
}

// ErrUnsupportedCadence is returned for frequencies without a digest run.
var ErrUnsupportedCadence = errors.New("unsupported digest cadence")
