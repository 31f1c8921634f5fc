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

// Package api exposes the notifier over HTTP: triggers for digest runs and
// immediate alerts, plus the open/click tracking, unsubscribe and history
// endpoints the emails link to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/dispatch"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Dispatcher runs notification batches.
type Dispatcher interface {
	SendDigests(ctx context.Context, freq models.Frequency) (*dispatch.Summary, error)
	SendImmediateNotification(ctx context.Context, opportunityID string) (*dispatch.Summary, error)
}

// AlertQueue defers immediate alerts to a background worker.
type AlertQueue interface {
	EnqueueImmediate(ctx context.Context, opportunityID string) (string, error)
}

// NotificationStore serves the tracking and subscription endpoints.
type NotificationStore interface {
	TrackOpen(ctx context.Context, notificationID string) error
	TrackClick(ctx context.Context, notificationID string) error
	ListNotifications(ctx context.Context, companyID string, limit, offset int) ([]models.NotificationRecord, error)
	Unsubscribe(ctx context.Context, companyID, reason string) error
	Resubscribe(ctx context.Context, companyID string, freq models.Frequency) error
	EnsurePreferences(ctx context.Context, companyID string) (*models.Preferences, error)
}

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the notifier HTTP API.
type Handler struct {
	dispatcher Dispatcher
	queue      AlertQueue // nil runs alerts inline
	store      NotificationStore
	checks     map[string]Pinger
}

// NewHandler creates the API handler. queue may be nil.
func NewHandler(d Dispatcher, queue AlertQueue, st NotificationStore, checks map[string]Pinger) *Handler {
	return &Handler{
		dispatcher: d,
		queue:      queue,
		store:      st,
		checks:     checks,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.ServeHealth)
	mux.HandleFunc("POST /api/sponsorships/{id}/notify", h.ServeNotify)
	mux.HandleFunc("POST /api/digests/{cadence}", h.ServeDigest)
	mux.HandleFunc("POST /api/sponsorship-notifications/{id}/track-open", h.ServeTrackOpen)
	mux.HandleFunc("POST /api/sponsorship-notifications/{id}/track-click", h.ServeTrackClick)
	mux.HandleFunc("POST /api/sponsorship-notifications/unsubscribe", h.ServeUnsubscribe)
	mux.HandleFunc("POST /api/sponsorship-notifications/resubscribe", h.ServeResubscribe)
	mux.HandleFunc("GET /api/sponsorship-notifications/history", h.ServeHistory)
	mux.HandleFunc("GET /api/sponsorship-notifications/preferences", h.ServePreferences)
	return mux
}

// ServeNotify triggers the immediate alert for an opportunity. With a queue
// configured the job is accepted and processed later; otherwise the alert
// runs inline and its summary is returned.
func (h *Handler) ServeNotify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "opportunity id is required")
		return
	}

	if h.queue != nil {
		jobID, err := h.queue.EnqueueImmediate(r.Context(), id)
		if err != nil {
			slog.Error("enqueue immediate alert failed", "opportunity", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to queue notification")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "queued",
			"job_id": jobID,
		})
		return
	}

	summary, err := h.dispatcher.SendImmediateNotification(detach(r), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send notifications")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ServeDigest runs a daily or weekly digest batch and returns its summary.
func (h *Handler) ServeDigest(w http.ResponseWriter, r *http.Request) {
	freq, err := models.ParseFrequency(r.PathValue("cadence"))
	if err != nil || (freq != models.FrequencyDaily && freq != models.FrequencyWeekly) {
		writeError(w, http.StatusBadRequest, "cadence must be daily or weekly")
		return
	}

	summary, err := h.dispatcher.SendDigests(detach(r), freq)
	if err != nil {
		slog.Error("digest run failed", "cadence", freq, "error", err)
		writeError(w, http.StatusInternalServerError, "digest run failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ServeTrackOpen increments the open counter of a notification.
func (h *Handler) ServeTrackOpen(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, "open", h.store.TrackOpen)
}

// ServeTrackClick increments the click counter of a notification.
func (h *Handler) ServeTrackClick(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, "click", h.store.TrackClick)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request, event string, fn func(context.Context, string) error) {
	id := r.PathValue("id")
	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		slog.Error("track notification event failed", "event", event, "notification", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to track "+event)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type subscriptionRequest struct {
	CompanyID      string `json:"company_id"`
	Reason         string `json:"reason"`
	EmailFrequency string `json:"email_frequency"`
}

// ServeUnsubscribe opts a company out of sponsorship emails.
func (h *Handler) ServeUnsubscribe(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSubscription(w, r)
	if !ok {
		return
	}
	if err := h.store.Unsubscribe(r.Context(), req.CompanyID, req.Reason); err != nil {
		h.subscriptionError(w, "unsubscribe", req.CompanyID, err)
		return
	}
	slog.Info("company unsubscribed", "company_id", req.CompanyID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ServeResubscribe restores a company's emails at the requested frequency,
// daily by default.
func (h *Handler) ServeResubscribe(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSubscription(w, r)
	if !ok {
		return
	}
	freq := models.FrequencyDaily
	if req.EmailFrequency != "" {
		f, err := models.ParseFrequency(req.EmailFrequency)
		if err != nil || f == models.FrequencyNever {
			writeError(w, http.StatusBadRequest, "email_frequency must be immediate, daily or weekly")
			return
		}
		freq = f
	}
	if err := h.store.Resubscribe(r.Context(), req.CompanyID, freq); err != nil {
		h.subscriptionError(w, "resubscribe", req.CompanyID, err)
		return
	}
	slog.Info("company resubscribed", "company_id", req.CompanyID, "frequency", freq)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeSubscription(w http.ResponseWriter, r *http.Request) (*subscriptionRequest, bool) {
	var req subscriptionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required")
		return nil, false
	}
	return &req, true
}

func (h *Handler) subscriptionError(w http.ResponseWriter, action, companyID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "notification preferences not found")
		return
	}
	slog.Error("subscription update failed", "action", action, "company_id", companyID, "error", err)
	writeError(w, http.StatusInternalServerError, "failed to "+action)
}

// ServeHistory lists a company's notifications, newest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	companyID := q.Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultHistoryLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxHistoryLimit)
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	records, err := h.store.ListNotifications(r.Context(), companyID, limit, offset)
	if err != nil {
		slog.Error("list notifications failed", "company_id", companyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []models.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": records,
		"limit":         limit,
		"offset":        offset,
	})
}

// ServePreferences returns a company's notification preferences, creating
// the defaults on first access.
func (h *Handler) ServePreferences(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required")
		return
	}
	prefs, err := h.store.EnsurePreferences(r.Context(), companyID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		slog.Error("load preferences failed", "company_id", companyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch preferences")
		return
	}
	if prefs == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// ServeHealth reports ok when every dependency answers a ping.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	status["status"] = "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status["status"] = "degraded"
	}
	writeJSON(w, code, status)
}

// detach keeps batch runs going if the HTTP client disconnects.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve starts the API server on the given port. It binds the port
// immediately and signals readiness via the returned channel before
// accepting connections. The server shuts down when ctx is cancelled.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	server := &http.Server{
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind api port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("api server shutdown error", "error", err)
		}
	}()

	go func() {
		slog.Info("api server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
		}
	}()

	return ready, nil
}
