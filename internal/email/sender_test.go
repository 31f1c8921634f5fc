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

package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
)

// TestResendSender_Send verifies the request payload and returned id.
func TestResendSender_Send(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/emails") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "email_123"}`))
	}))
	defer server.Close()

	client := resend.NewClient("re_test")
	base, _ := url.Parse(server.URL + "/")
	client.BaseURL = base

	s := NewResendSenderWithClient(client)
	id, err := s.Send(context.Background(), &Message{
		From:    "sponsorships@fraternitybase.com",
		To:      "jamie@acme.test",
		Subject: "1 New Sponsorship Opportunity Today",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "email_123" {
		t.Errorf("id = %q, want email_123", id)
	}
	if got["subject"] != "1 New Sponsorship Opportunity Today" {
		t.Errorf("subject = %v", got["subject"])
	}
	if got["text"] != "hi" {
		t.Errorf("text = %v", got["text"])
	}
}

// TestResendSender_EmptyRecipient verifies recipients are required.
func TestResendSender_EmptyRecipient(t *testing.T) {
	s := NewResendSender("re_test")
	if _, err := s.Send(context.Background(), &Message{From: "a@b.c"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

// TestSMTPSender_MessageID verifies the generated Message-ID header.
func TestSMTPSender_MessageID(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"})

	_, id := s.buildMessage(&Message{
		From: "FraternityBase <sponsorships@fraternitybase.com>",
		To:   "jamie@acme.test",
	})
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@fraternitybase.com>") {
		t.Errorf("message id = %q", id)
	}
}

func TestSMTPSender_Timeout(t *testing.T) {
	if got := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}).dialer.Timeout; got != DefaultSMTPTimeout {
		t.Errorf("default timeout = %v, want %v", got, DefaultSMTPTimeout)
	}
	if got := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Timeout: 5 * time.Second}).dialer.Timeout; got != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", got)
	}
}

// TestMessageDomain verifies domain extraction with fallback.
func TestMessageDomain(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"sponsorships@fraternitybase.com", "fraternitybase.com"},
		{"Team <team@example.org>", "example.org"},
		{"no-at-sign", "relay.local"},
		{"", "relay.local"},
	}
	for _, tt := range tests {
		if got := messageDomain(tt.from, "relay.local"); got != tt.want {
			t.Errorf("messageDomain(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

// TestSMTPSender_CancelledContext verifies no dial happens after cancellation.
func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Send(ctx, &Message{To: "x@y.z"}); err == nil {
		t.Fatal("expected context error")
	}
}
