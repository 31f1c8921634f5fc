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

// Package email delivers rendered notifications through a transactional
// email provider. Resend is the primary provider; SMTP is available for
// environments without a Resend account.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message and returns the provider-assigned message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a sender authenticated with the given API key.
func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

// NewResendSenderWithClient wraps an existing Resend client.
func NewResendSenderWithClient(client *resend.Client) *ResendSender {
	return &ResendSender{client: client}
}

// Send delivers msg and returns the Resend email id.
func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("resend: empty recipient")
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend send to %s: %w", msg.To, err)
	}

	slog.Debug("email accepted by resend",
		"to", msg.To,
		"email_id", sent.Id,
	)

	return sent.Id, nil
}
