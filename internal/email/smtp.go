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
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"
)

// DefaultSMTPTimeout bounds the dial and each read or write to the relay.
const DefaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration // 0 means DefaultSMTPTimeout
}

// SMTPSender sends email through an SMTP relay using STARTTLS.
type SMTPSender struct {
	dialer *mail.Dialer
	domain string
}

// NewSMTPSender creates an SMTP sender. STARTTLS is mandatory.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	d.Timeout = cfg.Timeout
	if d.Timeout <= 0 {
		d.Timeout = DefaultSMTPTimeout
	}

	return &SMTPSender{dialer: d, domain: cfg.Host}
}

// Send delivers msg as multipart text/HTML. SMTP has no provider id, so the
// generated Message-ID header is returned instead. The relay conversation
// is bounded by the dialer timeout rather than ctx.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m, messageID := s.buildMessage(msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return messageID, nil
}

func (s *SMTPSender) buildMessage(msg *Message) (*mail.Message, string) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), messageDomain(msg.From, s.domain))

	m := mail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)
	return m, messageID
}

// messageDomain picks the domain for Message-ID from the sender address.
func messageDomain(from, fallback string) string {
	from = strings.TrimSuffix(strings.TrimSpace(from), ">")
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return fallback
}
