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

package app

import (
	"testing"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/config"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/email"
)

func TestNewSender(t *testing.T) {
	resendCfg := &config.Config{Provider: config.ProviderResend, ResendAPIKey: "re_test"}
	if _, ok := NewSender(resendCfg).(*email.ResendSender); !ok {
		t.Error("resend provider should build a ResendSender")
	}

	smtpCfg := &config.Config{Provider: config.ProviderSMTP, SMTP: config.SMTPConfig{Host: "smtp.example.com"}}
	if _, ok := NewSender(smtpCfg).(*email.SMTPSender); !ok {
		t.Error("smtp provider should build an SMTPSender")
	}
}
