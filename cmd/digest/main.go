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

// FraternityBase sponsorship digest command.
//
// Runs one notification batch and exits. Intended for cron: the exit code is
// non-zero when the run could not start or was interrupted, so failed runs
// show up in scheduler alerting. Individual company failures are logged and
// counted but do not fail the run.
//
// Usage:
//
//	go run ./cmd/digest/ --cadence daily|weekly
//	go run ./cmd/digest/ --cadence immediate --opportunity <id>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/app"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/config"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/dispatch"
	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

type options struct {
	cadence       models.Frequency
	opportunityID string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cadenceFlag := fs.String("cadence", "", "Run to execute: daily, weekly or immediate (required)")
	oppFlag := fs.String("opportunity", "", "Opportunity id (required for --cadence immediate)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	freq, err := models.ParseFrequency(*cadenceFlag)
	if err != nil || freq == models.FrequencyNever {
		return nil, fmt.Errorf("--cadence must be daily, weekly or immediate")
	}
	if freq == models.FrequencyImmediate && *oppFlag == "" {
		return nil, fmt.Errorf("--opportunity is required for --cadence immediate")
	}
	return &options{cadence: freq, opportunityID: *oppFlag}, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		app.SetupLogging(slog.LevelInfo)
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	app.SetupLogging(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		slog.Error("failed to initialise notifier", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var summary *dispatch.Summary
	if opts.cadence == models.FrequencyImmediate {
		summary, err = a.Dispatcher.SendImmediateNotification(ctx, opts.opportunityID)
	} else {
		summary, err = a.Dispatcher.SendDigests(ctx, opts.cadence)
	}

	if summary != nil {
		slog.Info("run summary",
			"cadence", summary.Cadence,
			"note", summary.Note,
			"companies", summary.Companies,
			"sent", summary.Sent,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"elapsed", summary.Elapsed,
		)
		for _, f := range summary.Failures {
			slog.Info("company failure",
				"company", f.CompanyName,
				"company_id", f.CompanyID,
				"error", f.Error,
			)
		}
	}
	if err != nil {
		slog.Error("run failed", "cadence", opts.cadence, "error", err)
		a.Close()
		os.Exit(1)
	}
}
