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

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeJob(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"id":"j1","opportunity_id":"opp-1","retries":0}`, false},
		{"missing opportunity", `{"id":"j1"}`, true},
		{"not json", `opp-1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := decodeJob(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && job.OpportunityID != "opp-1" {
				t.Errorf("OpportunityID = %q", job.OpportunityID)
			}
		})
	}
}

func TestJob_RoundTripsEnqueuedAt(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Job{ID: "j1", OpportunityID: "opp-1", EnqueuedAt: at})
	if err != nil {
		t.Fatal(err)
	}
	job, err := decodeJob(string(data))
	if err != nil {
		t.Fatalf("decodeJob: %v", err)
	}
	if !job.EnqueuedAt.Equal(at) {
		t.Errorf("EnqueuedAt = %v, want %v", job.EnqueuedAt, at)
	}
}

// TestWorker_Process verifies the handler receives the opportunity id and
// malformed payloads are dropped.
func TestWorker_Process(t *testing.T) {
	var got []string
	w := NewWorker(NewPublisher(nil, ""), func(_ context.Context, id string) error {
		got = append(got, id)
		return nil
	})

	w.process(context.Background(), `{"id":"j1","opportunity_id":"opp-1"}`)
	w.process(context.Background(), `garbage`)

	if len(got) != 1 || got[0] != "opp-1" {
		t.Errorf("handled %v, want [opp-1]", got)
	}
}

// recordRequeue replaces the worker's Redis push with a recorder.
func recordRequeue(w *Worker) *[]Job {
	var pushed []Job
	w.requeue = func(ctx context.Context, job *Job) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pushed = append(pushed, *job)
		return nil
	}
	return &pushed
}

func TestWorker_ProcessRequeuesFailure(t *testing.T) {
	w := NewWorker(NewPublisher(nil, ""), func(context.Context, string) error {
		return errors.New("database unavailable")
	})
	pushed := recordRequeue(w)

	w.process(context.Background(), `{"id":"j1","opportunity_id":"opp-1","retries":1}`)
	if len(*pushed) != 1 || (*pushed)[0].Retries != 2 {
		t.Errorf("requeued %+v, want one job with retries 2", *pushed)
	}
}

func TestWorker_ProcessExhaustedRetries(t *testing.T) {
	calls := 0
	w := NewWorker(NewPublisher(nil, ""), func(context.Context, string) error {
		calls++
		return errors.New("database unavailable")
	})
	pushed := recordRequeue(w)

	w.process(context.Background(), `{"id":"j1","opportunity_id":"opp-1","retries":3}`)
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if len(*pushed) != 0 {
		t.Errorf("requeued %+v, want none", *pushed)
	}
}

// TestWorker_ProcessRequeuesOnShutdown verifies an alert interrupted by
// cancellation goes back on the queue without spending a retry.
func TestWorker_ProcessRequeuesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(NewPublisher(nil, ""), func(ctx context.Context, _ string) error {
		cancel()
		return ctx.Err()
	})
	pushed := recordRequeue(w)

	w.process(ctx, `{"id":"j1","opportunity_id":"opp-1","retries":3}`)
	if len(*pushed) != 1 {
		t.Fatalf("requeued %d jobs, want 1", len(*pushed))
	}
	if job := (*pushed)[0]; job.ID != "j1" || job.Retries != 3 {
		t.Errorf("requeued %+v, want j1 with retries unchanged", job)
	}
}

func TestNewPublisher_DefaultQueue(t *testing.T) {
	if p := NewPublisher(nil, ""); p.queueName != DefaultQueue {
		t.Errorf("queueName = %q, want %q", p.queueName, DefaultQueue)
	}
}

func TestEnqueueImmediate_RequiresID(t *testing.T) {
	if _, err := NewPublisher(nil, "").EnqueueImmediate(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty opportunity id")
	}
}
