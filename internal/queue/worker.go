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
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertHandler runs the immediate alert for one opportunity. A returned
// error means the whole alert run failed and the job may be retried.
type AlertHandler func(ctx context.Context, opportunityID string) error

// DefaultMaxRetries bounds how often a failed job is requeued.
const DefaultMaxRetries = 3

// Worker drains the alert queue one job at a time.
type Worker struct {
	publisher  *Publisher
	handle     AlertHandler
	requeue    func(ctx context.Context, job *Job) error
	block      time.Duration
	maxRetries int
}

// NewWorker creates a worker consuming the publisher's queue.
func NewWorker(publisher *Publisher, handle AlertHandler) *Worker {
	return &Worker{
		publisher:  publisher,
		handle:     handle,
		requeue:    publisher.push,
		block:      5 * time.Second,
		maxRetries: DefaultMaxRetries,
	}
}

// Run pops and processes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("alert worker starting", "queue", w.publisher.queueName)

	for {
		if ctx.Err() != nil {
			slog.Info("alert worker stopping")
			return
		}

		res, err := w.publisher.rdb.BRPop(ctx, w.block, w.publisher.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("alert worker stopping")
				return
			}
			slog.Error("alert queue pop failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		// BRPOP returns [queue, value].
		if len(res) != 2 {
			continue
		}
		w.process(ctx, res[1])
	}
}

// process handles one raw job payload, requeueing it on failure until the
// retry budget is spent.
func (w *Worker) process(ctx context.Context, payload string) {
	job, err := decodeJob(payload)
	if err != nil {
		slog.Error("dropping malformed alert job", "error", err)
		return
	}

	slog.Info("processing immediate alert",
		"job_id", job.ID,
		"opportunity", job.OpportunityID,
		"attempt", job.Retries+1,
	)

	err = w.handle(ctx, job.OpportunityID)
	if err == nil {
		return
	}

	// Interrupted by shutdown: put the job back as-is for the next worker.
	if ctx.Err() != nil {
		slog.Warn("immediate alert interrupted, requeueing",
			"job_id", job.ID,
			"opportunity", job.OpportunityID,
			"error", err,
		)
		if err := w.requeue(context.WithoutCancel(ctx), job); err != nil {
			slog.Error("requeue alert job failed", "job_id", job.ID, "error", err)
		}
		return
	}

	if job.Retries >= w.maxRetries {
		slog.Error("immediate alert failed",
			"job_id", job.ID,
			"opportunity", job.OpportunityID,
			"retries", job.Retries,
			"error", err,
		)
		return
	}

	job.Retries++
	slog.Warn("immediate alert failed, requeueing",
		"job_id", job.ID,
		"opportunity", job.OpportunityID,
		"retries", job.Retries,
		"error", err,
	)
	if err := w.requeue(ctx, job); err != nil {
		slog.Error("requeue alert job failed", "job_id", job.ID, "error", err)
	}
}

func decodeJob(payload string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode alert job: %w", err)
	}
	if job.OpportunityID == "" {
		return nil, fmt.Errorf("alert job %q has no opportunity id", job.ID)
	}
	return &job, nil
}
