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

// Package queue carries immediate-alert jobs through a Redis list. The HTTP
// trigger enqueues a job and returns; a single worker drains the list and
// runs the alerts one at a time.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the Redis list used when none is configured.
const DefaultQueue = "sponsorship-alerts"

// Job asks the worker to alert companies about one opportunity.
type Job struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	Retries       int       `json:"retries"`
}

// Publisher pushes jobs onto the alert queue.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a new Redis publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// EnqueueImmediate queues an immediate alert for the opportunity and returns
// the job id.
func (p *Publisher) EnqueueImmediate(ctx context.Context, opportunityID string) (string, error) {
	if opportunityID == "" {
		return "", fmt.Errorf("opportunity id is required")
	}
	job := Job{
		ID:            uuid.New().String(),
		OpportunityID: opportunityID,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := p.push(ctx, &job); err != nil {
		return "", err
	}

	slog.Info("queued immediate alert",
		"job_id", job.ID,
		"opportunity", opportunityID,
		"queue", p.queueName,
	)
	return job.ID, nil
}

func (p *Publisher) push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal alert job: %w", err)
	}
	// LPUSH here and BRPOP in the worker gives FIFO order.
	if err := p.rdb.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
