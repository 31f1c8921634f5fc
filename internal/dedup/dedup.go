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

// Package dedup remembers which opportunities have already been emailed to
// which company, using Redis keys with a TTL. It stops overlapping digest
// windows and repeated immediate alerts from sending the same opportunity
// twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jacksonhedge/FraternityBase-sub002/internal/models"
)

const (
	// DefaultTTL covers the longest digest window.
	DefaultTTL = 7 * 24 * time.Hour

	keyPrefix = "fb:sponsorship:sent:"
)

// Filter tracks which (company, opportunity, notification type) triples
// have already been sent.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a dedup filter backed by Redis. A non-positive ttl
// falls back to DefaultTTL.
func NewFilter(rdb *redis.Client, ttl time.Duration) *Filter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Filter{
		rdb: rdb,
		ttl: ttl,
	}
}

// Key returns the Redis key for a sent triple.
func Key(companyID, opportunityID string, kind models.NotificationType) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, companyID, opportunityID, kind)
}

// MarkNew returns true if the triple has NOT been sent before, marking it
// as sent atomically (SETNX).
func (f *Filter) MarkNew(ctx context.Context, companyID, opportunityID string, kind models.NotificationType) (bool, error) {
	set, err := f.rdb.SetNX(ctx, Key(companyID, opportunityID, kind), 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}
	return set, nil
}

// Forget removes a triple so it can be sent again. Used when a send fails
// after the triple was marked.
func (f *Filter) Forget(ctx context.Context, companyID, opportunityID string, kind models.NotificationType) error {
	if err := f.rdb.Del(ctx, Key(companyID, opportunityID, kind)).Err(); err != nil {
		return fmt.Errorf("dedup DEL: %w", err)
	}
	return nil
}
