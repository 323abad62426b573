// Package queue implements the job queue on Redis. Ready jobs sit on a
// list consumed with blocking pops; retries wait in a sorted set keyed by
// their due time until a promoter moves them back onto the list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	jobsKey    = "printd:jobs"
	delayedKey = "printd:jobs:delayed"
	deadKey    = "printd:jobs:dead"
)

// JobEnvelope wraps a job id with its delivery bookkeeping
type JobEnvelope struct {
	JobID      uuid.UUID `json:"job_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	LastError  string    `json:"last_error,omitempty"`
}

// RedisQueue is the Redis backed job queue
type RedisQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueue creates a queue over an existing Redis client
func NewRedisQueue(client *redis.Client, logger *zap.Logger) *RedisQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{client: client, logger: logger}
}

// Enqueue pushes a job id onto the ready list as a first attempt
func (q *RedisQueue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	return q.push(ctx, JobEnvelope{
		JobID:      jobID,
		Attempt:    1,
		EnqueuedAt: time.Now(),
	})
}

func (q *RedisQueue) push(ctx context.Context, env JobEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}
	if err := q.client.LPush(ctx, jobsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push job onto queue: %w", err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for a ready job.
// Returns (nil, nil) when the wait times out with nothing to do.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*JobEnvelope, error) {
	result, err := q.client.BRPop(ctx, timeout, jobsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}
	// BRPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var env JobEnvelope
	if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
		return nil, fmt.Errorf("malformed job envelope: %w", err)
	}
	return &env, nil
}

// ScheduleRetry parks the next attempt in the delayed set until its due time
func (q *RedisQueue) ScheduleRetry(ctx context.Context, env JobEnvelope, delay time.Duration, lastError string) error {
	next := JobEnvelope{
		JobID:      env.JobID,
		Attempt:    env.Attempt + 1,
		EnqueuedAt: time.Now(),
		LastError:  lastError,
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}

	due := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, delayedKey, redis.Z{Score: due, Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}

	q.logger.Debug("job retry scheduled",
		zap.String("jobID", env.JobID.String()),
		zap.Int("attempt", next.Attempt),
		zap.Duration("delay", delay))

	return nil
}

// DeadLetter moves a job that exhausted its attempts to the dead letter list
func (q *RedisQueue) DeadLetter(ctx context.Context, env JobEnvelope, lastError string) error {
	env.LastError = lastError
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}
	if err := q.client.LPush(ctx, deadKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push job to dead letter queue: %w", err)
	}

	q.logger.Warn("job moved to dead letter queue",
		zap.String("jobID", env.JobID.String()),
		zap.Int("attempts", env.Attempt))

	return nil
}

// PromoteDue moves delayed jobs whose due time has passed back onto the
// ready list and returns how many were promoted
func (q *RedisQueue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	promoted := 0
	for _, member := range members {
		// Remove first so a concurrent promoter cannot double-deliver
		removed, err := q.client.ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to remove delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, jobsKey, member).Err(); err != nil {
			return promoted, fmt.Errorf("failed to promote delayed job: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

// DeadLetters returns up to limit entries from the dead letter list
func (q *RedisQueue) DeadLetters(ctx context.Context, limit int64) ([]JobEnvelope, error) {
	values, err := q.client.LRange(ctx, deadKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letter queue: %w", err)
	}
	envelopes := make([]JobEnvelope, 0, len(values))
	for _, value := range values {
		var env JobEnvelope
		if err := json.Unmarshal([]byte(value), &env); err != nil {
			q.logger.Warn("skipping malformed dead letter entry", zap.Error(err))
			continue
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}
