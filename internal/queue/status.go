// internal/queue/status.go
package queue

import (
	"context"
	"encoding/json"
	"time"

	"jobmatch-notifier/internal/models"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "notifier:task:"

// StatusTracker keeps per-task execution state in Redis as JSON values.
// Terminal states carry a TTL so finished results age out instead of
// accumulating forever.
type StatusTracker struct {
	client       *redis.Client
	resultExpiry time.Duration
}

func NewStatusTracker(client *redis.Client, resultExpiry time.Duration) *StatusTracker {
	return &StatusTracker{
		client:       client,
		resultExpiry: resultExpiry,
	}
}

func statusKey(taskID string) string {
	return statusKeyPrefix + taskID
}

func (t *StatusTracker) set(ctx context.Context, state models.TaskState, ttl time.Duration) error {
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, statusKey(state.TaskID), payload, ttl).Err()
}

func (t *StatusTracker) SetQueued(ctx context.Context, taskID string) error {
	return t.set(ctx, models.TaskState{
		TaskID: taskID,
		Status: models.TaskStatusQueued,
	}, 0)
}

func (t *StatusTracker) SetRunning(ctx context.Context, taskID string, attempt int) error {
	return t.set(ctx, models.TaskState{
		TaskID:  taskID,
		Status:  models.TaskStatusRunning,
		Attempt: attempt,
	}, 0)
}

func (t *StatusTracker) SetRetrying(ctx context.Context, taskID string, attempt int, dueAt time.Time) error {
	return t.set(ctx, models.TaskState{
		TaskID:  taskID,
		Status:  models.TaskStatusRetrying,
		Info:    "next attempt at " + dueAt.Format(time.RFC3339),
		Attempt: attempt,
	}, 0)
}

func (t *StatusTracker) SetCompleted(ctx context.Context, taskID string, attempt int, result *models.OrchestrationResult) error {
	state := models.TaskState{
		TaskID:  taskID,
		Status:  models.TaskStatusCompleted,
		Attempt: attempt,
	}
	if result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return err
		}
		state.Result = string(encoded)
	}
	return t.set(ctx, state, t.resultExpiry)
}

func (t *StatusTracker) SetFailed(ctx context.Context, taskID string, attempt int, reason string) error {
	return t.set(ctx, models.TaskState{
		TaskID:  taskID,
		Status:  models.TaskStatusFailed,
		Info:    reason,
		Attempt: attempt,
	}, t.resultExpiry)
}

// Get returns the tracked state for a task, or (nil, nil) when the task
// is unknown or its result has expired.
func (t *StatusTracker) Get(ctx context.Context, taskID string) (*models.TaskState, error) {
	raw, err := t.client.Get(ctx, statusKey(taskID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state models.TaskState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	return &state, nil
}
