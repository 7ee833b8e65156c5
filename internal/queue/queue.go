// internal/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/metrics"
	"jobmatch-notifier/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key layout. Pending and processing are lists forming an
// at-least-once hand-off: a worker moves a task from pending to
// processing atomically and removes it only after the attempt resolves,
// so a crashed worker leaves its task recoverable.
const (
	pendingKey    = "notifier:queue:pending"
	processingKey = "notifier:queue:processing"
	delayedKey    = "notifier:queue:delayed"
	deadLetterKey = "notifier:queue:dead"
)

// Broker is the Redis-backed task queue.
type Broker struct {
	client *redis.Client
	status *StatusTracker
	logger logger.Logger
}

func NewBroker(client *redis.Client, status *StatusTracker, log logger.Logger) *Broker {
	return &Broker{
		client: client,
		status: status,
		logger: log,
	}
}

// Enqueue pushes a new task onto the pending list and records its
// queued state. The returned ID identifies the task for status lookups.
func (b *Broker) Enqueue(ctx context.Context, candID int64, requirementID string) (string, error) {
	task := models.NotificationTask{
		ID:            uuid.New().String(),
		Type:          models.TaskTypeSendNotification,
		CandID:        candID,
		RequirementID: requirementID,
		Attempt:       0,
		EnqueuedAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return "", stderrors.NewEnqueueError(err)
	}

	// The queued record goes in before the push: once the task is
	// visible a worker may pick it up immediately, and its running
	// state must not be clobbered by a late queued write.
	if err := b.status.SetQueued(ctx, task.ID); err != nil {
		b.logger.Warn("failed to record queued state", map[string]interface{}{
			"taskId": task.ID,
			"error":  err.Error(),
		})
	}
	if err := b.client.LPush(ctx, pendingKey, payload).Err(); err != nil {
		return "", stderrors.NewEnqueueError(err)
	}

	metrics.TasksEnqueued.Inc()
	return task.ID, nil
}

// Dequeue blocks up to timeout for the next pending task and moves it
// to the processing list. The raw payload is returned alongside the
// decoded task so Ack can remove the exact list entry later.
func (b *Broker) Dequeue(ctx context.Context, timeout time.Duration) (*models.NotificationTask, string, error) {
	raw, err := b.client.BRPopLPush(ctx, pendingKey, processingKey, timeout).Result()
	if err == redis.Nil {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var task models.NotificationTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		// Unparseable entries can never succeed; drop them from
		// processing and park them for inspection.
		b.client.LRem(ctx, processingKey, 1, raw)
		b.client.LPush(ctx, deadLetterKey, raw)
		return nil, "", fmt.Errorf("decode task payload: %w", err)
	}
	return &task, raw, nil
}

// Ack removes a completed hand-off from the processing list.
func (b *Broker) Ack(ctx context.Context, raw string) {
	if err := b.client.LRem(ctx, processingKey, 1, raw).Err(); err != nil {
		b.logger.Warn("failed to ack task", map[string]interface{}{"error": err.Error()})
	}
}

// ScheduleRetry re-queues the task with an incremented attempt counter,
// due after delay. The delayed set is drained by the scheduler loop.
func (b *Broker) ScheduleRetry(ctx context.Context, task *models.NotificationTask, delay time.Duration) error {
	retry := *task
	retry.Attempt = task.Attempt + 1

	payload, err := json.Marshal(retry)
	if err != nil {
		return err
	}

	dueAt := time.Now().UTC().Add(delay)
	if err := b.client.ZAdd(ctx, delayedKey, redis.Z{
		Score:  float64(dueAt.Unix()),
		Member: payload,
	}).Err(); err != nil {
		return err
	}

	metrics.TasksRetried.Inc()
	return b.status.SetRetrying(ctx, retry.ID, retry.Attempt, dueAt)
}

// MoveDueRetries promotes delayed tasks whose due time has passed back
// onto the pending list. Returns the number moved.
func (b *Broker) MoveDueRetries(ctx context.Context, now time.Time) (int, error) {
	members, err := b.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UTC().Unix()),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range members {
		// ZRem before LPush so two scheduler instances cannot both
		// promote the same entry.
		removed, err := b.client.ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := b.client.LPush(ctx, pendingKey, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// DeadLetter parks a permanently failed task for manual inspection.
func (b *Broker) DeadLetter(ctx context.Context, task *models.NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := b.client.LPush(ctx, deadLetterKey, payload).Err(); err != nil {
		return err
	}
	metrics.TasksDeadLettered.Inc()
	return nil
}

// Depth returns the lengths of the pending, delayed, and dead-letter
// backlogs, used by the health endpoint.
func (b *Broker) Depth(ctx context.Context) (pending, delayed, dead int64, err error) {
	pending, err = b.client.LLen(ctx, pendingKey).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	delayed, err = b.client.ZCard(ctx, delayedKey).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	dead, err = b.client.LLen(ctx, deadLetterKey).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	return pending, delayed, dead, nil
}

// Status exposes the tracker for callers serving task-state lookups.
func (b *Broker) Status() *StatusTracker {
	return b.status
}
