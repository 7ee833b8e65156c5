// internal/queue/worker.go
package queue

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"jobmatch-notifier/internal/common/config"
	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/metrics"
	"jobmatch-notifier/internal/common/observability"
	"jobmatch-notifier/internal/models"
)

const dequeueTimeout = 2 * time.Second

// Handler executes one task attempt. A nil error marks the attempt
// completed; a retryable error schedules another attempt within the
// retry budget; a non-retryable error fails the task immediately.
type Handler interface {
	Execute(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error)
}

// Manager runs the bounded worker pool and the retry scheduler over a
// broker. Handlers are registered per task type before Run.
type Manager struct {
	broker   *Broker
	cfg      config.QueueConfig
	logger   logger.Logger
	obs      *observability.Observability
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewManager(broker *Broker, cfg config.QueueConfig, obs *observability.Observability, log logger.Logger) *Manager {
	return &Manager{
		broker:   broker,
		cfg:      cfg,
		logger:   log,
		obs:      obs,
		handlers: make(map[string]Handler),
	}
}

func (m *Manager) Register(taskType string, handler Handler) {
	m.handlers[taskType] = handler
}

// Run starts the worker goroutines and the retry scheduler, then blocks
// until ctx is cancelled and all in-flight attempts have finished.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Info("starting worker pool", map[string]interface{}{
		"workers":    m.cfg.MaxWorkers,
		"maxRetries": m.cfg.MaxRetries,
	})

	m.wg.Add(1)
	go m.schedulerLoop(ctx)

	for i := 0; i < m.cfg.MaxWorkers; i++ {
		m.wg.Add(1)
		go m.workerLoop(ctx, i)
	}

	m.wg.Wait()
	m.logger.Info("worker pool stopped", nil)
}

// schedulerLoop promotes due retries from the delayed set back onto the
// pending list.
func (m *Manager) schedulerLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Duration(m.cfg.SchedulerPoll) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			moved, err := m.broker.MoveDueRetries(ctx, now)
			if err != nil && ctx.Err() == nil {
				m.logger.Error("retry promotion failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if moved > 0 {
				m.logger.Debug("promoted due retries", map[string]interface{}{"count": moved})
			}
		}
	}
}

func (m *Manager) workerLoop(ctx context.Context, id int) {
	defer m.wg.Done()

	log := m.logger.WithFields(map[string]interface{}{"worker": id})
	for {
		if ctx.Err() != nil {
			return
		}

		task, raw, err := m.broker.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", map[string]interface{}{"error": err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		m.processTask(ctx, task)
		m.broker.Ack(context.WithoutCancel(ctx), raw)
	}
}

func (m *Manager) processTask(ctx context.Context, task *models.NotificationTask) {
	attempt := task.Attempt + 1
	log := m.logger.WithFields(map[string]interface{}{
		"taskId":  task.ID,
		"type":    task.Type,
		"attempt": attempt,
	})

	// Cleanup writes must survive shutdown of the task context.
	bgCtx := context.WithoutCancel(ctx)

	handler, ok := m.handlers[task.Type]
	if !ok {
		log.Error("no handler registered for task type", nil)
		m.broker.DeadLetter(bgCtx, task)
		m.broker.Status().SetFailed(bgCtx, task.ID, attempt, "unknown task type: "+task.Type)
		metrics.TasksCompleted.WithLabelValues(models.TaskStatusFailed).Inc()
		return
	}

	if err := m.broker.Status().SetRunning(ctx, task.ID, attempt); err != nil {
		log.Warn("failed to record running state", map[string]interface{}{"error": err.Error()})
	}

	taskCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.HardTimeLimit)*time.Second)
	defer cancel()

	softTimer := time.AfterFunc(time.Duration(m.cfg.SoftTimeLimit)*time.Second, func() {
		log.Warn("task exceeded soft time limit", map[string]interface{}{
			"softLimitSeconds": m.cfg.SoftTimeLimit,
		})
	})
	defer softTimer.Stop()

	start := time.Now()
	result, err := handler.Execute(taskCtx, task)
	elapsed := time.Since(start)

	metrics.TaskDuration.Observe(elapsed.Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = stderrors.NewTaskTimeoutError(task.ID)
		}
		m.handleFailure(bgCtx, task, attempt, err, log)
		m.obs.RecordTaskDuration(bgCtx, elapsed, models.TaskStatusFailed)
		return
	}

	if err := m.broker.Status().SetCompleted(bgCtx, task.ID, attempt, result); err != nil {
		log.Warn("failed to record completed state", map[string]interface{}{"error": err.Error()})
	}
	metrics.TasksCompleted.WithLabelValues(models.TaskStatusCompleted).Inc()
	m.obs.RecordTaskProcessed(bgCtx, models.TaskStatusCompleted)
	m.obs.RecordTaskDuration(bgCtx, elapsed, models.TaskStatusCompleted)

	log.Info("task completed", map[string]interface{}{
		"durationMs": elapsed.Milliseconds(),
		"status":     result.Status,
	})
}

func (m *Manager) handleFailure(ctx context.Context, task *models.NotificationTask, attempt int, taskErr error, log logger.Logger) {
	stdErr := stderrors.AsStandard(taskErr)
	log.Error("task attempt failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Message,
		"details":   stdErr.Details,
	})

	if stderrors.IsRetryable(taskErr) && attempt < m.cfg.MaxRetries {
		delay := m.retryDelay(attempt)
		if err := m.broker.ScheduleRetry(ctx, task, delay); err != nil {
			log.Error("failed to schedule retry", map[string]interface{}{"error": err.Error()})
			m.failTerminal(ctx, task, attempt, taskErr, log)
			return
		}
		log.Info("retry scheduled", map[string]interface{}{
			"delaySeconds": int(delay.Seconds()),
			"nextAttempt":  attempt + 1,
		})
		return
	}

	if stderrors.IsRetryable(taskErr) {
		taskErr = stderrors.NewRetriesExhaustedError(task.ID, attempt, taskErr)
	}
	m.failTerminal(ctx, task, attempt, taskErr, log)
}

func (m *Manager) failTerminal(ctx context.Context, task *models.NotificationTask, attempt int, taskErr error, log logger.Logger) {
	if err := m.broker.DeadLetter(ctx, task); err != nil {
		log.Error("failed to dead-letter task", map[string]interface{}{"error": err.Error()})
	}
	if err := m.broker.Status().SetFailed(ctx, task.ID, attempt, taskErr.Error()); err != nil {
		log.Warn("failed to record failed state", map[string]interface{}{"error": err.Error()})
	}
	metrics.TasksCompleted.WithLabelValues(models.TaskStatusFailed).Inc()
	m.obs.RecordTaskProcessed(ctx, models.TaskStatusFailed)
}

// retryDelay computes the wait before retry number attempt: exponential
// from the base delay, capped, with full jitter so synchronized failures
// do not retry in lockstep.
func (m *Manager) retryDelay(attempt int) time.Duration {
	base := time.Duration(m.cfg.RetryBaseDelay) * time.Second
	max := time.Duration(m.cfg.RetryMaxDelay) * time.Second

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			break
		}
	}
	if delay > max {
		delay = max
	}
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)) + 1)
}
