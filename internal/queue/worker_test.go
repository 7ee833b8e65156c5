// internal/queue/worker_test.go
package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobmatch-notifier/internal/common/config"
	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/observability"
	"jobmatch-notifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	executeFunc func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error)
}

func (s *stubHandler) Execute(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
	return s.executeFunc(ctx, task)
}

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		MaxWorkers:     2,
		MaxRetries:     3,
		RetryBaseDelay: 1,
		RetryMaxDelay:  900,
		SoftTimeLimit:  240,
		HardTimeLimit:  300,
		ResultExpiry:   7200,
		SchedulerPoll:  50,
	}
}

func newTestManager(t *testing.T, handler Handler) (*Manager, *Broker) {
	broker, _ := newTestBroker(t)
	manager := NewManager(broker, testQueueConfig(), &observability.Observability{}, logger.NewTestLogger(t))
	manager.Register(models.TaskTypeSendNotification, handler)
	return manager, broker
}

func TestManager_ProcessTask_Success(t *testing.T) {
	handler := &stubHandler{
		executeFunc: func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
			return &models.OrchestrationResult{
				Status: "completed",
				CandID: task.CandID,
				Email:  models.ChannelResult{Outcome: models.ChannelOutcomeSent},
				SMS:    models.ChannelResult{Outcome: models.ChannelOutcomeSkipped},
			}, nil
		},
	}
	manager, broker := newTestManager(t, handler)
	ctx := context.Background()

	task := &models.NotificationTask{ID: "t-ok", Type: models.TaskTypeSendNotification, CandID: 101}
	manager.processTask(ctx, task)

	state, err := broker.Status().Get(ctx, "t-ok")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusCompleted, state.Status)
	assert.Equal(t, 1, state.Attempt)
	assert.Contains(t, state.Result, `"sent"`)
}

func TestManager_ProcessTask_RetryableFailureSchedulesRetry(t *testing.T) {
	handler := &stubHandler{
		executeFunc: func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
			return nil, stderrors.NewEmailSendError(errors.New("throttled"))
		},
	}
	manager, broker := newTestManager(t, handler)
	ctx := context.Background()

	task := &models.NotificationTask{ID: "t-retry", Type: models.TaskTypeSendNotification, Attempt: 0}
	manager.processTask(ctx, task)

	state, err := broker.Status().Get(ctx, "t-retry")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusRetrying, state.Status)
	assert.Equal(t, 1, state.Attempt)

	_, delayed, dead, err := broker.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)
	assert.Equal(t, int64(0), dead)
}

func TestManager_ProcessTask_RetriesExhausted(t *testing.T) {
	handler := &stubHandler{
		executeFunc: func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
			return nil, stderrors.NewEmailSendError(errors.New("still throttled"))
		},
	}
	manager, broker := newTestManager(t, handler)
	ctx := context.Background()

	// Third execution of a task with MaxRetries 3: no fourth attempt.
	task := &models.NotificationTask{ID: "t-exhausted", Type: models.TaskTypeSendNotification, Attempt: 2}
	manager.processTask(ctx, task)

	state, err := broker.Status().Get(ctx, "t-exhausted")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusFailed, state.Status)
	assert.Contains(t, state.Info, string(stderrors.ErrCodeRetriesExhausted))

	_, delayed, dead, err := broker.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), delayed)
	assert.Equal(t, int64(1), dead)
}

func TestManager_ProcessTask_NonRetryableFailsImmediately(t *testing.T) {
	handler := &stubHandler{
		executeFunc: func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
			return nil, stderrors.NewPayloadValidationError("bad content")
		},
	}
	manager, broker := newTestManager(t, handler)
	ctx := context.Background()

	task := &models.NotificationTask{ID: "t-terminal", Type: models.TaskTypeSendNotification, Attempt: 0}
	manager.processTask(ctx, task)

	state, err := broker.Status().Get(ctx, "t-terminal")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusFailed, state.Status)

	_, delayed, dead, err := broker.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), delayed)
	assert.Equal(t, int64(1), dead)
}

func TestManager_ProcessTask_UnknownTaskType(t *testing.T) {
	manager, broker := newTestManager(t, &stubHandler{})
	ctx := context.Background()

	task := &models.NotificationTask{ID: "t-unknown", Type: "no-such-type"}
	manager.processTask(ctx, task)

	state, err := broker.Status().Get(ctx, "t-unknown")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusFailed, state.Status)
	assert.Contains(t, state.Info, "unknown task type")
}

func TestManager_RunProcessesEnqueuedTask(t *testing.T) {
	done := make(chan string, 1)
	handler := &stubHandler{
		executeFunc: func(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
			done <- task.ID
			return &models.OrchestrationResult{Status: "completed"}, nil
		},
	}
	manager, broker := newTestManager(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskID, err := broker.Enqueue(ctx, 101, "REQ-2041")
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(finished)
	}()

	select {
	case got := <-done:
		assert.Equal(t, taskID, got)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not processed")
	}

	cancel()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop after cancellation")
	}
}

func TestManager_RetryDelayBounds(t *testing.T) {
	manager, _ := newTestManager(t, &stubHandler{})
	manager.cfg.RetryBaseDelay = 60
	manager.cfg.RetryMaxDelay = 900

	for attempt := 1; attempt <= 10; attempt++ {
		delay := manager.retryDelay(attempt)
		assert.Greater(t, delay, time.Duration(0))
		assert.LessOrEqual(t, delay, 900*time.Second)
	}
}
