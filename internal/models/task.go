// internal/models/task.go
package models

import "time"

// TaskType identifiers dispatched through the work queue.
const (
	TaskTypeSendNotification = "send-notification"
)

// Task statuses. Queued and Running are transient; Retrying loops back to
// Running; Completed and Failed are terminal.
const (
	TaskStatusQueued    = "queued"
	TaskStatusRunning   = "running"
	TaskStatusRetrying  = "retrying"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// NotificationTask is the work-queue message for one orchestration unit.
// The (CandID, RequirementID) pair plus the store's sent-flags form the
// implicit idempotency key: re-delivery after success is a no-op because
// the resolver reports the application as already handled.
type NotificationTask struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CandID        int64     `json:"candId"`
	RequirementID string    `json:"requirementId"`
	Attempt       int       `json:"attempt"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}

// Channel outcomes reported per orchestration run.
const (
	ChannelOutcomeSent    = "sent"
	ChannelOutcomeSkipped = "skipped"
	ChannelOutcomeFailed  = "failed"
)

// ChannelResult is one channel's outcome within an orchestration run.
type ChannelResult struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// OrchestrationResult enumerates per-channel outcomes for one run.
type OrchestrationResult struct {
	Status        string        `json:"status"` // "completed" or "skipped"
	Reason        string        `json:"reason,omitempty"`
	CandID        int64         `json:"candId"`
	RequirementID string        `json:"requirementId"`
	Email         ChannelResult `json:"email"`
	SMS           ChannelResult `json:"sms"`
}

// TaskState is the tracked execution state stored alongside the queue,
// readable through the task-status endpoint.
type TaskState struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Result    string `json:"result,omitempty"` // JSON-encoded OrchestrationResult
	Info      string `json:"info,omitempty"`   // last error or progress note
	Attempt   int    `json:"attempt"`
	UpdatedAt string `json:"updated_at"`
}
