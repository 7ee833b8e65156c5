// Package errors provides standardized error handling for the notification pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Gateway errors (surfaced synchronously to the webhook caller)
	ErrCodePayloadValidationFailed ErrorCode = "PAYLOAD_VALIDATION_FAILED"
	ErrCodeWebhookAuthFailed       ErrorCode = "WEBHOOK_AUTH_FAILED"

	// Store errors
	ErrCodeApplicationLookupFailed ErrorCode = "APPLICATION_LOOKUP_FAILED"
	ErrCodeSentFlagUpdateFailed    ErrorCode = "SENT_FLAG_UPDATE_FAILED"

	// Delivery errors
	ErrCodeEmailSendFailed    ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeSMSSendFailed      ErrorCode = "SMS_SEND_FAILED"
	ErrCodeDeliveryAuthFailed ErrorCode = "DELIVERY_AUTH_FAILED"
	ErrCodeInvalidRecipient   ErrorCode = "INVALID_RECIPIENT"

	// Queue errors
	ErrCodeEnqueueFailed    ErrorCode = "ENQUEUE_FAILED"
	ErrCodeTaskTimeout      ErrorCode = "TASK_TIMEOUT"
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewPayloadValidationError creates a non-retryable webhook payload error.
func NewPayloadValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadValidationFailed,
		Message:   "Invalid webhook payload structure",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookAuthError creates a non-retryable shared-secret mismatch error.
func NewWebhookAuthError() *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookAuthFailed,
		Message:   "Invalid webhook secret",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationLookupError creates a retryable store lookup error.
func NewApplicationLookupError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationLookupFailed,
		Message:   "Database error during application lookup",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSentFlagUpdateError creates a retryable sent-flag write error.
func NewSentFlagUpdateError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSentFlagUpdateFailed,
		Message:   "Failed to record delivery state",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendError creates a retryable email delivery error.
func NewEmailSendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Email delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSMSSendError creates a retryable SMS delivery error.
func NewSMSSendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSMSSendFailed,
		Message:   "SMS delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryAuthError creates a terminal transport credential error.
// Bad credentials will not fix themselves, so no retry.
func NewDeliveryAuthError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryAuthFailed,
		Message:   "Transport authentication failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRecipientError creates a non-retryable recipient validation error.
func NewInvalidRecipientError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRecipient,
		Message:   "Recipient address failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEnqueueError creates a retryable broker error.
func NewEnqueueError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEnqueueFailed,
		Message:   "Failed to enqueue notification task",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskTimeoutError creates a retryable hard-time-limit error.
func NewTaskTimeoutError(taskID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTaskTimeout,
		Message:   "Task exceeded hard time limit",
		Details:   fmt.Sprintf("taskId: %s", taskID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetriesExhaustedError creates the terminal error recorded after the
// final failed attempt.
func NewRetriesExhaustedError(taskID string, attempts int, last error) *StandardError {
	details := fmt.Sprintf("taskId: %s, attempts: %d", taskID, attempts)
	if last != nil {
		details += ", last: " + last.Error()
	}
	return &StandardError{
		Code:      ErrCodeRetriesExhausted,
		Message:   "Task failed after exhausting retries",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

// IsRetryable reports whether an error should trigger the retry policy.
// Unknown errors are treated as retryable: a transient infrastructure
// failure that slips through classification must not be dropped.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// IsTerminalDelivery reports whether an error is a non-retryable delivery
// failure that should be recorded as a failed channel outcome without
// failing the orchestration unit.
func IsTerminalDelivery(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == ErrCodeDeliveryAuthFailed
	}
	return false
}

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "WEBHOOK") || strings.Contains(codeStr, "PAYLOAD"):
		return "GATEWAY"
	case strings.Contains(codeStr, "LOOKUP") || strings.Contains(codeStr, "SENT_FLAG"):
		return "STORE"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "SMS") ||
		strings.Contains(codeStr, "DELIVERY") || strings.Contains(codeStr, "RECIPIENT"):
		return "DELIVERY"
	case strings.Contains(codeStr, "ENQUEUE") || strings.Contains(codeStr, "TASK") ||
		strings.Contains(codeStr, "RETRIES"):
		return "QUEUE"
	default:
		return "OTHER"
	}
}
