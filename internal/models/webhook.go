// internal/models/webhook.go
package models

import "encoding/json"

// WebhookPayload is the inbound change-event shape. Field names follow
// the emitting database's webhook format, so they stay snake_case on the
// wire.
type WebhookPayload struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Record    WebhookRecord   `json:"record"`
	Schema    string          `json:"schema,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// WebhookRecord carries the identifiers needed to build a task. Other
// row columns are ignored at the boundary; the resolver re-reads the
// authoritative row anyway.
type WebhookRecord struct {
	CandID        int64  `json:"cand_id"`
	RequirementID string `json:"requirement_id"`
}

// WebhookAccepted is the 202 response body for an enqueued task.
type WebhookAccepted struct {
	Status        string `json:"status"`
	TaskID        string `json:"task_id"`
	CandID        int64  `json:"cand_id"`
	RequirementID string `json:"requirement_id"`
	Timestamp     string `json:"timestamp"`
}
