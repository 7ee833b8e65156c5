// internal/workers/notification/send-notification/models.go
package sendnotification

// Orchestration statuses
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// Channel skip and failure reasons
const (
	ReasonDisabled     = "channel disabled"
	ReasonAlreadySent  = "already sent"
	ReasonOptedOut     = "notifications disabled for candidate"
	ReasonNoEmail      = "no email address on record"
	ReasonNoValidPhone = "no valid phone number on record"
	ReasonNotFound     = "application absent or already fully notified"
)
