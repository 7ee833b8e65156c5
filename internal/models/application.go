// internal/models/application.go
package models

import "time"

// Candidate is the notification-relevant slice of a candidate row.
// Phone fields are listed in selection priority order.
type Candidate struct {
	ID          int64  `json:"candId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	MobilePhone string `json:"mobilePhone,omitempty"`
	WorkPhone   string `json:"workPhone,omitempty"`
	HomePhone   string `json:"homePhone,omitempty"`
	NotifyEmail bool   `json:"notifyEmail"`
	NotifySMS   bool   `json:"notifySms"`
}

// FullName joins the name parts, tolerating either being empty.
func (c Candidate) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Requirement is the job requirement joined into an application lookup.
type Requirement struct {
	ID              string     `json:"requirementId"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ClientName      string     `json:"clientName"`
	Location        string     `json:"location"` // derived: Remote / "city, zip" / "Location TBD"
	MinPayRate      *float64   `json:"minPayRate,omitempty"`
	MaxPayRate      *float64   `json:"maxPayRate,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	OpenDate        *time.Time `json:"openDate,omitempty"`
	SimilarityScore float64    `json:"similarityScore"` // 0.0–1.0
}

// Application is the tracking row for one (candidate, requirement) pair.
type Application struct {
	ID          int64      `json:"applicationId"`
	Status      string     `json:"status"` // free-text, e.g. "MATCHED"
	AppliedAt   *time.Time `json:"appliedAt,omitempty"`
	EmailSent   bool       `json:"emailSent"`
	EmailSentAt *time.Time `json:"emailSentAt,omitempty"`
	SMSSent     bool       `json:"smsSent"`
	SMSSentAt   *time.Time `json:"smsSentAt,omitempty"`
}

// ApplicationContext is the read-only snapshot produced by one resolver
// lookup. It is built fresh per orchestration attempt and discarded after.
type ApplicationContext struct {
	Candidate   Candidate   `json:"candidate"`
	Requirement Requirement `json:"requirement"`
	Application Application `json:"application"`
}
