// internal/store/resolver.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/models"
)

// Channel names accepted by MarkChannelSent.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// lookupQuery joins the candidate, requirement, and tracking rows in one
// round trip. Rows where both channels are already sent are filtered out
// here so callers see them as absent, same as a missing application.
const lookupQuery = `
SELECT
	t.application_id,
	t.application_status,
	t.applied_at,
	t.email_sent,
	t.email_sent_at,
	t.sms_sent,
	t.sms_sent_at,
	c.cand_id,
	c.candidate_first_name,
	c.candidate_last_name,
	c.candidate_email,
	c.candidate_mobile,
	c.candidate_work,
	c.candidate_home,
	c.notify_email,
	c.notify_sms,
	r.requirement_id,
	r.requirement_title,
	r.requirement_description,
	r.client_name,
	r.requirement_location,
	r.requirement_zipcode,
	r.is_remote_location,
	r.min_payrate,
	r.max_payrate,
	r.requirement_duration,
	r.requirement_open_date,
	r.similarity_score
FROM job_application_tracking t
JOIN auto_apply_cand c ON c.cand_id = t.cand_id
JOIN parsed_requirements r ON r.requirement_id = t.requirement_id
WHERE t.cand_id = $1
  AND t.requirement_id = $2
  AND NOT (t.email_sent AND t.sms_sent)
`

// Resolver performs the consolidated application lookup and the sent-flag
// writes. It is the only component that touches the data store.
type Resolver struct {
	db     *sql.DB
	logger logger.Logger
}

func NewResolver(db *sql.DB, log logger.Logger) *Resolver {
	return &Resolver{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "resolver"}),
	}
}

// Resolve fetches the full application context for one (candidate,
// requirement) pair. found=false means no matching application exists or
// both channels are already sent; that is a no-op signal, not a fault.
func (r *Resolver) Resolve(ctx context.Context, candID int64, requirementID string) (*models.ApplicationContext, bool, error) {
	row := r.db.QueryRowContext(ctx, lookupQuery, candID, requirementID)

	var (
		app         models.Application
		cand        models.Candidate
		req         models.Requirement
		appliedAt   sql.NullTime
		emailSentAt sql.NullTime
		smsSentAt   sql.NullTime
		notifyEmail sql.NullBool
		notifySMS   sql.NullBool
		mobile      sql.NullString
		work        sql.NullString
		home        sql.NullString
		description sql.NullString
		clientName  sql.NullString
		location    sql.NullString
		zipcode     sql.NullString
		isRemote    sql.NullBool
		minPay      sql.NullFloat64
		maxPay      sql.NullFloat64
		duration    sql.NullString
		openDate    sql.NullTime
		score       sql.NullFloat64
	)

	err := row.Scan(
		&app.ID,
		&app.Status,
		&appliedAt,
		&app.EmailSent,
		&emailSentAt,
		&app.SMSSent,
		&smsSentAt,
		&cand.ID,
		&cand.FirstName,
		&cand.LastName,
		&cand.Email,
		&mobile,
		&work,
		&home,
		&notifyEmail,
		&notifySMS,
		&req.ID,
		&req.Title,
		&description,
		&clientName,
		&location,
		&zipcode,
		&isRemote,
		&minPay,
		&maxPay,
		&duration,
		&openDate,
		&score,
	)
	if err == sql.ErrNoRows {
		r.logger.Info("application not found or both notifications already sent", map[string]interface{}{
			"candId":        candID,
			"requirementId": requirementID,
		})
		return nil, false, nil
	}
	if err != nil {
		return nil, false, stderrors.NewApplicationLookupError(err)
	}

	if appliedAt.Valid {
		app.AppliedAt = &appliedAt.Time
	}
	if emailSentAt.Valid {
		app.EmailSentAt = &emailSentAt.Time
	}
	if smsSentAt.Valid {
		app.SMSSentAt = &smsSentAt.Time
	}
	if app.Status == "" {
		app.Status = "MATCHED"
	}

	cand.MobilePhone = mobile.String
	cand.WorkPhone = work.String
	cand.HomePhone = home.String
	// Preference defaults follow the product behavior: email opt-out is
	// explicit, SMS opt-in is explicit.
	cand.NotifyEmail = true
	if notifyEmail.Valid {
		cand.NotifyEmail = notifyEmail.Bool
	}
	cand.NotifySMS = notifySMS.Valid && notifySMS.Bool

	req.Description = description.String
	req.ClientName = clientName.String
	if req.ClientName == "" {
		req.ClientName = "N/A"
	}
	req.Location = deriveLocation(isRemote.Valid && isRemote.Bool, location.String, zipcode.String)
	if minPay.Valid {
		v := minPay.Float64
		req.MinPayRate = &v
	}
	if maxPay.Valid {
		v := maxPay.Float64
		req.MaxPayRate = &v
	}
	req.Duration = duration.String
	if openDate.Valid {
		req.OpenDate = &openDate.Time
	}
	if score.Valid {
		req.SimilarityScore = score.Float64
	}

	return &models.ApplicationContext{
		Candidate:   cand,
		Requirement: req,
		Application: app,
	}, true, nil
}

// MarkChannelSent flips the channel's sent-flag and stamps the send time.
// The flag is monotonic: this system never resets it to false, so the
// update is idempotent under re-delivery.
func (r *Resolver) MarkChannelSent(ctx context.Context, applicationID int64, channel string) error {
	var query string
	switch channel {
	case ChannelEmail:
		query = `UPDATE job_application_tracking SET email_sent = TRUE, email_sent_at = $2 WHERE application_id = $1`
	case ChannelSMS:
		query = `UPDATE job_application_tracking SET sms_sent = TRUE, sms_sent_at = $2 WHERE application_id = $1`
	default:
		return fmt.Errorf("invalid channel: %s", channel)
	}

	if _, err := r.db.ExecContext(ctx, query, applicationID, time.Now().UTC()); err != nil {
		return stderrors.NewSentFlagUpdateError(channel, err)
	}

	r.logger.Info("marked channel sent", map[string]interface{}{
		"applicationId": applicationID,
		"channel":       channel,
	})
	return nil
}

// deriveLocation builds the display location: the remote flag wins, then
// free-text and zip joined with ", ", then a TBD fallback.
func deriveLocation(isRemote bool, location, zipcode string) string {
	if isRemote {
		return "Remote"
	}
	switch {
	case location != "" && zipcode != "":
		return location + ", " + zipcode
	case location != "":
		return location
	case zipcode != "":
		return zipcode
	default:
		return "Location TBD"
	}
}
