// internal/store/resolver_test.go
package store

import (
	"context"
	"errors"
	"testing"
	"time"

	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lookupColumns = []string{
	"application_id", "application_status", "applied_at",
	"email_sent", "email_sent_at", "sms_sent", "sms_sent_at",
	"cand_id", "candidate_first_name", "candidate_last_name", "candidate_email",
	"candidate_mobile", "candidate_work", "candidate_home",
	"notify_email", "notify_sms",
	"requirement_id", "requirement_title", "requirement_description",
	"client_name", "requirement_location", "requirement_zipcode", "is_remote_location",
	"min_payrate", "max_payrate", "requirement_duration", "requirement_open_date",
	"similarity_score",
}

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResolver(db, logger.NewTestLogger(t)), mock
}

func TestResolver_Resolve_Found(t *testing.T) {
	resolver, mock := newTestResolver(t)

	applied := time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC)
	rows := sqlmock.NewRows(lookupColumns).AddRow(
		int64(9001), "matched", applied,
		false, nil, false, nil,
		int64(101), "Dana", "Reyes", "dana@example.com",
		"5551234567", nil, nil,
		true, true,
		"REQ-2041", "Data Engineer", "<p>Pipelines</p>",
		"Acme Corp", "Austin", "78701", false,
		55.0, 70.0, "6 months", nil,
		0.87,
	)
	mock.ExpectQuery("FROM job_application_tracking t").
		WithArgs(int64(101), "REQ-2041").
		WillReturnRows(rows)

	appCtx, found, err := resolver.Resolve(context.Background(), 101, "REQ-2041")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, int64(9001), appCtx.Application.ID)
	assert.Equal(t, "matched", appCtx.Application.Status)
	assert.Equal(t, "Dana", appCtx.Candidate.FirstName)
	assert.True(t, appCtx.Candidate.NotifyEmail)
	assert.True(t, appCtx.Candidate.NotifySMS)
	assert.Equal(t, "5551234567", appCtx.Candidate.MobilePhone)
	assert.Equal(t, "Austin, 78701", appCtx.Requirement.Location)
	assert.Equal(t, 0.87, appCtx.Requirement.SimilarityScore)
	require.NotNil(t, appCtx.Requirement.MinPayRate)
	assert.Equal(t, 55.0, *appCtx.Requirement.MinPayRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_Resolve_NullDefaults(t *testing.T) {
	resolver, mock := newTestResolver(t)

	rows := sqlmock.NewRows(lookupColumns).AddRow(
		int64(9002), "", nil,
		false, nil, false, nil,
		int64(102), "Sam", "Lee", "sam@example.com",
		nil, nil, nil,
		nil, nil,
		"REQ-3000", "QA Analyst", nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil,
	)
	mock.ExpectQuery("FROM job_application_tracking t").
		WithArgs(int64(102), "REQ-3000").
		WillReturnRows(rows)

	appCtx, found, err := resolver.Resolve(context.Background(), 102, "REQ-3000")
	require.NoError(t, err)
	require.True(t, found)

	// Absent preferences: email defaults on, SMS defaults off.
	assert.True(t, appCtx.Candidate.NotifyEmail)
	assert.False(t, appCtx.Candidate.NotifySMS)
	assert.Equal(t, "MATCHED", appCtx.Application.Status)
	assert.Equal(t, "N/A", appCtx.Requirement.ClientName)
	assert.Equal(t, "Location TBD", appCtx.Requirement.Location)
	assert.Nil(t, appCtx.Requirement.MinPayRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	resolver, mock := newTestResolver(t)

	mock.ExpectQuery("FROM job_application_tracking t").
		WithArgs(int64(999), "REQ-NONE").
		WillReturnRows(sqlmock.NewRows(lookupColumns))

	appCtx, found, err := resolver.Resolve(context.Background(), 999, "REQ-NONE")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, appCtx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_Resolve_QueryError(t *testing.T) {
	resolver, mock := newTestResolver(t)

	mock.ExpectQuery("FROM job_application_tracking t").
		WillReturnError(errors.New("connection reset"))

	_, found, err := resolver.Resolve(context.Background(), 101, "REQ-2041")
	require.Error(t, err)
	assert.False(t, found)

	stdErr := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeApplicationLookupFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestResolver_MarkChannelSent(t *testing.T) {
	resolver, mock := newTestResolver(t)

	mock.ExpectExec(`UPDATE job_application_tracking SET email_sent = TRUE`).
		WithArgs(int64(9001), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := resolver.MarkChannelSent(context.Background(), 9001, ChannelEmail)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_MarkChannelSent_SMS(t *testing.T) {
	resolver, mock := newTestResolver(t)

	mock.ExpectExec(`UPDATE job_application_tracking SET sms_sent = TRUE`).
		WithArgs(int64(9001), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := resolver.MarkChannelSent(context.Background(), 9001, ChannelSMS)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_MarkChannelSent_InvalidChannel(t *testing.T) {
	resolver, _ := newTestResolver(t)
	err := resolver.MarkChannelSent(context.Background(), 9001, "fax")
	assert.Error(t, err)
}

func TestResolver_MarkChannelSent_WriteError(t *testing.T) {
	resolver, mock := newTestResolver(t)

	mock.ExpectExec(`UPDATE job_application_tracking SET email_sent = TRUE`).
		WillReturnError(errors.New("deadlock detected"))

	err := resolver.MarkChannelSent(context.Background(), 9001, ChannelEmail)
	require.Error(t, err)

	stdErr := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeSentFlagUpdateFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestDeriveLocation(t *testing.T) {
	tests := []struct {
		name     string
		isRemote bool
		location string
		zipcode  string
		expected string
	}{
		{"remote wins", true, "Austin", "78701", "Remote"},
		{"city and zip", false, "Austin", "78701", "Austin, 78701"},
		{"city only", false, "Austin", "", "Austin"},
		{"zip only", false, "", "78701", "78701"},
		{"nothing", false, "", "", "Location TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveLocation(tt.isRemote, tt.location, tt.zipcode))
		})
	}
}
