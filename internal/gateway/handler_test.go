// internal/gateway/handler_test.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobmatch-notifier/internal/common/config"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/models"
	"jobmatch-notifier/internal/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-webhook-secret"

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestGateway(t *testing.T) (*Gateway, *queue.Broker) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	status := queue.NewStatusTracker(client, 2*time.Hour)
	broker := queue.NewBroker(client, status, log)

	cfg := &config.Config{}
	cfg.App.Name = "jobmatch-notifier"
	cfg.App.Version = "test"
	cfg.Webhook.Secret = testSecret
	cfg.Webhook.TargetTable = "job_application_tracking"
	cfg.Webhook.EventType = "INSERT"

	return NewGateway(cfg, broker, &stubPinger{}, &stubPinger{}, log), broker
}

func validPayload() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"type":  "INSERT",
		"table": "job_application_tracking",
		"record": map[string]interface{}{
			"cand_id":        101,
			"requirement_id": "REQ-2041",
		},
	})
	return body
}

func postWebhook(t *testing.T, handler http.Handler, body []byte, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/job-match", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_Accepted(t *testing.T) {
	gw, broker := newTestGateway(t)
	handler := gw.Routes()

	rec := postWebhook(t, handler, validPayload(), testSecret)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.WebhookAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, int64(101), resp.CandID)
	assert.Equal(t, "REQ-2041", resp.RequirementID)

	// The task really is on the queue with a queued status record.
	task, _, err := broker.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, resp.TaskID, task.ID)

	state, err := broker.Status().Get(context.Background(), resp.TaskID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.TaskStatusQueued, state.Status)
}

func TestWebhook_BadSecret(t *testing.T) {
	gw, broker := newTestGateway(t)
	handler := gw.Routes()

	tests := []struct {
		name   string
		secret string
	}{
		{"wrong secret", "nope"},
		{"missing secret", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(t, handler, validPayload(), tt.secret)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	pending, _, _, err := broker.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestWebhook_NoSecretConfigured(t *testing.T) {
	gw, _ := newTestGateway(t)
	gw.cfg.Webhook.Secret = ""
	handler := gw.Routes()

	// With no secret configured the header is not checked, present or not.
	for _, secret := range []string{"", "some-stray-header"} {
		rec := postWebhook(t, handler, validPayload(), secret)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}
}

func TestWebhook_InvalidPayload(t *testing.T) {
	gw, broker := newTestGateway(t)
	handler := gw.Routes()

	tests := []struct {
		name string
		body []byte
	}{
		{"empty body", nil},
		{"not json", []byte("not json")},
		{"missing record", []byte(`{"type":"INSERT","table":"job_application_tracking"}`)},
		{"missing cand_id", []byte(`{"type":"INSERT","table":"job_application_tracking","record":{"requirement_id":"REQ-1"}}`)},
		{"missing requirement_id", []byte(`{"type":"INSERT","table":"job_application_tracking","record":{"cand_id":101}}`)},
		{"wrong cand_id type", []byte(`{"type":"INSERT","table":"job_application_tracking","record":{"cand_id":"101","requirement_id":"REQ-1"}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(t, handler, tt.body, testSecret)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "PAYLOAD_VALIDATION_FAILED")
		})
	}

	pending, _, _, err := broker.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestWebhook_IgnoredEvents(t *testing.T) {
	gw, broker := newTestGateway(t)
	handler := gw.Routes()

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{
			name: "update event",
			payload: map[string]interface{}{
				"type":  "UPDATE",
				"table": "job_application_tracking",
				"record": map[string]interface{}{
					"cand_id": 101, "requirement_id": "REQ-2041",
				},
			},
		},
		{
			name: "other table",
			payload: map[string]interface{}{
				"type":  "INSERT",
				"table": "audit_log",
				"record": map[string]interface{}{
					"cand_id": 101, "requirement_id": "REQ-2041",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.payload)
			rec := postWebhook(t, handler, body, testSecret)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "ignored")
		})
	}

	// Ignored events enqueue nothing.
	pending, _, _, err := broker.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestTaskStatus_Known(t *testing.T) {
	gw, broker := newTestGateway(t)
	handler := gw.Routes()

	taskID, err := broker.Enqueue(context.Background(), 101, "REQ-2041")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/task/"+taskID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var state models.TaskState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, taskID, state.TaskID)
	assert.Equal(t, models.TaskStatusQueued, state.Status)
}

func TestTaskStatus_Unknown(t *testing.T) {
	gw, _ := newTestGateway(t)
	handler := gw.Routes()

	req := httptest.NewRequest(http.MethodGet, "/task/no-such-task", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown")
}

func TestHealth_AllUp(t *testing.T) {
	gw, _ := newTestGateway(t)
	handler := gw.Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health, "queue")
	assert.Contains(t, health, "workers")
}

func TestHealth_PostgresDown(t *testing.T) {
	gw, _ := newTestGateway(t)
	gw.postgres = &stubPinger{err: errors.New("connection refused")}
	handler := gw.Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestRoot_Metadata(t *testing.T) {
	gw, _ := newTestGateway(t)
	handler := gw.Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobmatch-notifier")
}
