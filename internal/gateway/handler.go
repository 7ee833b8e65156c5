// internal/gateway/handler.go
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"jobmatch-notifier/internal/common/config"
	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/metrics"
	"jobmatch-notifier/internal/models"
	"jobmatch-notifier/internal/queue"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway serves the webhook ingress and the read-only status surface.
type Gateway struct {
	cfg      *config.Config
	broker   *queue.Broker
	postgres Pinger
	redis    Pinger
	logger   logger.Logger
}

func NewGateway(cfg *config.Config, broker *queue.Broker, postgres, redis Pinger, log logger.Logger) *Gateway {
	return &Gateway{
		cfg:      cfg,
		broker:   broker,
		postgres: postgres,
		redis:    redis,
		logger:   log,
	}
}

// handleWebhook ingests one change event: authenticate, validate,
// filter, enqueue. All failure modes are synchronous; the caller never
// waits on notification delivery.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if g.cfg.Webhook.Secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(g.cfg.Webhook.Secret)) != 1 {
		metrics.WebhooksReceived.WithLabelValues("unauthorized").Inc()
		g.logger.Warn("webhook rejected: bad secret", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		g.writeError(w, http.StatusUnauthorized, stderrors.NewWebhookAuthError())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("invalid").Inc()
		g.writeError(w, http.StatusBadRequest, stderrors.NewPayloadValidationError("unreadable request body"))
		return
	}

	payload, err := ValidatePayload(body)
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("invalid").Inc()
		g.logger.Warn("webhook rejected: invalid payload", map[string]interface{}{
			"error": err.Error(),
		})
		g.writeError(w, http.StatusBadRequest, err)
		return
	}

	if payload.Type != g.cfg.Webhook.EventType || payload.Table != g.cfg.Webhook.TargetTable {
		metrics.WebhooksReceived.WithLabelValues("ignored").Inc()
		g.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored",
			"reason": "event type or table not monitored",
		})
		return
	}

	taskID, err := g.broker.Enqueue(r.Context(), payload.Record.CandID, payload.Record.RequirementID)
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		g.logger.Error("enqueue failed", map[string]interface{}{
			"candId":        payload.Record.CandID,
			"requirementId": payload.Record.RequirementID,
			"error":         err.Error(),
		})
		g.writeError(w, http.StatusInternalServerError, err)
		return
	}

	metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	g.logger.Info("webhook accepted", map[string]interface{}{
		"taskId":        taskID,
		"candId":        payload.Record.CandID,
		"requirementId": payload.Record.RequirementID,
	})
	g.writeJSON(w, http.StatusAccepted, models.WebhookAccepted{
		Status:        "accepted",
		TaskID:        taskID,
		CandID:        payload.Record.CandID,
		RequirementID: payload.Record.RequirementID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTaskStatus returns the tracked state of one task.
func (g *Gateway) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	state, err := g.broker.Status().Get(r.Context(), taskID)
	if err != nil {
		g.logger.Error("task status lookup failed", map[string]interface{}{
			"taskId": taskID,
			"error":  err.Error(),
		})
		g.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  "status lookup failed",
		})
		return
	}
	if state == nil {
		g.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "unknown",
			"task_id": taskID,
		})
		return
	}
	g.writeJSON(w, http.StatusOK, state)
}

// handleHealth reports liveness of the backing stores and queue depth.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":   "healthy",
		"service":  g.cfg.App.Name,
		"version":  g.cfg.App.Version,
		"postgres": "up",
		"redis":    "up",
		"workers":  g.cfg.Queue.MaxWorkers,
	}
	status := http.StatusOK

	if err := g.postgres.Ping(ctx); err != nil {
		health["status"] = "degraded"
		health["postgres"] = "down"
		status = http.StatusServiceUnavailable
	}

	if err := g.redis.Ping(ctx); err != nil {
		health["status"] = "degraded"
		health["redis"] = "down"
		status = http.StatusServiceUnavailable
	} else if pending, delayed, dead, err := g.broker.Depth(ctx); err == nil {
		health["queue"] = map[string]int64{
			"pending":     pending,
			"delayed":     delayed,
			"dead_letter": dead,
		}
	}

	g.writeJSON(w, status, health)
}

// handleRoot returns service metadata.
func (g *Gateway) handleRoot(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{
		"service":     g.cfg.App.Name,
		"version":     g.cfg.App.Version,
		"environment": g.cfg.App.Environment,
	})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, status int, err error) {
	stdErr := stderrors.AsStandard(err)
	g.writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"code":    string(stdErr.Code),
		"message": stdErr.Message,
		"details": stdErr.Details,
	})
}
