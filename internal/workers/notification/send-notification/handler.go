// internal/workers/notification/send-notification/handler.go
package sendnotification

import (
	"context"

	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/metrics"
	"jobmatch-notifier/internal/models"
	"jobmatch-notifier/internal/notify"
	"jobmatch-notifier/internal/notify/render"
	"jobmatch-notifier/internal/store"
)

const (
	TaskType = models.TaskTypeSendNotification
)

// EmailDeliverer sends one rendered email.
type EmailDeliverer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMSDeliverer sends one rendered text message.
type SMSDeliverer interface {
	Send(ctx context.Context, to, message string) error
}

// Handler orchestrates one notification unit: resolve the application
// context, then run each channel independently through eligibility,
// render, send, and sent-flag recording.
type Handler struct {
	config   *Config
	resolver *store.Resolver
	renderer *render.Renderer
	email    EmailDeliverer
	sms      SMSDeliverer
	logger   logger.Logger
}

func NewHandler(cfg *Config, resolver *store.Resolver, renderer *render.Renderer, email EmailDeliverer, sms SMSDeliverer, log logger.Logger) *Handler {
	return &Handler{
		config:   cfg,
		resolver: resolver,
		renderer: renderer,
		email:    email,
		sms:      sms,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute runs one orchestration attempt. A returned error means the
// whole unit should be retried; channels already recorded as sent are
// skipped by the next attempt because their flags are set.
func (h *Handler) Execute(ctx context.Context, task *models.NotificationTask) (*models.OrchestrationResult, error) {
	log := h.logger.WithFields(map[string]interface{}{
		"taskId":        task.ID,
		"candId":        task.CandID,
		"requirementId": task.RequirementID,
	})

	appCtx, found, err := h.resolver.Resolve(ctx, task.CandID, task.RequirementID)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Info("nothing to notify", map[string]interface{}{"reason": ReasonNotFound})
		return &models.OrchestrationResult{
			Status:        StatusSkipped,
			Reason:        ReasonNotFound,
			CandID:        task.CandID,
			RequirementID: task.RequirementID,
			Email:         models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonNotFound},
			SMS:           models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonNotFound},
		}, nil
	}

	result := &models.OrchestrationResult{
		Status:        StatusCompleted,
		CandID:        task.CandID,
		RequirementID: task.RequirementID,
	}

	// Channels run independently: a failure on one never blocks the
	// other. The first retryable error is carried out of the unit so
	// the failed channel gets another attempt.
	var retryErr error

	result.Email = h.runEmailChannel(ctx, appCtx, log, &retryErr)
	result.SMS = h.runSMSChannel(ctx, appCtx, log, &retryErr)

	metrics.ChannelSends.WithLabelValues(store.ChannelEmail, result.Email.Outcome).Inc()
	metrics.ChannelSends.WithLabelValues(store.ChannelSMS, result.SMS.Outcome).Inc()

	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

func (h *Handler) runEmailChannel(ctx context.Context, appCtx *models.ApplicationContext, log logger.Logger, retryErr *error) models.ChannelResult {
	if !h.config.EmailEnabled {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonDisabled}
	}
	if appCtx.Application.EmailSent {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonAlreadySent}
	}
	if !appCtx.Candidate.NotifyEmail {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonOptedOut}
	}
	if appCtx.Candidate.Email == "" {
		log.Warn("email channel unusable", map[string]interface{}{"reason": ReasonNoEmail})
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonNoEmail}
	}

	content := h.renderer.RenderEmail(appCtx)
	if err := h.email.Send(ctx, appCtx.Candidate.Email, content.Subject, content.HTMLBody); err != nil {
		return h.recordSendFailure(store.ChannelEmail, err, log, retryErr)
	}

	if err := h.resolver.MarkChannelSent(ctx, appCtx.Application.ID, store.ChannelEmail); err != nil {
		// The message went out but the flag write failed. Retrying is
		// the lesser evil: a duplicate email beats a silently lost
		// delivery record.
		log.Error("sent-flag update failed after email delivery", map[string]interface{}{
			"error": err.Error(),
		})
		*retryErr = err
		return models.ChannelResult{Outcome: models.ChannelOutcomeFailed, Reason: err.Error()}
	}

	log.Info("email sent", map[string]interface{}{"to": appCtx.Candidate.Email})
	return models.ChannelResult{Outcome: models.ChannelOutcomeSent}
}

func (h *Handler) runSMSChannel(ctx context.Context, appCtx *models.ApplicationContext, log logger.Logger, retryErr *error) models.ChannelResult {
	if !h.config.SMSEnabled {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonDisabled}
	}
	if appCtx.Application.SMSSent {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonAlreadySent}
	}
	if !appCtx.Candidate.NotifySMS {
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonOptedOut}
	}

	phone := notify.SelectPhone(appCtx.Candidate, h.config.DefaultCountryCode)
	if phone == "" {
		log.Warn("sms channel unusable", map[string]interface{}{"reason": ReasonNoValidPhone})
		return models.ChannelResult{Outcome: models.ChannelOutcomeSkipped, Reason: ReasonNoValidPhone}
	}

	message := h.renderer.RenderSMS(appCtx)
	if err := h.sms.Send(ctx, phone, message); err != nil {
		return h.recordSendFailure(store.ChannelSMS, err, log, retryErr)
	}

	if err := h.resolver.MarkChannelSent(ctx, appCtx.Application.ID, store.ChannelSMS); err != nil {
		log.Error("sent-flag update failed after sms delivery", map[string]interface{}{
			"error": err.Error(),
		})
		*retryErr = err
		return models.ChannelResult{Outcome: models.ChannelOutcomeFailed, Reason: err.Error()}
	}

	log.Info("sms sent", map[string]interface{}{"to": phone})
	return models.ChannelResult{Outcome: models.ChannelOutcomeSent}
}

// recordSendFailure distinguishes terminal transport failures, which are
// recorded without failing the unit, from retryable ones, which do.
func (h *Handler) recordSendFailure(channel string, err error, log logger.Logger, retryErr *error) models.ChannelResult {
	stdErr := stderrors.AsStandard(err)
	log.Error("channel send failed", map[string]interface{}{
		"channel":   channel,
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Details,
	})

	if !stderrors.IsTerminalDelivery(err) && stderrors.IsRetryable(err) {
		*retryErr = err
	}
	return models.ChannelResult{Outcome: models.ChannelOutcomeFailed, Reason: stdErr.Message}
}
