package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/errors"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/meetingbot"
	"github.com/workpulse-hq/workpulse/internal/usecase/ingestion"
)

// Webhook receives deliveries from the meeting-bot provider. Verification and
// enqueueing happen inline; all processing runs on the orchestrator's worker
// pool so the provider gets its 202 fast.
type Webhook struct {
	orchestrator *ingestion.Orchestrator
	secret       string
	logger       *zap.Logger
}

// NewWebhook creates a new webhook handler
func NewWebhook(orchestrator *ingestion.Orchestrator, secret string, logger *zap.Logger) *Webhook {
	return &Webhook{
		orchestrator: orchestrator,
		secret:       secret,
		logger:       logger,
	}
}

// Handle accepts one bot provider delivery
// POST /v1/webhooks/meeting-bot
func (h *Webhook) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Unreadable request body"))
	}

	if h.secret != "" {
		token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if err := meetingbot.VerifyWebhook(body, token, h.secret); err != nil {
			h.logger.Warn("webhook signature rejected", zap.Error(err))
			return handleError(c, h.logger, errors.ErrWebhookSignature())
		}
	}

	var event ingestion.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Malformed webhook payload"))
	}
	if event.BotSessionID == "" || event.EventType == "" {
		return handleError(c, h.logger, errors.ErrInvalidArgument("bot_session_id and event_type are required"))
	}
	event.Raw = body

	if err := h.orchestrator.EnqueueWebhookEvent(&event); err != nil {
		// Queue is full; a non-2xx makes the provider retry later
		h.logger.Error("webhook enqueue failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, errs{
			Code:    errors.ErrorCode_INTERNAL,
			Message: "Webhook queue is full, retry later",
		})
	}

	return c.JSON(http.StatusAccepted, success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "accepted",
	})
}
