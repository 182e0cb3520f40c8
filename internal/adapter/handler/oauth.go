package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/errors"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/usecase/oauthflow"
	"github.com/workpulse-hq/workpulse/pkg/config"
)

// orgCookieName carries the organization id between connect and callback
const orgCookieName = "wp_oauth_org"

// OAuth handles the provider connect/callback endpoints. Tokens never appear
// in any response; the callback redirects the browser back to the UI with a
// status flag only.
type OAuth struct {
	flow   *oauthflow.Service
	cfg    *config.ServerConfig
	logger *zap.Logger
}

// NewOAuth creates a new OAuth handler
func NewOAuth(flow *oauthflow.Service, cfg *config.ServerConfig, logger *zap.Logger) *OAuth {
	return &OAuth{
		flow:   flow,
		cfg:    cfg,
		logger: logger,
	}
}

// providerFromPath maps the URL segment to the provider slot
func providerFromPath(name string) (entities.Provider, error) {
	switch name {
	case "google":
		return entities.ProviderCalendar, nil
	case "zoom":
		return entities.ProviderConferencing, nil
	default:
		return "", entities.ErrProviderNotSupported
	}
}

// Connect starts the handshake and redirects the browser to the provider
// GET /v1/oauth/:provider/connect?org_id=...&user_id=...
func (h *OAuth) Connect(c echo.Context) error {
	provider, err := providerFromPath(c.Param("provider"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrProviderUnsupported(c.Param("provider")))
	}

	orgID, err := uuid.Parse(c.QueryParam("org_id"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid org_id"))
	}
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid user_id"))
	}

	authURL, err := h.flow.Start(c.Request().Context(), orgID, userID, provider)
	if err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	// The callback re-reads the organization from this cookie and the flow
	// rejects the handshake if it disagrees with the state binding
	c.SetCookie(&http.Cookie{
		Name:     orgCookieName,
		Value:    orgID.String(),
		Path:     "/v1/oauth",
		MaxAge:   int(entities.OAuthStateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, authURL)
}

// Callback completes the handshake and sends the browser back to the UI
// GET /v1/oauth/:provider/callback?state=...&code=...
func (h *OAuth) Callback(c echo.Context) error {
	providerName := c.Param("provider")
	provider, err := providerFromPath(providerName)
	if err != nil {
		return h.redirectToUI(c, providerName, "unsupported_provider")
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		h.logger.Warn("oauth provider returned error",
			zap.String("provider", providerName),
			zap.String("error", errParam),
		)
		return h.redirectToUI(c, providerName, "denied")
	}

	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return h.redirectToUI(c, providerName, "invalid_callback")
	}

	cookie, err := c.Cookie(orgCookieName)
	if err != nil {
		return h.redirectToUI(c, providerName, "invalid_state")
	}
	orgID, err := uuid.Parse(cookie.Value)
	if err != nil {
		return h.redirectToUI(c, providerName, "invalid_state")
	}

	if _, err := h.flow.Callback(c.Request().Context(), orgID, provider, state, code); err != nil {
		h.logger.Warn("oauth callback failed",
			zap.String("provider", providerName),
			zap.Error(err),
		)
		return h.redirectToUI(c, providerName, "failed")
	}

	return h.redirectToUI(c, providerName, "")
}

// redirectToUI sends the browser back to the integrations page. An empty
// failure marks success.
func (h *OAuth) redirectToUI(c echo.Context, provider, failure string) error {
	target := fmt.Sprintf("%s/settings/integrations?provider=%s", h.cfg.UIBaseURL, provider)
	if failure == "" {
		target += "&connected=true"
	} else {
		target += "&error=" + failure
	}
	return c.Redirect(http.StatusFound, target)
}
