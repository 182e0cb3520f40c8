package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workpulse-hq/workpulse/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	oauthHandler   *OAuth
	meetingHandler *Meeting
	webhookHandler *Webhook
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, oauthHandler *OAuth, meetingHandler *Meeting, webhookHandler *Webhook) *Router {
	return &Router{
		cfg:            cfg,
		oauthHandler:   oauthHandler,
		meetingHandler: meetingHandler,
		webhookHandler: webhookHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	rt.setupOAuthRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupOAuthRoutes configures provider connection routes
func (rt *Router) setupOAuthRoutes(g *echo.Group) {
	oauthGroup := g.Group("/oauth")

	oauthGroup.GET("/:provider/connect", rt.oauthHandler.Connect)
	oauthGroup.GET("/:provider/callback", rt.oauthHandler.Callback)
}

// setupMeetingRoutes configures meeting lifecycle routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings")

	meetingGroup.POST("", rt.meetingHandler.Schedule)
	meetingGroup.GET("/:id", rt.meetingHandler.Get)
	meetingGroup.POST("/:id/cancel", rt.meetingHandler.Cancel)
	meetingGroup.GET("/:id/insights", rt.meetingHandler.ListInsights)
}

// setupWebhookRoutes configures inbound webhook routes
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhookGroup := g.Group("/webhooks")

	webhookGroup.POST("/meeting-bot", rt.webhookHandler.Handle)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
