package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/errors"
	meetingdto "github.com/workpulse-hq/workpulse/internal/adapter/dto/meeting"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/domain/repositories"
	"github.com/workpulse-hq/workpulse/internal/usecase/ingestion"
)

// Meeting handles the meeting lifecycle HTTP endpoints
type Meeting struct {
	orchestrator *ingestion.Orchestrator
	insightRepo  repositories.InsightRepository
	logger       *zap.Logger
}

// NewMeeting creates a new meeting handler
func NewMeeting(orchestrator *ingestion.Orchestrator, insightRepo repositories.InsightRepository, logger *zap.Logger) *Meeting {
	return &Meeting{
		orchestrator: orchestrator,
		insightRepo:  insightRepo,
		logger:       logger,
	}
}

// Schedule creates a meeting
// POST /v1/meetings
func (h *Meeting) Schedule(c echo.Context) error {
	var req meetingdto.ScheduleMeetingRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument(err.Error()))
	}

	managerID, err := uuid.Parse(req.ManagerID)
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid manager_id"))
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid employee_id"))
	}

	meeting, err := h.orchestrator.ScheduleMeeting(c.Request().Context(), &ingestion.ScheduleInput{
		ManagerID:       managerID,
		EmployeeID:      employeeID,
		MeetingType:     entities.MeetingType(req.MeetingType),
		ScheduledAt:     req.ScheduledAt,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Platform:        req.Platform,
		JoinURL:         req.JoinURL,
	})
	if err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	return handleSuccess(c, h.logger, http.StatusCreated, meetingdto.ToMeetingResponse(meeting))
}

// Get returns one meeting
// GET /v1/meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid meeting id"))
	}

	meeting, err := h.orchestrator.GetMeeting(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	return handleSuccess(c, h.logger, http.StatusOK, meetingdto.ToMeetingResponse(meeting))
}

// Cancel cancels a meeting
// POST /v1/meetings/:id/cancel
func (h *Meeting) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid meeting id"))
	}

	if err := h.orchestrator.CancelMeeting(c.Request().Context(), id); err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	meeting, err := h.orchestrator.GetMeeting(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	return handleSuccess(c, h.logger, http.StatusOK, meetingdto.ToMeetingResponse(meeting))
}

// ListInsights returns the stored insights for a meeting
// GET /v1/meetings/:id/insights
func (h *Meeting) ListInsights(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, errors.ErrInvalidArgument("Invalid meeting id"))
	}

	// Confirm the meeting exists so an unknown id is a 404, not an empty list
	if _, err := h.orchestrator.GetMeeting(c.Request().Context(), id); err != nil {
		return handleError(c, h.logger, mapDomainError(err))
	}

	insights, err := h.insightRepo.ListByMeetingID(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return handleSuccess(c, h.logger, http.StatusOK, meetingdto.ToInsightResponses(insights))
}
