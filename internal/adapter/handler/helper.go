package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/errors"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// handleSuccess writes a standardized success response
func handleSuccess(c echo.Context, logger *zap.Logger, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// handleError centralizes error handling and logging
func handleError(c echo.Context, logger *zap.Logger, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		return c.JSON(appErr.HTTPCode, errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
		})
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.JSON(http.StatusInternalServerError, errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	})
}

// mapDomainError translates domain sentinel errors into AppErrors so handlers
// do not repeat the mapping
func mapDomainError(err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound()
	case stdErrors.Is(err, entities.ErrEmployeeNotFound):
		return errors.ErrNotFound("Employee")
	case stdErrors.Is(err, entities.ErrUserNotFound):
		return errors.ErrNotFound("User")
	case stdErrors.Is(err, entities.ErrMeetingNotCancellable):
		return errors.ErrMeetingNotCancellable()
	case stdErrors.Is(err, entities.ErrInvalidTransition):
		return errors.ErrInvalidTransition()
	case stdErrors.Is(err, entities.ErrStateInvalidOrExpired):
		return errors.ErrOAuthStateInvalid()
	case stdErrors.Is(err, entities.ErrProviderNotSupported):
		return errors.ErrProviderUnsupported("requested")
	case stdErrors.Is(err, entities.ErrInvalidRequest):
		return errors.ErrInvalidArgument("Invalid request")
	default:
		return err
	}
}
