package errors

import (
	"fmt"
	"net/http"
)

// AppError is the application error type carried across handler boundaries
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

// Credential / OAuth Errors

func ErrReauthRequired(provider string) AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_REAUTH_REQUIRED,
		Message:  fmt.Sprintf("Authorization for %s has expired, please reconnect", provider),
	}
}

func ErrProviderUnavailable(provider string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_AUTH_PROVIDER_UNAVAILABLE,
		Message:  fmt.Sprintf("The %s provider is temporarily unavailable", provider),
	}
}

func ErrOAuthStateInvalid() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_AUTH_STATE_INVALID,
		Message:  "Authorization state is invalid or expired",
	}
}

func ErrProviderUnsupported(provider string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_AUTH_PROVIDER_UNSUPPORTED,
		Message:  fmt.Sprintf("Provider %s is not supported", provider),
	}
}

// Meeting Errors

func ErrMeetingNotFound() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Message:  "Meeting not found",
	}
}

func ErrMeetingNotCancellable() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_MEETING_NOT_CANCELLABLE,
		Message:  "Meeting can no longer be cancelled",
	}
}

func ErrInvalidTransition() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_MEETING_INVALID_TRANSITION,
		Message:  "Meeting status transition is not allowed",
	}
}

// Webhook Errors

func ErrWebhookSignature() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_WEBHOOK_SIGNATURE_INVALID,
		Message:  "Webhook signature verification failed",
	}
}

// Insight Errors

func ErrInsightExtraction(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_INSIGHT_EXTRACTION_FAILED,
		Message:  "Insight extraction failed",
	}
}
