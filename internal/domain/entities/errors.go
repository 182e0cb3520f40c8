package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidRole  = errors.New("invalid role")

	// Credential errors
	ErrCredentialNotFound   = errors.New("credential not found")
	ErrProviderNotSupported = errors.New("provider not supported")
	// ErrReauthRequired means the stored grant is dead; the user must redo the
	// OAuth handshake. Never retried automatically.
	ErrReauthRequired = errors.New("re-authorization required")
	// ErrAuthTransient means the refresh failed for a retryable reason; stored
	// credentials are untouched.
	ErrAuthTransient = errors.New("transient credential refresh failure")

	// Handshake errors
	ErrStateInvalidOrExpired = errors.New("oauth state invalid or expired")

	// Meeting errors
	ErrMeetingNotFound       = errors.New("meeting not found")
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrInvalidTransition     = errors.New("invalid meeting status transition")
	ErrMeetingNotCancellable = errors.New("meeting can no longer be cancelled")
	ErrBotSessionImmutable   = errors.New("bot session id already set")
	ErrUnknownBotSession     = errors.New("unknown bot session")
	ErrPostTerminalEvent     = errors.New("event for terminal meeting")

	// Transcript / insight errors
	ErrTranscriptNotFound  = errors.New("transcript not found")
	ErrExtractionTransient = errors.New("transient insight extraction failure")
	ErrExtractionPermanent = errors.New("permanent insight extraction failure")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
