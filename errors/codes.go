package errors

// ErrorCode is the machine-readable error identifier returned to API clients
type ErrorCode int32

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED

	ErrorCode_AUTH_REAUTH_REQUIRED
	ErrorCode_AUTH_PROVIDER_UNAVAILABLE
	ErrorCode_AUTH_STATE_INVALID
	ErrorCode_AUTH_PROVIDER_UNSUPPORTED

	ErrorCode_MEETING_NOT_FOUND
	ErrorCode_MEETING_NOT_CANCELLABLE
	ErrorCode_MEETING_INVALID_TRANSITION

	ErrorCode_WEBHOOK_SIGNATURE_INVALID

	ErrorCode_INSIGHT_EXTRACTION_FAILED
)

// ErrorCode_HTTP_OK is the code carried in successful response envelopes
const ErrorCode_HTTP_OK ErrorCode = 200

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:           "UNKNOWN",
	ErrorCode_INTERNAL:          "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:  "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:         "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:    "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED: "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:   "UNAUTHENTICATED",

	ErrorCode_AUTH_REAUTH_REQUIRED:      "AUTH_REAUTH_REQUIRED",
	ErrorCode_AUTH_PROVIDER_UNAVAILABLE: "AUTH_PROVIDER_UNAVAILABLE",
	ErrorCode_AUTH_STATE_INVALID:        "AUTH_STATE_INVALID",
	ErrorCode_AUTH_PROVIDER_UNSUPPORTED: "AUTH_PROVIDER_UNSUPPORTED",

	ErrorCode_MEETING_NOT_FOUND:          "MEETING_NOT_FOUND",
	ErrorCode_MEETING_NOT_CANCELLABLE:    "MEETING_NOT_CANCELLABLE",
	ErrorCode_MEETING_INVALID_TRANSITION: "MEETING_INVALID_TRANSITION",

	ErrorCode_WEBHOOK_SIGNATURE_INVALID: "WEBHOOK_SIGNATURE_INVALID",

	ErrorCode_INSIGHT_EXTRACTION_FAILED: "INSIGHT_EXTRACTION_FAILED",

	ErrorCode_HTTP_OK: "HTTP_OK",
}

// String returns the name of the error code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
