package apperrors

import "net/http"

// Error codes for the contact pipeline.
const (
	ErrInternal             = "INTERNAL"
	ErrMalformedRequest     = "MALFORMED_REQUEST"
	ErrSchemaInvalid        = "SCHEMA_INVALID"
	ErrSpamDetected         = "SPAM_DETECTED"
	ErrCaptchaInvalid       = "CAPTCHA_INVALID"
	ErrCaptchaExpired       = "CAPTCHA_EXPIRED"
	ErrRateLimited          = "RATE_LIMITED"
	ErrServiceMisconfigured = "SERVICE_MISCONFIGURED"
	ErrDispatchFailed       = "DISPATCH_FAILED"
)

var codeToHTTPStatus = map[string]int{
	ErrInternal:             http.StatusInternalServerError,
	ErrMalformedRequest:     http.StatusBadRequest,
	ErrSchemaInvalid:        http.StatusBadRequest,
	ErrSpamDetected:         http.StatusBadRequest,
	ErrCaptchaInvalid:       http.StatusBadRequest,
	ErrCaptchaExpired:       http.StatusBadRequest,
	ErrRateLimited:          http.StatusTooManyRequests,
	ErrServiceMisconfigured: http.StatusInternalServerError,
	ErrDispatchFailed:       http.StatusInternalServerError,
}

// ToHTTPStatus maps an error code to its HTTP status, defaulting to 500.
func ToHTTPStatus(code string) int {
	if status, ok := codeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
