package auth

import (
	"errors"
	"net/http"
)

// Typed failure taxonomy shared by the HTTP and realtime paths. Every
// authentication or authorization failure is terminal for the current
// request or subscription attempt; none is ever downgraded to a
// lower-privilege view.
var (
	ErrMalformed       = errors.New("malformed token")
	ErrBadSignature    = errors.New("invalid token signature")
	ErrExpired         = errors.New("token expired")
	ErrUserNotFound    = errors.New("user not found")
	ErrTenantMismatch  = errors.New("tenant mismatch")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrChannelRejected = errors.New("subscription rejected")
)

// HTTPStatus maps a gateway failure to its response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMalformed),
		errors.Is(err, ErrBadSignature),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTenantMismatch), errors.Is(err, ErrChannelRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short label for a gateway failure, used as a metric label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrChannelRejected):
		return "channel_rejected"
	default:
		return "internal"
	}
}
