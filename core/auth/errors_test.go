package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrMalformed, http.StatusUnauthorized},
		{ErrBadSignature, http.StatusUnauthorized},
		{ErrExpired, http.StatusUnauthorized},
		{ErrUserNotFound, http.StatusUnauthorized},
		{ErrTenantMismatch, http.StatusForbidden},
		{ErrChannelRejected, http.StatusForbidden},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("stream inventory_channel_7: %w", ErrChannelRejected)
	if got := HTTPStatus(wrapped); got != http.StatusForbidden {
		t.Fatalf("wrapped status = %d, want 403", got)
	}
	if got := Kind(wrapped); got != "channel_rejected" {
		t.Fatalf("wrapped kind = %s", got)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"malformed":       ErrMalformed,
		"bad_signature":   ErrBadSignature,
		"expired":         ErrExpired,
		"user_not_found":  ErrUserNotFound,
		"tenant_mismatch": ErrTenantMismatch,
		"rate_limited":    ErrRateLimited,
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Fatalf("Kind(%v) = %s, want %s", err, got, want)
		}
	}
	if got := Kind(errors.New("boom")); got != "internal" {
		t.Fatalf("unexpected kind for unknown error: %s", got)
	}
}
