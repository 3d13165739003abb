package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

const signingAlgorithm = "HS256"

// Claims is the verified payload of an access token. Invalid or expired
// tokens never produce a Claims value.
type Claims struct {
	UserID    int64
	TenantID  *int64
	IssuedAt  time.Time
	ExpiresAt time.Time
	Algorithm string
}

type wireClaims struct {
	UserID       int64  `json:"user_id"`
	RestaurantID *int64 `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HMAC-signed access tokens. It is pure: no I/O, no
// side effects, safe for concurrent use.
type Authenticator struct {
	secret []byte
	clock  clock.Clock
}

// NewAuthenticator constructs a token verifier for the given shared secret.
// A nil clock falls back to the wall clock.
func NewAuthenticator(secret string, clk clock.Clock) (*Authenticator, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("signing secret required")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Authenticator{secret: []byte(secret), clock: clk}, nil
}

// Authenticate decodes and signature-verifies a raw token. Expiry is an
// exact comparison with zero clock-skew leeway; that is deliberate policy,
// not an oversight.
func (a *Authenticator) Authenticate(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	var wc wireClaims
	_, err := jwt.ParseWithClaims(raw, &wc, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if wc.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrMalformed)
	}

	claims := &Claims{
		UserID:    wc.UserID,
		TenantID:  wc.RestaurantID,
		ExpiresAt: wc.ExpiresAt.Time,
		Algorithm: signingAlgorithm,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	return claims, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// Also covers a non-HS256 algorithm in the header.
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// BearerToken extracts the token from an Authorization header value.
// Returns "" when the header is absent or not a bearer scheme.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Sign mints an HS256 access token. The gateway only verifies; this helper
// serves the login service and tests.
func Sign(userID int64, tenantID *int64, secret string, ttl time.Duration, now time.Time) (string, error) {
	if userID <= 0 {
		return "", errors.New("user id required")
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("signing secret required")
	}
	wc := wireClaims{
		UserID:       userID,
		RestaurantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wc)
	return token.SignedString([]byte(secret))
}
