package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result is the outcome of one window check. The consumed slot is never
// rolled back, even when the request is later rejected by another stage.
type Result struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Limiter counts requests in fixed windows per key. Windows are aligned to
// the first request for a key, not to the calendar; reset happens through
// expiry of the backing counter, never by explicit deletion.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) (Result, error)
}

// KeyFor builds the counter key for a caller. Authenticated callers are
// bucketed per restaurant; callers without a tenant fall back to the remote
// address so unassociated super admins still share a bound.
func KeyFor(tenantID *int64, callerID int64, remoteAddr string) string {
	if tenantID != nil {
		return fmt.Sprintf("t%d:u%d", *tenantID, callerID)
	}
	return fmt.Sprintf("ip:%s:u%d", remoteAddr, callerID)
}
