// Package gateway is the HTTP access-control front: every non-public
// request passes token verification, rate limiting, and tenant
// resolution before it reaches a business handler.
package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/directory"
	"github.com/tablerail/tablerail/core/infra/logging"
	"github.com/tablerail/tablerail/core/infra/metrics"
	"github.com/tablerail/tablerail/core/ratelimit"
	"github.com/tablerail/tablerail/core/tenant"
)

// Options wires the gateway's collaborators.
type Options struct {
	Authenticator *auth.Authenticator
	Users         directory.UserStore
	Tenants       directory.TenantStore
	Limiter       ratelimit.Limiter
	Limit         int64
	Window        time.Duration
	PublicPaths   []string
	Metrics       metrics.GatewayMetrics
}

// Gateway composes the request pipeline: public allow-list, bearer
// token auth, user lookup, rate limit, tenant resolution, context
// attach. Failure at any stage is terminal for the request.
type Gateway struct {
	auth        *auth.Authenticator
	users       directory.UserStore
	tenants     directory.TenantStore
	limiter     ratelimit.Limiter
	limit       int64
	window      time.Duration
	publicPaths []string
	metrics     metrics.GatewayMetrics
}

func New(opts Options) *Gateway {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	paths := make([]string, 0, len(opts.PublicPaths))
	for _, p := range opts.PublicPaths {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return &Gateway{
		auth:        opts.Authenticator,
		users:       opts.Users,
		tenants:     opts.Tenants,
		limiter:     opts.Limiter,
		limit:       opts.Limit,
		window:      opts.Window,
		publicPaths: paths,
		metrics:     opts.Metrics,
	}
}

// Middleware guards next with the full pipeline.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := g.authenticate(r)
		if err != nil {
			g.reject(w, r, err, 0)
			return
		}

		retryAfter, err := g.throttle(r, principal)
		if err != nil {
			g.reject(w, r, err, retryAfter)
			return
		}

		tc, err := g.resolveTenant(r, principal)
		if err != nil {
			g.reject(w, r, err, 0)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), principal, tc)))
	})
}

// IsPublic reports whether the path matches the public allow-list.
// Entries ending in "/" match as prefixes, others exactly.
func (g *Gateway) IsPublic(path string) bool {
	for _, p := range g.publicPaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func (g *Gateway) authenticate(r *http.Request) (tenant.Principal, error) {
	claims, err := g.auth.Authenticate(auth.BearerToken(r.Header.Get("Authorization")))
	if err != nil {
		return tenant.Principal{}, err
	}
	record, err := g.users.LookupUser(r.Context(), claims.UserID)
	if err != nil {
		return tenant.Principal{}, err
	}
	return tenant.NewPrincipal(claims, record)
}

// throttle consumes one window slot for the caller. The slot is not
// returned when a later stage rejects the request.
func (g *Gateway) throttle(r *http.Request, p tenant.Principal) (time.Duration, error) {
	if g.limiter == nil || g.limit <= 0 {
		return 0, nil
	}
	key := ratelimit.KeyFor(p.TenantID, p.UserID, remoteHost(r))
	result, err := g.limiter.CheckAndIncrement(r.Context(), key, g.limit, g.window)
	if err != nil {
		logging.Error("gateway", "rate limit check failed", "key", key, "error", err)
		return 0, fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if !result.Allowed {
		return result.RetryAfter, fmt.Errorf("%w: %d of %d in window", auth.ErrRateLimited, result.Count, result.Limit)
	}
	return 0, nil
}

func (g *Gateway) resolveTenant(r *http.Request, p tenant.Principal) (tenant.Context, error) {
	requested, err := requestedTenantID(r)
	if err != nil {
		return tenant.Context{}, err
	}
	if requested != nil && p.Role == tenant.RoleSuperAdmin && g.tenants != nil {
		exists, err := g.tenants.TenantExists(r.Context(), *requested)
		if err != nil {
			return tenant.Context{}, err
		}
		if !exists {
			return tenant.Context{}, fmt.Errorf("%w: restaurant %d not found", auth.ErrTenantMismatch, *requested)
		}
	}
	return tenant.Resolve(p, requested)
}

func requestedTenantID(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("restaurant_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad restaurant_id %q", auth.ErrTenantMismatch, raw)
	}
	return &id, nil
}

func (g *Gateway) reject(w http.ResponseWriter, r *http.Request, err error, retryAfter time.Duration) {
	kind := auth.Kind(err)
	status := auth.HTTPStatus(err)
	if status == http.StatusTooManyRequests {
		g.metrics.IncThrottled()
		if retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		}
	} else {
		g.metrics.IncAuthFailure(kind)
	}
	logging.Info("gateway", "request rejected", "path", r.URL.Path, "kind", kind, "status", status)
	WriteError(w, status, err)
}

// WriteError emits the JSON error body used on every rejection.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
