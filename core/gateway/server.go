package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tablerail/tablerail/core/infra/bus"
	"github.com/tablerail/tablerail/core/infra/config"
	"github.com/tablerail/tablerail/core/infra/logging"
	"github.com/tablerail/tablerail/core/infra/metrics"
	"github.com/tablerail/tablerail/core/realtime"
)

// ServerDeps bundles the collaborators the HTTP server needs.
type ServerDeps struct {
	Gateway   *Gateway
	Realtime  *realtime.ConnectionGateway
	Bus       *bus.NatsBus
	RedisPing func(ctx context.Context) error
	Metrics   metrics.GatewayMetrics
}

// Server hosts the guarded API surface, the realtime endpoint, and the
// health check.
type Server struct {
	cfg     *config.Config
	deps    ServerDeps
	mux     *http.ServeMux
	handler http.Handler
}

func NewServer(cfg *config.Config, deps ServerDeps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	s := &Server{cfg: cfg, deps: deps, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/me", s.handleWhoAmI)

	// The realtime endpoint sits outside the request middleware: the
	// connection gateway runs its own full auth pipeline and accepts the
	// token from the Authorization header or the token query parameter,
	// which the header-only middleware would reject.
	root := http.NewServeMux()
	if deps.Realtime != nil {
		root.Handle("GET /ws", deps.Realtime)
	}
	root.Handle("/", deps.Gateway.Middleware(s.mux))

	s.handler = s.instrumented(root)
	return s
}

// Handle registers a protected business route.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start subscribes the fan-out hub to the bus and begins serving. It
// blocks until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	if s.deps.Bus != nil && s.deps.Realtime != nil {
		hub := s.deps.Realtime.Hub()
		if err := s.deps.Bus.SubscribeStreams("", hub.Broadcast); err != nil {
			return err
		}
		logging.Info("gateway", "bus stream subscription active")
	}

	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logging.Info("gateway", "http listening", "addr", s.cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()
	go func() {
		logging.Info("gateway", "metrics listening", "addr", s.cfg.MetricsAddr)
		errCh <- metricsServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	healthy := true

	if s.deps.RedisPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.RedisPing(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		} else {
			status["redis"] = "ok"
		}
	}
	if s.deps.Bus != nil {
		status["nats"] = s.deps.Bus.Status()
		if !s.deps.Bus.IsConnected() {
			healthy = false
		}
	}
	if !healthy {
		status["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleWhoAmI echoes the caller's resolved identity. Useful for
// smoke-testing a deployment's token and tenant wiring.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, nil)
		return
	}
	tc, _ := TenantFrom(r.Context())
	out := map[string]any{
		"user_id":       principal.UserID,
		"role":          string(principal.Role),
		"tenant_source": string(tc.Source),
	}
	if tc.EffectiveTenantID != nil {
		out["restaurant_id"] = *tc.EffectiveTenantID
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack forwards websocket hijacking to the underlying writer.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) instrumented(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Metrics.ObserveRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
