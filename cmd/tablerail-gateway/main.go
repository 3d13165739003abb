package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/directory"
	"github.com/tablerail/tablerail/core/gateway"
	"github.com/tablerail/tablerail/core/infra/bus"
	"github.com/tablerail/tablerail/core/infra/buildinfo"
	"github.com/tablerail/tablerail/core/infra/config"
	"github.com/tablerail/tablerail/core/infra/logging"
	infraMetrics "github.com/tablerail/tablerail/core/infra/metrics"
	"github.com/tablerail/tablerail/core/ratelimit"
	"github.com/tablerail/tablerail/core/realtime"
)

func main() {
	buildinfo.Log("tablerail-gateway")

	cfg := config.Load()
	if cfg.SigningSecret == "" {
		logging.Error("gateway", "TOKEN_SIGNING_SECRET is required")
		os.Exit(1)
	}
	file, err := config.LoadGatewayFile(cfg.GatewayFilePath)
	if err != nil {
		logging.Error("gateway", "invalid gateway config file", "path", cfg.GatewayFilePath, "error", err)
		os.Exit(1)
	}
	var channels []config.ChannelConfig
	if file != nil {
		file.Apply(cfg)
		channels = file.Channels
		logging.Info("gateway", "gateway config file applied", "path", cfg.GatewayFilePath)
	}
	run(cfg, channels)
}

func run(cfg *config.Config, channels []config.ChannelConfig) {
	gwMetrics := infraMetrics.NewProm("tablerail")
	rtMetrics := infraMetrics.NewRealtimeProm("tablerail")

	authenticator, err := auth.NewAuthenticator(cfg.SigningSecret, nil)
	if err != nil {
		logging.Error("gateway", "authenticator init failed", "error", err)
		os.Exit(1)
	}

	dir, err := directory.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logging.Error("gateway", "failed to connect to redis for directory", "error", err)
		os.Exit(1)
	}
	defer dir.Close()

	limiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL)
	if err != nil {
		logging.Error("gateway", "failed to connect to redis for rate limiter", "error", err)
		os.Exit(1)
	}
	defer limiter.Close()

	natsBus, err := bus.NewNatsBus(cfg.NatsURL)
	if err != nil {
		logging.Error("gateway", "failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsBus.Close()

	registry := realtime.DefaultRegistry()
	if len(channels) > 0 {
		kinds := make([]realtime.ChannelKind, 0, len(channels))
		for _, ch := range channels {
			kinds = append(kinds, realtime.ChannelKind{Name: ch.Kind, CrossTenantAdmin: ch.CrossTenantAdmin})
		}
		registry = realtime.NewRegistry(kinds...)
	}

	connGateway := realtime.NewConnectionGateway(realtime.GatewayOptions{
		Authenticator:    authenticator,
		Users:            dir,
		Authorizer:       realtime.NewChannelAuthorizer(registry),
		Clock:            clock.New(),
		LivenessInterval: cfg.LivenessInterval,
		Metrics:          rtMetrics,
	})

	requestGateway := gateway.New(gateway.Options{
		Authenticator: authenticator,
		Users:         dir,
		Tenants:       dir,
		Limiter:       limiter,
		Limit:         int64(cfg.RateLimitMax),
		Window:        cfg.RateLimitWindow,
		PublicPaths:   append([]string{"/healthz"}, cfg.PublicPaths...),
		Metrics:       gwMetrics,
	})

	server := gateway.NewServer(cfg, gateway.ServerDeps{
		Gateway:   requestGateway,
		Realtime:  connGateway,
		Bus:       natsBus,
		RedisPing: dir.Ping,
		Metrics:   gwMetrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("gateway", "starting",
		"http", cfg.HTTPAddr,
		"metrics", cfg.MetricsAddr,
		"rate_limit", cfg.RateLimitMax,
		"window", cfg.RateLimitWindow,
	)
	if err := server.Start(ctx); err != nil {
		logging.Error("gateway", "server exited", "error", err)
		os.Exit(1)
	}
	logging.Info("gateway", "shutdown complete")
}
