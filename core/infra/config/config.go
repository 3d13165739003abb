package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr         = ":8081"
	defaultMetricsAddr      = ":9092"
	defaultRedisURL         = "redis://localhost:6379"
	defaultNATSURL          = "nats://localhost:4222"
	defaultRateLimitWindow  = 60 * time.Second
	defaultRateLimitMax     = 100
	defaultLivenessInterval = 30 * time.Second
	defaultGatewayFilePath  = "config/gateway.yaml"

	envHTTPAddr          = "GATEWAY_HTTP_ADDR"
	envMetricsAddr       = "GATEWAY_METRICS_ADDR"
	envRedisURL          = "REDIS_URL"
	envNATSURL           = "NATS_URL"
	envSigningSecret     = "TOKEN_SIGNING_SECRET"
	envRateLimitWindow   = "RATE_LIMIT_WINDOW_SECONDS"
	envRateLimitMax      = "RATE_LIMIT_MAX_REQUESTS"
	envLivenessInterval  = "LIVENESS_INTERVAL_SECONDS"
	envPublicPaths       = "PUBLIC_PATHS"
	envGatewayConfigPath = "GATEWAY_CONFIG_PATH"
)

// Config holds runtime configuration for the gateway.
type Config struct {
	HTTPAddr         string
	MetricsAddr      string
	RedisURL         string
	NatsURL          string
	SigningSecret    string
	RateLimitWindow  time.Duration
	RateLimitMax     int
	LivenessInterval time.Duration
	PublicPaths      []string
	GatewayFilePath  string
}

// Load returns configuration using environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		HTTPAddr:         stringEnv(envHTTPAddr, defaultHTTPAddr),
		MetricsAddr:      stringEnv(envMetricsAddr, defaultMetricsAddr),
		RedisURL:         stringEnv(envRedisURL, defaultRedisURL),
		NatsURL:          stringEnv(envNATSURL, defaultNATSURL),
		SigningSecret:    strings.TrimSpace(os.Getenv(envSigningSecret)),
		RateLimitWindow:  secondsEnv(envRateLimitWindow, defaultRateLimitWindow),
		RateLimitMax:     intEnv(envRateLimitMax, defaultRateLimitMax),
		LivenessInterval: secondsEnv(envLivenessInterval, defaultLivenessInterval),
		PublicPaths:      listEnv(envPublicPaths),
		GatewayFilePath:  stringEnv(envGatewayConfigPath, defaultGatewayFilePath),
	}
	return cfg
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func secondsEnv(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return fallback
}

func listEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
