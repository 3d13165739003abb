package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ChannelConfig declares a realtime channel kind and its cross-tenant policy.
type ChannelConfig struct {
	Kind             string `yaml:"kind"`
	CrossTenantAdmin bool   `yaml:"cross_tenant_admin,omitempty"`
}

// RateLimitConfig overrides the env-supplied rate-limit settings.
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds,omitempty"`
	MaxRequests   int `yaml:"max_requests,omitempty"`
}

// GatewayFile is the optional YAML configuration for the gateway.
type GatewayFile struct {
	PublicPaths []string         `yaml:"public_paths,omitempty"`
	Channels    []ChannelConfig  `yaml:"channels,omitempty"`
	RateLimit   *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// ParseGatewayFile parses gateway config data from YAML bytes.
func ParseGatewayFile(data []byte) (*GatewayFile, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if err := validateConfigSchema("gateway", gatewaySchemaFile, data); err != nil {
		return nil, err
	}
	var file GatewayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gateway config: %w", err)
	}
	for _, ch := range file.Channels {
		if ch.Kind == "" {
			return nil, errors.New("gateway config channel missing kind")
		}
	}
	return &file, nil
}

// LoadGatewayFile reads the gateway YAML file. A missing file is not an error;
// the env-supplied defaults stand.
func LoadGatewayFile(path string) (*GatewayFile, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read gateway config: %w", err)
	}
	return ParseGatewayFile(data)
}

// Apply merges file-supplied settings over the env-derived config.
func (f *GatewayFile) Apply(cfg *Config) {
	if f == nil || cfg == nil {
		return
	}
	if len(f.PublicPaths) > 0 {
		cfg.PublicPaths = append(cfg.PublicPaths, f.PublicPaths...)
	}
	if f.RateLimit != nil {
		if f.RateLimit.WindowSeconds > 0 {
			cfg.RateLimitWindow = time.Duration(f.RateLimit.WindowSeconds) * time.Second
		}
		if f.RateLimit.MaxRequests > 0 {
			cfg.RateLimitMax = f.RateLimit.MaxRequests
		}
	}
}
