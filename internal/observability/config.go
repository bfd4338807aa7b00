package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/claimdocs/internal/config"
)

const (
	defaultServiceName     = "claimdocs"
	defaultMetricsInterval = 10 * time.Second
)

// Config is the observability view of the service configuration. Every value
// comes from config.Load; this package reads no environment of its own.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	TracesEnabled   bool
	MetricsEnabled  bool
	Endpoint        string
	Protocol        string
	SamplingRatio   float64
	MetricsInterval time.Duration
}

// LoadConfig derives the logger, tracer and meter settings from cfg.
func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	logFormat := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if logFormat != "console" {
		logFormat = "json"
	}

	interval := cfg.Telemetry.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}

	return Config{
		ServiceName:     serviceName,
		Environment:     strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:         strings.TrimSpace(cfg.AppVersion),
		LogLevel:        strings.ToLower(strings.TrimSpace(cfg.LogLevel)),
		LogFormat:       logFormat,
		TracesEnabled:   cfg.Telemetry.TracesEnabled,
		MetricsEnabled:  cfg.Telemetry.MetricsEnabled,
		Endpoint:        strings.TrimSpace(cfg.Telemetry.Endpoint),
		Protocol:        normalizeProtocol(cfg.Telemetry.Protocol),
		SamplingRatio:   clampRatio(cfg.Telemetry.SamplingRatio),
		MetricsInterval: interval,
	}
}

// Debug turns on verbose gin and gorm output outside production.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func normalizeProtocol(protocol string) string {
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "http", "http/protobuf":
		return "http"
	default:
		return "grpc"
	}
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
