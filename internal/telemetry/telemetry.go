// Package telemetry provides OpenTelemetry metrics for memorid.
//
// Metrics are collected through the otel metric SDK and exported via the
// prometheus exporter, so the HTTP server can serve them on /metrics with
// the standard promhttp handler. Telemetry failures do not crash the
// process; the instance degrades to a no-op.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Enabled && c.ServiceName == "" {
		return fmt.Errorf("service name required when telemetry is enabled")
	}
	return nil
}

// Telemetry manages the MeterProvider lifecycle.
type Telemetry struct {
	config *Config
	logger *zap.Logger

	meterProvider *sdkmetric.MeterProvider
	degraded      atomic.Bool
}

// New creates a Telemetry instance and registers the global meter provider.
//
// When disabled, the returned instance is a no-op. Exporter setup errors
// degrade the instance instead of failing startup.
func New(cfg *Config, logger *zap.Logger) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Telemetry{
		config: cfg,
		logger: logger,
	}

	if !cfg.Enabled {
		return t, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	// The prometheus exporter registers collectors on the default
	// registry, which promhttp.Handler() serves.
	exporter, err := prometheus.New()
	if err != nil {
		t.setDegraded("prometheus exporter failed", err)
		return t, nil
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.meterProvider = mp
	otel.SetMeterProvider(mp)

	return t, nil
}

// Degraded reports whether telemetry initialization partially failed.
func (t *Telemetry) Degraded() bool {
	return t.degraded.Load()
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.meterProvider == nil {
		return nil
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}

func (t *Telemetry) setDegraded(msg string, err error) {
	t.degraded.Store(true)
	t.logger.Warn("telemetry degraded", zap.String("reason", msg), zap.Error(err))
}
