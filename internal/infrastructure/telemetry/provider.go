// Package telemetry wires OpenTelemetry tracing and metrics for the service.
// Both providers degrade to the global no-op implementation when disabled,
// so callers never need to check whether export is on.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serviceResource describes this process to the collector
func serviceResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdown runs stop under a bounded deadline. what names the provider in
// logs and errors.
func shutdown(ctx context.Context, what string, logger *zap.Logger, stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := stop(ctx); err != nil {
		logger.Error("Error shutting down "+what+" provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", what, err)
	}
	return nil
}
