package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Values of the domain label.
const (
	DomainKeyRings = "key_rings"
	DomainEnvelope = "envelope"
)

// BusinessMetrics records key ring and envelope operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation, e.g. "key_ring_rotate" with status "success" or "error".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes how long an operation took.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordKeyRingVersion reports the current version of a key ring.
	RecordKeyRingVersion(ctx context.Context, keyName string, version uint16)
}

type businessMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	version    metric.Int64Gauge
}

// NewBusinessMetrics creates the operation counter, the duration histogram
// and the key ring version gauge, all prefixed with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	version, err := meter.Int64Gauge(
		fmt.Sprintf("%s_key_ring_current_version", namespace),
		metric.WithDescription("Current version of each loaded key ring"),
		metric.WithUnit("{version}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create key ring version gauge: %w", err)
	}

	return &businessMetrics{operations: operations, duration: duration, version: version}, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.duration.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordKeyRingVersion(ctx context.Context, keyName string, version uint16) {
	b.version.Record(ctx, int64(version), metric.WithAttributes(attribute.String("key_name", keyName)))
}

// NoOpBusinessMetrics discards every reading. It is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a BusinessMetrics that records nothing.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (n *NoOpBusinessMetrics) RecordKeyRingVersion(context.Context, string, uint16) {}
