package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricRequestTotal          = "apiclient.request.total"
	MetricRequestErrors         = "apiclient.request.errors"
	MetricRequestDuration       = "apiclient.request.duration_ms"
	MetricConnectionTransitions = "apiclient.connection.transitions"
)

// Metrics records request and connection metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one finished request. status is zero when no
	// response was received.
	RecordRequest(ctx context.Context, meta RequestMeta, status int, duration time.Duration, err error)

	// RecordTransition records a connection state change.
	RecordTransition(ctx context.Context, online bool)
}

type metricsImpl struct {
	totalCount      metric.Int64Counter
	errorCount      metric.Int64Counter
	durationHist    metric.Float64Histogram
	transitionCount metric.Int64Counter
}

// NewMetrics creates Metrics with instruments registered on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricRequestTotal,
		metric.WithDescription("Total number of backend requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricRequestErrors,
		metric.WithDescription("Total number of rejected backend requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Backend request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transitionCount, err := meter.Int64Counter(
		MetricConnectionTransitions,
		metric.WithDescription("Connection state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:      totalCount,
		errorCount:      errorCount,
		durationHist:    durationHist,
		transitionCount: transitionCount,
	}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, status int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", meta.Method),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	}
	if host := meta.Host(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordTransition(ctx context.Context, online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	m.transitionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("connection.state", state)))
}

type nopMetrics struct{}

// NopMetrics returns Metrics that record nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordRequest(context.Context, RequestMeta, int, time.Duration, error) {}
func (nopMetrics) RecordTransition(context.Context, bool)                               {}
