package observe

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/apiclient/transport"
)

// Middleware wraps a transport with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a transport that is safe for concurrent use
//     when the wrapped transport is.
//   - Errors: errors from the wrapped transport are recorded and returned unchanged.
//   - Ownership: requests and responses pass through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver builds a Middleware from an Observer's primitives.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap returns next instrumented.
func (m *Middleware) Wrap(next transport.Transport) transport.Transport {
	return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		meta := RequestMeta{
			Method:    req.Method,
			URL:       req.URL,
			RequestID: req.Header.Get("X-Request-Id"),
		}

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		resp, err := next.RoundTrip(ctx, req)

		duration := time.Since(start)
		status := statusOf(resp, err)

		m.tracer.EndSpan(span, status, err)
		m.metrics.RecordRequest(ctx, meta, status, duration, err)

		fields := []Field{
			F("method", meta.Method),
			F("url", meta.URL),
			F("status", status),
			F("duration_ms", float64(duration.Milliseconds())),
		}
		if meta.RequestID != "" {
			fields = append(fields, F("request_id", meta.RequestID))
		}

		switch {
		case err == nil:
			m.logger.Debug(ctx, "request completed", fields...)
		case status == 0:
			// Unreachable backends are reported once by the connection monitor.
			m.logger.Debug(ctx, "request failed", append(fields, F("error", err))...)
		default:
			m.logger.Warn(ctx, "request rejected", append(fields, F("error", err))...)
		}

		return resp, err
	})
}

func statusOf(resp *transport.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	var terr *transport.Error
	if errors.As(err, &terr) {
		return terr.StatusCode
	}
	return 0
}
