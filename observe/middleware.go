package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/pidigits/cache"
)

// Middleware wraps the digit generator with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a generator that is safe for concurrent use
//     if the wrapped one is.
//   - Errors: errors from the wrapped generator are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NoopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.WithComponent("engine"),
	}
}

// MiddlewareFromObserver builds a Middleware from an Observer's primitives.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap instruments fn. Every call is one computation.
func (m *Middleware) Wrap(fn cache.GenerateFunc) cache.GenerateFunc {
	return func(ctx context.Context, n int) (string, error) {
		meta := ComputeMeta{Operation: "generate", Digits: n}

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		digits, err := fn(ctx, n)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCompute(ctx, meta, duration, err)

		fields := []Field{
			F("digits", n),
			F("duration_ms", float64(duration.Microseconds())/1000),
		}
		if err != nil {
			m.logger.Error(ctx, "digit computation failed", append(fields, F("error", err))...)
		} else {
			m.logger.Info(ctx, "digits computed", fields...)
		}

		return digits, err
	}
}
