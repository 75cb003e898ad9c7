package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/pidigits/cache"
)

// Metrics records digit computation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCompute records one generator run with its duration and outcome.
	RecordCompute(ctx context.Context, meta ComputeMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	digitCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the compute instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"pi.compute.total",
		metric.WithDescription("Total number of digit computations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"pi.compute.errors",
		metric.WithDescription("Total number of failed digit computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	digitCount, err := meter.Int64Counter(
		"pi.compute.digits",
		metric.WithDescription("Total number of digits produced by the engine"),
		metric.WithUnit("{digit}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"pi.compute.duration_ms",
		metric.WithDescription("Digit computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		digitCount:   digitCount,
		durationHist: durationHist,
	}, nil
}

// RecordCompute records metrics for one computation.
func (m *metricsImpl) RecordCompute(ctx context.Context, meta ComputeMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("pi.operation", meta.SpanName()[len("pi."):]))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	} else {
		m.digitCount.Add(ctx, int64(meta.Digits), opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// RegisterCacheMetrics exports the cache's Stats as observable instruments
// read on every collection.
func RegisterCacheMetrics(meter metric.Meter, c cache.Cache) (metric.Registration, error) {
	lookups, err := meter.Int64ObservableCounter(
		"pi.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	entries, err := meter.Int64ObservableGauge(
		"pi.cache.entries",
		metric.WithDescription("Distinct digit counts held by the cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	maxComputed, err := meter.Int64ObservableGauge(
		"pi.cache.max_computed",
		metric.WithDescription("Largest digit count computed so far"),
		metric.WithUnit("{digit}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := c.Stats()
		o.ObserveInt64(lookups, s.Hits, metric.WithAttributes(attribute.String("outcome", "hit")))
		o.ObserveInt64(lookups, s.DerivedHits, metric.WithAttributes(attribute.String("outcome", "derived")))
		o.ObserveInt64(lookups, s.Misses, metric.WithAttributes(attribute.String("outcome", "miss")))
		o.ObserveInt64(lookups, s.Errors, metric.WithAttributes(attribute.String("outcome", "error")))
		o.ObserveInt64(entries, int64(s.Entries))
		o.ObserveInt64(maxComputed, int64(s.MaxComputed))
		return nil
	}, lookups, entries, maxComputed)
}

type noopMetrics struct{}

func (noopMetrics) RecordCompute(context.Context, ComputeMeta, time.Duration, error) {}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}
