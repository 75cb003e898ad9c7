package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/pidigits/cache"
	"github.com/jonwraymond/pidigits/observe"
	"github.com/jonwraymond/pidigits/resilience"
	"github.com/jonwraymond/pidigits/spigot"
)

const (
	// DefaultMaxBatch is the largest count a range request may ask for.
	DefaultMaxBatch = 5000

	// DefaultCount is used when a range request omits count.
	DefaultCount = 1000

	immutableCacheControl = "public, max-age=31536000, immutable"
	computeFailedMessage  = "failed to compute pi digits"
)

// Digits is the cache the handler serves from.
type Digits interface {
	cache.Cache
	Warm(ctx context.Context, n int) error
}

// HandlerConfig bounds range and warm requests.
type HandlerConfig struct {
	// MaxDigits is the largest prefix ever computed.
	// Default: spigot.DefaultMaxDigits
	MaxDigits int

	// MaxBatch caps count. Default: 5000
	MaxBatch int

	// DefaultCount is used when count is absent. Default: 1000
	DefaultCount int
}

// Window clamps a requested chunk to [from, to). start is raised to zero
// and count is kept within [1, MaxBatch]; from == to when start lies at or
// past MaxDigits. The receiver must have its defaults applied.
func (c HandlerConfig) Window(start, count int) (from, to int) {
	start = max(start, 0)
	count = min(max(count, 1), c.MaxBatch)
	if start >= c.MaxDigits {
		return start, start
	}
	return start, min(start+count, c.MaxDigits)
}

// RangeResponse is the body of a range request.
type RangeResponse struct {
	Start  int    `json:"start"`
	Count  int    `json:"count"`
	Digits string `json:"digits"`
}

// WarmResponse is the body of an accepted warm request.
type WarmResponse struct {
	Digits  int         `json:"digits"`
	Covered bool        `json:"covered"`
	Cache   cache.Stats `json:"cache"`
}

// StatsResponse is the body of a stats request.
type StatsResponse struct {
	Cache    cache.Stats                 `json:"cache"`
	HitRatio float64                     `json:"hit_ratio"`
	Bulkhead *resilience.BulkheadMetrics `json:"bulkhead,omitempty"`
	Timeout  *resilience.TimeoutMetrics  `json:"timeout,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the digit routes.
type Handler struct {
	digits   Digits
	executor *resilience.Executor
	config   HandlerConfig
	logger   observe.Logger
	protect  func(http.Handler) http.Handler

	warming sync.WaitGroup
	pending atomic.Int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithExecutor routes computations through admission control.
func WithExecutor(e *resilience.Executor) HandlerOption {
	return func(h *Handler) {
		h.executor = e
	}
}

// WithLogger sets the handler logger.
func WithLogger(l observe.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithWarmGuard wraps the warm route, typically with auth.Middleware.
func WithWarmGuard(mw func(http.Handler) http.Handler) HandlerOption {
	return func(h *Handler) {
		h.protect = mw
	}
}

// NewHandler creates a handler serving digits.
func NewHandler(digits Digits, config HandlerConfig, opts ...HandlerOption) *Handler {
	if config.MaxDigits <= 0 {
		config.MaxDigits = spigot.DefaultMaxDigits
	}
	if config.MaxBatch <= 0 {
		config.MaxBatch = DefaultMaxBatch
	}
	if config.DefaultCount <= 0 {
		config.DefaultCount = DefaultCount
	}
	config.DefaultCount = min(config.DefaultCount, config.MaxBatch)

	h := &Handler{
		digits: digits,
		config: config,
		logger: observe.NoopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.executor == nil {
		h.executor = resilience.NewExecutor()
	}
	h.logger = h.logger.WithComponent("api")
	return h
}

// Register adds the digit routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	var warm http.Handler = http.HandlerFunc(h.ServeWarm)
	if h.protect != nil {
		warm = h.protect(warm)
	}

	mux.HandleFunc("GET /api/pi", h.ServeRange)
	mux.Handle("POST /api/pi/warm", warm)
	mux.HandleFunc("GET /api/pi/stats", h.ServeStats)
}

// ServeRange answers GET /api/pi.
func (h *Handler) ServeRange(w http.ResponseWriter, r *http.Request) {
	start, err := intParam(r, "start", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	count, err := intParam(r, "count", h.config.DefaultCount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start, total := h.config.Window(start, count)
	if start == total {
		writeJSON(w, http.StatusOK, RangeResponse{Start: start})
		return
	}

	digits, err := h.fetch(r.Context(), total)
	if err != nil {
		h.writeFetchError(r.Context(), w, total, err)
		return
	}

	chunk := digits[start:total]
	w.Header().Set("Cache-Control", immutableCacheControl)
	writeJSON(w, http.StatusOK, RangeResponse{Start: start, Count: len(chunk), Digits: chunk})
}

// ServeWarm answers POST /api/pi/warm. The computation runs in the
// background under the bulkhead; the response reports the stats at
// acceptance time.
func (h *Handler) ServeWarm(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("digits")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "digits is required"})
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > h.config.MaxDigits {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("digits must be an integer in [0, %d]", h.config.MaxDigits),
		})
		return
	}

	covered := h.digits.Covers(n)
	if !covered {
		h.Warm(context.WithoutCancel(r.Context()), n)
	}

	writeJSON(w, http.StatusAccepted, WarmResponse{
		Digits:  n,
		Covered: covered,
		Cache:   h.digits.Stats(),
	})
}

// Warm starts computing n digits in the background. Wait blocks until
// every started warm-up has finished.
func (h *Handler) Warm(ctx context.Context, n int) {
	h.warming.Add(1)
	h.pending.Add(1)
	go func() {
		defer h.warming.Done()
		defer h.pending.Add(-1)

		warm := func(ctx context.Context) error { return h.digits.Warm(ctx, n) }

		var err error
		if b := h.executor.Bulkhead(); b != nil {
			err = b.Execute(ctx, int64(n), warm)
		} else {
			err = warm(ctx)
		}
		if err != nil {
			h.logger.Warn(ctx, "warm-up failed",
				observe.F("digits", n),
				observe.F("error", err.Error()),
			)
			return
		}
		h.logger.Info(ctx, "warm-up complete", observe.F("digits", n))
	}()
}

// Wait blocks until background warm-ups finish.
func (h *Handler) Wait() {
	h.warming.Wait()
}

// WaitContext is Wait bounded by ctx. On expiry it returns the number of
// warm-ups still running along with ctx.Err(); they are left to finish on
// their own.
func (h *Handler) WaitContext(ctx context.Context) (int64, error) {
	done := make(chan struct{})
	go func() {
		h.warming.Wait()
		close(done)
	}()

	select {
	case <-done:
		return 0, nil
	case <-ctx.Done():
		return h.pending.Load(), ctx.Err()
	}
}

// Pending returns the number of warm-ups in flight.
func (h *Handler) Pending() int64 {
	return h.pending.Load()
}

// ServeStats answers GET /api/pi/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.digits.Stats()
	resp := StatsResponse{Cache: stats, HitRatio: stats.HitRatio()}
	if b := h.executor.Bulkhead(); b != nil {
		m := b.Metrics()
		resp.Bulkhead = &m
	}
	if t := h.executor.Timeout(); t != nil {
		m := t.Metrics()
		resp.Timeout = &m
	}
	writeJSON(w, http.StatusOK, resp)
}

// fetch admits a computation of n digits. Covered lengths skip the bulkhead.
func (h *Handler) fetch(ctx context.Context, n int) (string, error) {
	var weight int64
	if !h.digits.Covers(n) {
		weight = int64(n)
	}

	var digits string
	err := h.executor.Execute(ctx, weight, func(ctx context.Context) error {
		d, err := h.digits.Fetch(ctx, n)
		digits = d
		return err
	})
	if err != nil {
		return "", err
	}
	return digits, nil
}

func (h *Handler) writeFetchError(ctx context.Context, w http.ResponseWriter, n int, err error) {
	switch {
	case resilience.IsOverload(err):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, resilience.ErrTimeout):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		h.logger.Debug(ctx, "client went away", observe.F("digits", n))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(ctx, "digit request failed",
			observe.F("digits", n),
			observe.F("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: computeFailedMessage})
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
