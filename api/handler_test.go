package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/pidigits/cache"
	"github.com/jonwraymond/pidigits/observe"
	"github.com/jonwraymond/pidigits/resilience"
	"github.com/jonwraymond/pidigits/spigot"
)

const first100 = "1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679"

func newDigits(t *testing.T, generate cache.GenerateFunc, maxDigits int) *cache.MemoryCache {
	t.Helper()
	if generate == nil {
		generate = cache.EngineFunc(spigot.New(spigot.Config{MaxDigits: maxDigits}))
	}
	c, err := cache.NewMemoryCache(generate, cache.Policy{MaxDigits: maxDigits, DerivePrefixes: true})
	require.NoError(t, err)
	return c
}

func newTestHandler(t *testing.T, digits Digits, cfg HandlerConfig, opts ...HandlerOption) http.Handler {
	t.Helper()
	h := NewHandler(digits, cfg, opts...)
	t.Cleanup(h.Wait)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeRange(t *testing.T, rec *httptest.ResponseRecorder) RangeResponse {
	t.Helper()
	var resp RangeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler(newDigits(t, nil, 100), HandlerConfig{})
	assert.Equal(t, spigot.DefaultMaxDigits, h.config.MaxDigits)
	assert.Equal(t, DefaultMaxBatch, h.config.MaxBatch)
	assert.Equal(t, DefaultCount, h.config.DefaultCount)

	h = NewHandler(newDigits(t, nil, 100), HandlerConfig{MaxBatch: 10, DefaultCount: 50})
	assert.Equal(t, 10, h.config.DefaultCount)
}

func TestServeRange_Basic(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 1000), HandlerConfig{MaxDigits: 1000})

	rec := get(t, h, "/api/pi?start=0&count=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, RangeResponse{Start: 0, Count: 10, Digits: "1415926535"}, decodeRange(t, rec))
}

func TestServeRange_DefaultCount(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 1000), HandlerConfig{MaxDigits: 1000, DefaultCount: 100})

	resp := decodeRange(t, get(t, h, "/api/pi"))
	assert.Equal(t, 100, resp.Count)
	assert.Equal(t, first100, resp.Digits)
}

func TestServeRange_ChunksConcatenate(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 1000), HandlerConfig{MaxDigits: 1000})

	a := decodeRange(t, get(t, h, "/api/pi?start=0&count=5"))
	b := decodeRange(t, get(t, h, "/api/pi?start=5&count=5"))
	whole := decodeRange(t, get(t, h, "/api/pi?start=0&count=10"))

	assert.Equal(t, whole.Digits, a.Digits+b.Digits)
	assert.Equal(t, first100[:10], whole.Digits)
}

func TestServeRange_Clamping(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100, MaxBatch: 20})

	tests := []struct {
		name   string
		target string
		want   RangeResponse
	}{
		{"negative start", "/api/pi?start=-5&count=3", RangeResponse{Start: 0, Count: 3, Digits: "141"}},
		{"zero count", "/api/pi?start=2&count=0", RangeResponse{Start: 2, Count: 1, Digits: "4"}},
		{"negative count", "/api/pi?start=2&count=-9", RangeResponse{Start: 2, Count: 1, Digits: "4"}},
		{"count above batch", "/api/pi?start=0&count=99999", RangeResponse{Start: 0, Count: 20, Digits: first100[:20]}},
		{"runs past max", "/api/pi?start=95&count=10", RangeResponse{Start: 95, Count: 5, Digits: first100[95:]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decodeRange(t, rec))
		})
	}
}

func TestServeRange_PastEnd(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 50), HandlerConfig{MaxDigits: 50})

	for _, target := range []string{"/api/pi?start=50", "/api/pi?start=1000000&count=5"} {
		rec := get(t, h, target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Cache-Control"))

		resp := decodeRange(t, rec)
		assert.Zero(t, resp.Count)
		assert.Empty(t, resp.Digits)
	}
}

func TestServeRange_BadParams(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 50), HandlerConfig{MaxDigits: 50})

	for _, target := range []string{"/api/pi?start=abc", "/api/pi?count=1.5", "/api/pi?start=1e3"} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestServeRange_RateLimited(t *testing.T) {
	executor := resilience.NewExecutor(resilience.WithRateLimiter(
		resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 0.001, Burst: 1}),
	))
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100}, WithExecutor(executor))

	require.Equal(t, http.StatusOK, get(t, h, "/api/pi?count=5").Code)

	rec := get(t, h, "/api/pi?count=5")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestServeRange_Timeout(t *testing.T) {
	release := make(chan struct{})
	slow := func(_ context.Context, n int) (string, error) {
		<-release
		return first100[:n], nil
	}
	digits := newDigits(t, slow, 100)
	executor := resilience.NewExecutor(resilience.WithTimeout(20 * time.Millisecond))
	h := newTestHandler(t, digits, HandlerConfig{MaxDigits: 100}, WithExecutor(executor))

	rec := get(t, h, "/api/pi?count=10")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var stats StatsResponse
	require.NoError(t, json.NewDecoder(get(t, h, "/api/pi/stats").Body).Decode(&stats))
	require.NotNil(t, stats.Timeout)
	assert.Equal(t, int64(1), stats.Timeout.Timeouts)
	assert.Equal(t, int64(1), stats.Timeout.Orphaned)

	// The abandoned computation still fills the cache.
	close(release)
	require.Eventually(t, func() bool { return digits.Covers(10) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/pi?count=10").Code)
}

func TestServeRange_GeneratorFailure(t *testing.T) {
	failing := func(context.Context, int) (string, error) {
		return "", errors.New("out of memory")
	}
	var logs bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &logs)
	h := newTestHandler(t, newDigits(t, failing, 100), HandlerConfig{MaxDigits: 100}, WithLogger(logger))

	rec := get(t, h, "/api/pi?count=10")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to compute pi digits"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "digit request failed")
	assert.Contains(t, logs.String(), "out of memory")
}

func TestServeWarm(t *testing.T) {
	digits := newDigits(t, nil, 200)
	h := NewHandler(digits, HandlerConfig{MaxDigits: 200})
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pi/warm?digits=150", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp WarmResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 150, resp.Digits)
	assert.False(t, resp.Covered)

	h.Wait()
	assert.True(t, digits.Covers(150))
	assert.True(t, digits.Covers(100), "prefixes are derived from the warmed string")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pi/warm?digits=100", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Covered)
	assert.Equal(t, int64(1), resp.Cache.Computations)
}

func TestServeWarm_BadDigits(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100})

	for _, target := range []string{"/api/pi/warm", "/api/pi/warm?digits=x", "/api/pi/warm?digits=-1", "/api/pi/warm?digits=101"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestServeWarm_Guarded(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100}, WithWarmGuard(deny))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pi/warm?digits=10", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Reads stay open.
	assert.Equal(t, http.StatusOK, get(t, h, "/api/pi?count=3").Code)
}

func TestServeWarm_WrongMethod(t *testing.T) {
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100})
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/pi/warm?digits=10").Code)
}

func TestServeStats(t *testing.T) {
	executor := resilience.NewExecutor(resilience.WithBulkhead(
		resilience.NewBulkhead(resilience.BulkheadConfig{MaxInflightDigits: 500}),
	))
	h := newTestHandler(t, newDigits(t, nil, 100), HandlerConfig{MaxDigits: 100}, WithExecutor(executor))

	get(t, h, "/api/pi?count=20")
	get(t, h, "/api/pi?count=20")
	get(t, h, "/api/pi?count=10")

	rec := get(t, h, "/api/pi/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Cache.Computations)
	assert.Equal(t, int64(1), resp.Cache.Hits)
	assert.Equal(t, int64(1), resp.Cache.DerivedHits)
	assert.Equal(t, 20, resp.Cache.MaxComputed)
	assert.InDelta(t, 2.0/3.0, resp.HitRatio, 1e-9)
	require.NotNil(t, resp.Bulkhead)
	assert.Equal(t, int64(500), resp.Bulkhead.Capacity)
	assert.Zero(t, resp.Bulkhead.Active)
	assert.Nil(t, resp.Timeout)
}

func TestHandlerConfig_Window(t *testing.T) {
	cfg := HandlerConfig{MaxDigits: 100, MaxBatch: 10}

	tests := []struct {
		start, count int
		from, to     int
	}{
		{0, 5, 0, 5},
		{-3, 5, 0, 5},
		{0, 0, 0, 1},
		{0, 50, 0, 10},
		{95, 10, 95, 100},
		{100, 10, 100, 100},
		{250, 1, 250, 250},
	}
	for _, tt := range tests {
		from, to := cfg.Window(tt.start, tt.count)
		assert.Equal(t, [2]int{tt.from, tt.to}, [2]int{from, to}, "Window(%d, %d)", tt.start, tt.count)
	}
}

func TestHandler_WaitContext(t *testing.T) {
	release := make(chan struct{})
	slow := func(_ context.Context, n int) (string, error) {
		<-release
		return first100[:n], nil
	}
	h := NewHandler(newDigits(t, slow, 100), HandlerConfig{MaxDigits: 100})

	n, err := h.WaitContext(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	h.Warm(context.Background(), 20)
	h.Warm(context.Background(), 30)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	n, err = h.WaitContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(2), n)

	close(release)
	n, err = h.WaitContext(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, h.Pending())
}
