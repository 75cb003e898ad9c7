package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/pidigits/auth"
	"github.com/jonwraymond/pidigits/cache"
	"github.com/jonwraymond/pidigits/config"
	"github.com/jonwraymond/pidigits/health"
	"github.com/jonwraymond/pidigits/observe"
	"github.com/jonwraymond/pidigits/resilience"
	"github.com/jonwraymond/pidigits/spigot"
)

// Server wires the engine, cache, admission control, telemetry, health
// checks and auth into one HTTP server.
type Server struct {
	config   config.Config
	observer observe.Observer
	logger   observe.Logger
	cache    *cache.MemoryCache
	executor *resilience.Executor
	health   *health.Aggregator
	handler  *Handler
	mux      *http.ServeMux
	metrics  metric.Registration
}

// NewServer builds a server from cfg. The returned server owns the
// observer; call Shutdown or Run to release it.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}

	s, err := newServer(cfg, obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	return s, nil
}

func newServer(cfg config.Config, obs observe.Observer) (*Server, error) {
	engine := spigot.New(cfg.Engine())

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	digits, err := cache.NewMemoryCache(mw.Wrap(cache.EngineFunc(engine)), cfg.Policy())
	if err != nil {
		return nil, err
	}

	reg, err := observe.RegisterCacheMetrics(obs.Meter(), digits)
	if err != nil {
		return nil, err
	}

	executor := newExecutor(cfg.Admission)

	agg := health.NewAggregator()
	agg.Register(health.NewEngineChecker(cache.EngineFunc(engine), 0))
	agg.Register(health.NewCacheChecker(digits, 0))
	agg.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	logger := obs.Logger()
	opts := []HandlerOption{WithExecutor(executor), WithLogger(logger)}
	if cfg.Auth.Enabled {
		authn := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}, auth.NewStaticKeyProvider([]byte(cfg.Auth.SigningKey)))
		opts = append(opts, WithWarmGuard(
			auth.Middleware(authn, auth.RoleAuthorizer{Role: cfg.Auth.AdminRole}, "warm"),
		))
	}

	handler := NewHandler(digits, HandlerConfig{
		MaxDigits:    cfg.Digits.MaxDigits,
		MaxBatch:     cfg.Digits.MaxBatch,
		DefaultCount: cfg.Digits.DefaultCount,
	}, opts...)

	mux := http.NewServeMux()
	handler.Register(mux)
	health.RegisterHandlers(mux, agg)
	if obs.PrometheusEnabled() {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return &Server{
		config:   cfg,
		observer: obs,
		logger:   logger.WithComponent("server"),
		cache:    digits,
		executor: executor,
		health:   agg,
		handler:  handler,
		mux:      mux,
		metrics:  reg,
	}, nil
}

func newExecutor(cfg config.AdmissionConfig) *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxInflightDigits: cfg.MaxInflightDigits,
			MaxWait:           cfg.MaxWait,
		})),
	}
	if cfg.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.Rate,
			Burst: cfg.Burst,
		})))
	}
	if cfg.WaitTimeout > 0 {
		opts = append(opts, resilience.WithTimeout(cfg.WaitTimeout))
	}
	return resilience.NewExecutor(opts...)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return accessLog(s.logger, s.mux)
}

// Cache returns the server's digit cache.
func (s *Server) Cache() *cache.MemoryCache {
	return s.cache
}

// Health returns the health aggregator.
func (s *Server) Health() *health.Aggregator {
	return s.health
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then drains connections and shuts
// telemetry down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	if n := s.config.Cache.WarmDigits; n > 0 {
		s.handler.Warm(context.WithoutCancel(ctx), n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(gctx, "listening", observe.F("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()
	return errors.Join(serveErr, s.Shutdown(context.WithoutCancel(ctx)))
}

const telemetryFlushTimeout = 5 * time.Second

// Shutdown waits for background warm-ups up to the shutdown timeout, then
// flushes telemetry. Warm-ups still running are abandoned and logged.
func (s *Server) Shutdown(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout())
	defer cancel()

	if n, err := s.handler.WaitContext(waitCtx); err != nil {
		s.logger.Warn(ctx, "abandoning warm-ups at shutdown",
			observe.F("warm_ups", n),
			observe.F("error", err.Error()),
		)
	}

	// Telemetry is flushed on its own budget.
	flushCtx, cancelFlush := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
	defer cancelFlush()

	var errs []error
	if s.metrics != nil {
		errs = append(errs, s.metrics.Unregister())
	}
	errs = append(errs, s.observer.Shutdown(flushCtx))
	return errors.Join(errs...)
}

func (s *Server) shutdownTimeout() time.Duration {
	if d := s.config.Server.ShutdownTimeout; d > 0 {
		return d
	}
	return 15 * time.Second
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(logger observe.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug(r.Context(), "request",
			observe.F("method", r.Method),
			observe.F("path", r.URL.Path),
			observe.F("status", rec.status),
			observe.F("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
