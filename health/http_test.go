package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMux(checkers ...Checker) *http.ServeMux {
	agg := NewAggregator()
	for _, c := range checkers {
		agg.Register(c)
	}
	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	return mux
}

func serve(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	rec := serve(newTestMux(staticChecker("x", Unhealthy("down", nil))), "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("Body = %q", rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "OK"},
		{"degraded", Degraded("slow"), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("down", nil), http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestMux(staticChecker("engine", tt.result)), "/readyz")
			if rec.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	mux := newTestMux(
		staticChecker("engine", Healthy("ok")),
		staticChecker("cache", Unhealthy("broken", ErrCheckFailed)),
	)
	rec := serve(mux, "/health")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["cache"].Error != ErrCheckFailed.Error() {
		t.Errorf("cache error = %q", resp.Checks["cache"].Error)
	}
	if resp.Checks["engine"].Status != "healthy" {
		t.Errorf("engine status = %q", resp.Checks["engine"].Status)
	}
}

func TestSingleCheckHandler(t *testing.T) {
	mux := newTestMux(staticChecker("engine", Degraded("slow")))

	rec := serve(mux, "/health/engine")
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "degraded" || resp.Message != "slow" {
		t.Errorf("response = %+v", resp)
	}

	if rec := serve(mux, "/health/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing checker status = %d, want 404", rec.Code)
	}
}
