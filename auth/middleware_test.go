package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler(t *testing.T) http.Handler {
	return Middleware(newTestAuthenticator(), RoleAuthorizer{Role: "admin"}, "warm")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == "" {
				t.Error("identity missing from context")
			}
			w.WriteHeader(http.StatusAccepted)
		}),
	)
}

func TestMiddleware(t *testing.T) {
	reader := validClaims()
	reader["roles"] = []any{"reader"}

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"admin token", "Bearer " + signToken(t, testKey, validClaims()), http.StatusAccepted},
		{"reader token", "Bearer " + signToken(t, testKey, reader), http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pi/warm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protectedHandler(t).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate challenge")
			}
		})
	}
}

type failingAuthenticator struct{}

func (failingAuthenticator) Name() string { return "failing" }
func (failingAuthenticator) Authenticate(context.Context, *AuthRequest) (*AuthResult, error) {
	return nil, errors.New("backend down")
}

func TestMiddleware_InternalError(t *testing.T) {
	h := Middleware(failingAuthenticator{}, nil, "warm")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
