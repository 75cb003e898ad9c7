package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware authenticates requests and authorizes them for action.
// Unauthenticated requests get 401 with a WWW-Authenticate challenge and
// unauthorized ones get 403. A nil authorizer admits any authenticated
// identity.
func Middleware(authn Authenticator, authz Authorizer, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := authn.Authenticate(ctx, &AuthRequest{Headers: r.Header})
			if err != nil {
				writeError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}
			if !result.Authenticated {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pidigits"`)
				writeError(w, http.StatusUnauthorized, result.Error.Error())
				return
			}

			if authz != nil {
				err := authz.Authorize(ctx, &AuthzRequest{Subject: result.Identity, Action: action})
				if err != nil {
					if errors.Is(err, ErrForbidden) {
						writeError(w, http.StatusForbidden, ErrForbidden.Error())
						return
					}
					writeError(w, http.StatusInternalServerError, "authorization unavailable")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
