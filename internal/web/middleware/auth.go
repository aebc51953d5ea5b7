// Package middleware provides HTTP middleware for the web layer.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkforge/fulfillment/internal/logging"
)

// ErrUnauthenticated is the error handlers raise when a request reaches
// them without a session attached by Auth.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session identifies the acting seller. Admin sessions may commit on
// behalf of another seller.
type Session struct {
	SellerID string
	Admin    bool
}

// SessionResolver resolves a bearer token to a session. Identity is an
// external collaborator; this package never validates credentials
// itself.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

type sessionKey struct{}

// SessionFromContext returns the session attached by Auth, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Auth returns middleware that resolves the Authorization bearer token
// into a Session and rejects the request with 401 otherwise. Auth
// failures abort immediately; there is no partial parse for
// unauthenticated callers.
func Auth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, r, "missing bearer token", "authentication required")
				return
			}

			session, err := resolver.Resolve(r.Context(), token)
			if err != nil || session == nil {
				unauthorized(w, r, "invalid session", "invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthorized writes the 401 JSON body in the same shape the API's
// error responses use.
func unauthorized(w http.ResponseWriter, r *http.Request, reason, message string) {
	logging.FromContext(r.Context()).Warn("auth: "+reason,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := map[string]any{"success": false, "error": message, "code": "UNAUTHENTICATED"}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Error("encode response", "error", err)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
