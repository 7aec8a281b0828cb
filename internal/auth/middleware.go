package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type identityKey struct{}

// WithIdentity stores the verified identity in the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the identity placed by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// FailureHook is called for each rejected request with a reason label.
type FailureHook func(reason string)

// Middleware gates every wrapped route behind bearer-token verification.
// Rejections never leak verification detail beyond the unauthenticated vs
// expired distinction.
func Middleware(authority *Authority, onFailure FailureHook) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				reject(w, onFailure, "unauthenticated", "missing bearer token")
				return
			}

			id, err := authority.Verify(raw)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					reject(w, onFailure, "token_expired", "token expired")
					return
				}
				reject(w, onFailure, "unauthenticated", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func reject(w http.ResponseWriter, onFailure FailureHook, code, message string) {
	if onFailure != nil {
		onFailure(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
