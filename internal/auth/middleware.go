package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key for storing verified claims in context
	ClaimsContextKey contextKey = "claims"
)

// Authenticate verifies a Bearer token when one is present and stores its
// claims in the request context. A missing, malformed, expired or forged
// token leaves the request anonymous; the Require* middlewares decide.
func Authenticate(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a valid user token
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentifyUser(r); !ok {
			pkghttp.WriteUnauthorized(w, "Sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without a valid admin token
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			pkghttp.WriteUnauthorized(w, "Admin authorization required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaimsFromContext extracts verified claims from request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// IdentifyUser returns the account email of a user token
func IdentifyUser(r *http.Request) (string, bool) {
	claims := GetClaimsFromContext(r)
	if claims == nil || claims.Role != models.RoleUser {
		return "", false
	}
	return claims.Subject, true
}

// IsAdmin reports whether the request carries a valid admin token
func IsAdmin(r *http.Request) bool {
	claims := GetClaimsFromContext(r)
	return claims != nil && claims.Role == models.RoleAdmin
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
