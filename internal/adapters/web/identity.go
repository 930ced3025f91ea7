package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"retail-ledger/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

type cashierKey struct{}

// cashierFromContext returns the acting cashier stored in ctx, or a zero
// Cashier when the request was unauthenticated.
func cashierFromContext(ctx context.Context) core.Cashier {
	v, _ := ctx.Value(cashierKey{}).(core.Cashier)
	return v
}

// jwtClaims is the JWT payload struct used for parsing. Tokens are issued by
// the upstream identity service; this adapter only verifies and extracts.
type jwtClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth validates the Bearer token (or auth_token cookie) and injects
// the cashier identity into the request context. Returns 401 JSON if the
// token is absent or invalid. Authorization decisions stay out of the core:
// anything with a valid token may call any endpoint.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		cashier := core.Cashier{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
		ctx := context.WithValue(r.Context(), cashierKey{}, cashier)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
