package httputil

import (
	"context"
	"net/http"

	"bookora/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	claimsKey contextKey = "claims"
)

// WithClaims adds the verified session claims to the request context
func WithClaims(r *http.Request, claims *models.SessionClaims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	return r.WithContext(ctx)
}

// GetClaims returns the session claims, or nil for anonymous requests
func GetClaims(r *http.Request) *models.SessionClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.SessionClaims)
	return claims
}

// GetUserEmail returns the signed-in user's email, empty if anonymous
func GetUserEmail(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return c.GetUserID()
	}
	return ""
}
