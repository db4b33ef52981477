package middleware

import (
	"log/slog"
	"net/http"

	"bookora/internal/auth"
	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// Authenticate verifies the bearer token when one is sent and stores the
// claims in the request context. Requests without a token pass through
// anonymously; routes that need a user wrap their handler in RequireUser.
func Authenticate(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httputil.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, httputil.WithClaims(r, claims))
		})
	}
}

// RequireUser rejects anonymous requests with 401
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetUserEmail(r) == "" {
			httputil.RespondError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next(w, r)
	}
}

// RequireAdmin allows only configured admins. Membership is checked against
// the current admin list rather than the token's admin claim.
func RequireAdmin(admins services.AdminService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireUser(func(w http.ResponseWriter, r *http.Request) {
			if !admins.IsAdmin(httputil.GetUserEmail(r)) {
				httputil.RespondError(w, http.StatusForbidden, "admin access required")
				return
			}
			next(w, r)
		})
	}
}
