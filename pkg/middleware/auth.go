package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/internal/service"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

type ctxKey int

const operatorKey ctxKey = iota

// OperatorFromContext returns the authenticated operator, if any
func OperatorFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(operatorKey).(*service.Claims)
	return claims, ok
}

// Auth requires a valid operator token allowed to change data.
// It lets every request through when authentication is disabled.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.Authenticate(r)
			if err != nil {
				msg := "Authentication is required"
				switch {
				case errors.Is(err, service.ErrTokenExpired):
					msg = "Token expired"
				case errors.Is(err, service.ErrInvalidToken):
					msg = "Invalid token"
				}
				logging.FromContext(r.Context()).WithError(err).Warn("Rejected unauthenticated request")
				writeError(w, model.ErrUnauthorized.WithMessage(msg))
				return
			}

			if !claims.CanMutate() {
				writeError(w, model.ErrForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, claims)
			ctx = logging.ToContext(ctx, logging.FromContext(ctx).WithField("operator_id", claims.OperatorID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies the per client rate limit
func RateLimit(rateLimiter *service.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := extractRateLimitClientID(r)

			err := rateLimiter.Allow(clientID)
			for k, v := range rateLimiter.Headers(clientID) {
				w.Header().Set(k, v)
			}
			if err != nil {
				writeError(w, model.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractRateLimitClientID keys the limit by operator when known, else by the
// peer address. Forwarding headers are client supplied and not used here.
func extractRateLimitClientID(r *http.Request) string {
	if claims, ok := OperatorFromContext(r.Context()); ok {
		return "operator:" + claims.OperatorID
	}
	return "ip:" + remoteIP(r)
}
