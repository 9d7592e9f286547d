package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/metrics"
	"renthub-backend/internal/security"

	"github.com/gorilla/mux"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated caller placed by AuthMiddleware.
func identityFrom(r *http.Request) (domain.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(domain.Identity)
	return id, ok
}

// AuthMiddleware validates the bearer token and injects the caller identity.
func AuthMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error: errorBody{Code: "UNAUTHENTICATED", Message: "missing bearer token"},
				})
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error: errorBody{Code: "UNAUTHENTICATED", Message: "invalid or expired token"},
				})
				return
			}
			identity := domain.Identity{UserID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
