package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// RequestIDHeader carries the request identifier in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a new one and
// stores it in the request context for logging.
func RequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
		})
	}
}

// Recover turns a panic inside a handler into a 500 response
func Recover(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error(r.Context(), "[API_PANIC] Recovered from handler panic", logging.Fields{
					"path":   r.URL.Path,
					"method": r.Method,
					"stack":  string(debug.Stack()),
				}, fmt.Errorf("panic: %v", rec))
				metricsCollector.RecordAPIError("panic", endpointLabel(r))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ErrorResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Message: "internal server error",
					Code:    http.StatusInternalServerError,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// InFlight tracks the number of requests currently being served
func InFlight(metricsCollector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metricsCollector.ActiveConnections.Inc()
			defer metricsCollector.ActiveConnections.Dec()

			next.ServeHTTP(w, r)
		})
	}
}

// endpointLabel prefers the route template so ids do not become label values
func endpointLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
