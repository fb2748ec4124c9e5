package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/fleetops/premia/backend/internal/api/handlers"
	"github.com/fleetops/premia/backend/internal/notify"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// Handlers bundles the handler set the router wires up
type Handlers struct {
	Periods    *handlers.PeriodHandler
	Parameters *handlers.ParameterHandler
	Expurgos   *handlers.ExpurgoHandler
	Results    *handlers.ResultsHandler
	Catalog    *handlers.CatalogHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(h Handlers, hub *notify.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Periods and lifecycle
	api.HandleFunc("/periods", h.Periods.List).Methods("GET")
	api.HandleFunc("/periods", h.Periods.Create).Methods("POST")
	api.HandleFunc("/periods/{id}", h.Periods.Get).Methods("GET")
	api.HandleFunc("/periods/{id}/advance", h.Periods.Advance).Methods("POST")
	api.HandleFunc("/periods/{id}/close", h.Periods.Close).Methods("POST")

	// Targets
	api.HandleFunc("/periods/{id}/parameters", h.Parameters.ListByPeriod).Methods("GET")
	api.HandleFunc("/periods/{id}/parameters", h.Parameters.Define).Methods("POST")

	// Expurgos
	api.HandleFunc("/periods/{id}/expurgos", h.Expurgos.ListByPeriod).Methods("GET")
	api.HandleFunc("/periods/{id}/expurgos", h.Expurgos.Request).Methods("POST")
	api.HandleFunc("/expurgos/{id}/review", h.Expurgos.Review).Methods("POST")
	api.HandleFunc("/expurgos/{id}", h.Expurgos.Delete).Methods("DELETE")

	// Scoring
	api.Handle("/periods/{id}/compute",
		computeLimitMiddleware(log)(http.HandlerFunc(h.Periods.Compute))).Methods("POST")
	api.HandleFunc("/periods/{id}/scores", h.Results.GetScores).Methods("GET")
	api.HandleFunc("/periods/{id}/ranking", h.Results.GetRanking).Methods("GET")
	api.HandleFunc("/periods/{id}/measurements", h.Results.GetMeasurements).Methods("GET")

	// Catalogue
	api.HandleFunc("/sectors", h.Catalog.ListSectors).Methods("GET")
	api.HandleFunc("/criteria", h.Catalog.ListCriteria).Methods("GET")

	// Event stream
	api.HandleFunc("/events", hub.ServeWS).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "premia-api",
	})
}

// computeLimitMiddleware throttles recompute triggers. Recomputation is
// the expensive operation of the service; one trigger per second with a
// small burst is plenty for interactive use.
func computeLimitMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Every(time.Second), 3)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WithField("path", r.URL.Path).Warn("Recompute trigger rate limited")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many recompute requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
