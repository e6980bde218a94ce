package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"MotoTrader/internal/engine"
	"MotoTrader/internal/metrics"
	"MotoTrader/internal/model"
)

// Source is the read side of the engine the API exposes.
type Source interface {
	Status(ctx context.Context) (*engine.Status, error)
	Weights() (model.WeightVector, bool)
	Latest() *model.CycleSummary
}

const defaultHistoryLimit = 50

// NewRouter creates the HTTP router. Every route is read-only.
func NewRouter(src Source, log zerolog.Logger) http.Handler {
	h := &handler{src: src, log: log}
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/portfolio", h.portfolio).Methods(http.MethodGet)
	api.HandleFunc("/history", h.history).Methods(http.MethodGet)
	api.HandleFunc("/weights", h.weights).Methods(http.MethodGet)
	api.HandleFunc("/cycle/latest", h.latestCycle).Methods(http.MethodGet)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	return r
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, src Source, log zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(src, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type handler struct {
	src Source
	log zerolog.Logger
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "mototrader"})
}

func (h *handler) portfolio(w http.ResponseWriter, r *http.Request) {
	st, err := h.src.Status(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load portfolio")
		respondError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// history returns the newest ledger entries first. ?limit=N caps the count.
func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	st, err := h.src.Status(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load history")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	entries := st.Portfolio.History
	out := make([]model.LedgerEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   len(entries),
		"entries": out,
	})
}

func (h *handler) weights(w http.ResponseWriter, _ *http.Request) {
	weights, adaptive := h.src.Weights()
	mode := "static"
	if adaptive {
		mode = "adaptive"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mode":    mode,
		"weights": weights,
	})
}

func (h *handler) latestCycle(w http.ResponseWriter, _ *http.Request) {
	s := h.src.Latest()
	if s == nil {
		respondError(w, http.StatusNotFound, "no cycle has run yet")
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().Interface("panic", err).Str("path", r.URL.Path).Msg("panic recovered")
					respondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
