package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultRunsLimit = 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))
	r.Get("/runs", listRunsHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := StatusResponse{State: "idle"}
		if cfg.Agent != nil {
			resp.State, resp.LastError = cfg.Agent.State()
		}

		if total, err := cfg.History.CountRuns(ctx); err == nil {
			resp.RunsTotal = total
		}

		last, err := cfg.History.LastRun(ctx)
		if err != nil {
			cfg.Logger.Error("failed to load last run", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to load last run", "INTERNAL_ERROR")
			return
		}
		if last != nil {
			lr := RunToResponse(last)
			resp.LastRun = &lr
			if resp.LastError == "" {
				resp.LastError = last.Error
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
				return
			}
			limit = n
		}

		runs, err := cfg.History.Runs(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list runs", "INTERNAL_ERROR")
			return
		}

		resp := RunsResponse{Runs: make([]RunResponse, len(runs))}
		for i, run := range runs {
			resp.Runs[i] = RunToResponse(run)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
