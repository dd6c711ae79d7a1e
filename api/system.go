package api

import (
	"context"
	"net/http"
	"time"

	"log/slog"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	DB Pinger
}

// HealthHandler reports "ok", or 503 with "degraded" when the database does
// not answer within a second.
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "service": "devmarket"}
	status := http.StatusOK

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			logger.Warn("health check: database unreachable", slog.Any("err", err))
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, resp, status)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
