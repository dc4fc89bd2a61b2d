package web

import (
	"net/http"
	"time"

	"github.com/dimbox/dimbox/internal/guard"
	"github.com/dimbox/dimbox/internal/session"
	"github.com/dimbox/dimbox/pkg/httpx"
)

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// LivezHandler always answers 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 until the session has finished hydrating, and
// while the token store cannot be reached.
func ReadyzHandler(startTime time.Time, version string, sess guard.SnapshotSource, store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := sess.Snapshot().State
		checks := map[string]string{"session": state.String()}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if state == session.Uninitialized || state == session.Loading {
			overallStatus = "starting"
			statusCode = http.StatusServiceUnavailable
		}

		if store != nil {
			checks["token_store"] = "ok"
			if err := store.Ping(r.Context()); err != nil {
				checks["token_store"] = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
