package http

import (
	"net/http"
	"time"

	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/pkg/authsdk"
	"github.com/renderauth/renderauth/pkg/httpx"
)

// ReadyzHandler is the readiness probe: checks the database and, when
// configured, the durable tier's backend.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	tierPing func(r *http.Request) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database:  "ok",
			TierStore: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if tierPing != nil {
			if err := tierPing(r); err != nil {
				// A down durable tier degrades durability but the memory
				// and cookie tiers still serve; report degraded, stay 200.
				checks.TierStore = "error: " + err.Error()
				overallStatus = "degraded"
			}
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
