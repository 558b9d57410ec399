package http

import (
	"net/http"
	"time"

	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
)

// LivezHandler is the liveness probe. It returns 200 whenever the process
// is up, with uptime and build version.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, agmsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
