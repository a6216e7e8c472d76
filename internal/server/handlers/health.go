// internal/server/handlers/health.go

package handlers

import (
	"net/http"

	"viralboard/internal/service/dashboard"
)

// HealthHandler reports dependency status; a degraded warehouse answers 503
func HealthHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := svc.Health(r.Context())
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		respondWithJSON(w, code, status)
	}
}
