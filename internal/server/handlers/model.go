// internal/server/handlers/model.go

package handlers

import (
	"net/http"

	"viralboard/internal/domain/prediction"
	"viralboard/internal/service/dashboard"
)

// ModelHandler serves the model pages and the what-if estimate
type ModelHandler struct {
	dashboard *dashboard.Service
}

// NewModelHandler creates a new model handler
func NewModelHandler(svc *dashboard.Service) *ModelHandler {
	return &ModelHandler{
		dashboard: svc,
	}
}

// GetFeatures returns feature importances
func (h *ModelHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dashboard.FeatureImportance())
}

// GetPerformance returns model evaluation figures
func (h *ModelHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dashboard.ModelPerformance())
}

// Estimate scores a hypothetical title
func (h *ModelHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var in prediction.EstimateInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.dashboard.Estimate(in))
}
