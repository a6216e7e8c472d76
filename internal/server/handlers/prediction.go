// internal/server/handlers/prediction.go

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"viralboard/internal/domain/prediction"
	"viralboard/internal/service/dashboard"
)

// PredictionHandler handles prediction and title requests
type PredictionHandler struct {
	dashboard *dashboard.Service
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(svc *dashboard.Service) *PredictionHandler {
	return &PredictionHandler{
		dashboard: svc,
	}
}

type topPredictionsQuery struct {
	Date     string `validate:"omitempty,datetime=2006-01-02"`
	Lookback int    `validate:"min=0,max=365"`
	Limit    int    `validate:"min=0,max=100"`
}

// GetTopPredictions returns ranked predictions for ?date&lookback&limit
func (h *PredictionHandler) GetTopPredictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := topPredictionsQuery{Date: q.Get("date")}

	var err error
	if v := q.Get("lookback"); v != "" {
		if params.Lookback, err = strconv.Atoi(v); err != nil {
			respondWithError(w, r, http.StatusBadRequest, "Invalid lookback", err)
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if params.Limit, err = strconv.Atoi(v); err != nil {
			respondWithError(w, r, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}
	if err := validateStruct(params); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	query := prediction.Query{Lookback: params.Lookback, Limit: params.Limit}
	if params.Date != "" {
		date, _ := time.Parse("2006-01-02", params.Date)
		query.Date = &date
	}

	respondWithJSON(w, http.StatusOK, h.dashboard.TopPredictions(r.Context(), query))
}

// ListTitles returns the title catalogue, filtered by ?q
func (h *PredictionHandler) ListTitles(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dashboard.Titles(r.Context(), r.URL.Query().Get("q")))
}

// GetTitleDetail returns one title's details for ?title
func (h *PredictionHandler) GetTitleDetail(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		respondWithError(w, r, http.StatusBadRequest, "Missing title", nil)
		return
	}

	detail, err := h.dashboard.TitleDetail(r.Context(), title)
	if err != nil {
		respondWithError(w, r, http.StatusNotFound, "Title not found", err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}
