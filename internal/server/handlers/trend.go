// internal/server/handlers/trend.go

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"viralboard/internal/domain/trend"
	"viralboard/internal/service/dashboard"
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	dashboard *dashboard.Service
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(svc *dashboard.Service) *TrendHandler {
	return &TrendHandler{
		dashboard: svc,
	}
}

// GetTopTrends returns the headline trend panel
func (h *TrendHandler) GetTopTrends(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dashboard.TopTrends(r.Context()))
}

// CompareTrends returns a panel for ?keywords=a,b,c, or the default
// comparison when the parameter is absent
func (h *TrendHandler) CompareTrends(w http.ResponseWriter, r *http.Request) {
	tf, err := trend.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Unsupported timeframe", err)
		return
	}

	var keywords []string
	if r.URL.Query().Has("keywords") {
		keywords = strings.Split(r.URL.Query().Get("keywords"), ",")
	}
	panel, err := h.dashboard.CompareTrends(r.Context(), keywords, tf)
	if err != nil {
		if errors.Is(err, trend.ErrNoKeywords) {
			respondWithError(w, r, http.StatusBadRequest, "Missing keywords", err)
		} else {
			respondWithError(w, r, http.StatusInternalServerError, "Failed to compare trends", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, panel)
}

// GetKeywordTrend returns one keyword's series for ?q=...&timeframe=...
func (h *TrendHandler) GetKeywordTrend(w http.ResponseWriter, r *http.Request) {
	tf, err := trend.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Unsupported timeframe", err)
		return
	}

	result, err := h.dashboard.KeywordTrend(r.Context(), r.URL.Query().Get("q"), tf)
	if err != nil {
		if errors.Is(err, trend.ErrNoKeywords) {
			respondWithError(w, r, http.StatusBadRequest, "Missing keyword", err)
		} else {
			respondWithError(w, r, http.StatusInternalServerError, "Failed to get keyword trend", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetTrendScore returns a title's mean interest over the last seven days
func (h *TrendHandler) GetTrendScore(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		respondWithError(w, r, http.StatusBadRequest, "Missing title", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"title": title,
		"score": h.dashboard.ShowTrendScore(r.Context(), title),
	})
}
