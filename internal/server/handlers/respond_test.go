// internal/server/handlers/respond_test.go

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"viralboard/internal/adapter/events"
	"viralboard/internal/domain/prediction"
)

func TestDecodeJSON_ValidatesInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"X","type":"Movie","imdb_score":0}`))
	var in prediction.EstimateInput
	err := decodeJSON(req, &in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "IMDbScore") {
		t.Errorf("error should name the field, got %q", err)
	}
}

func TestDecodeJSON_RejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	var in prediction.EstimateInput
	if err := decodeJSON(req, &in); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondWithError(rec, req, http.StatusBadRequest, "Missing title", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type: got %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != `{"error":"Missing title"}` {
		t.Errorf("body: got %s", rec.Body.String())
	}
}

func TestTrendsWebSocketHandler_RequiresBroker(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/trends", nil)
	TrendsWebSocketHandler(events.NewPublisher(nil, "dashboard.trends"))(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d", rec.Code)
	}
}
