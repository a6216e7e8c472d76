// internal/server/handlers/respond.go

package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"viralboard/internal/logging"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Int("code", code).Str("path", r.URL.Path).Msg(message)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// decodeJSON reads a JSON body into dst and validates its struct tags
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return validateStruct(dst)
}

// validateStruct runs validator tags and flattens failures into one message
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
