package http

import (
	"encoding/json"
	"net/http"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromRequest(r).Err(err).Msg("error encoding response body")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
