package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/service"
	"github.com/gramseva/idverify/models"
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) enrolDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.EnrolDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Err(err).Msg("invalid enrolment request")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.services.DeviceService.Enrol(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			writeError(w, r, http.StatusBadRequest, "invalid data provided")
			return
		case errors.Is(err, service.ErrWrongEnrolmentKey):
			log.Warn().Str("device", req.DeviceID).Msg("enrolment refused")
			writeError(w, r, http.StatusUnauthorized, "enrolment refused")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during device enrolment")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	writeJSON(w, r, http.StatusOK, models.EnrolDeviceResponse{
		Token:     token.SignedString,
		ExpiresAt: token.ExpiresAt.Time,
	})
}
