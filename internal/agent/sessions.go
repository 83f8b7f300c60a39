package agent

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "device_id": h.deviceID})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.DeviceID != "" && req.DeviceID != h.deviceID {
		writeError(w, r, http.StatusBadRequest, "device_id does not match this device")
		return
	}

	started, err := h.engine.Start(r.Context(), req.SubjectUserID, req.ActingUserID, h.deviceID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, started)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDFromPath(w, r)
	if !ok {
		return
	}

	snapshot, err := h.engine.Get(sessionID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, snapshot)
}

func (h *Handler) submitBiometric(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var sub models.BiometricSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(sub); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.SubmitBiometric(r.Context(), sessionID, sub)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (h *Handler) submitFallback(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var sub models.FallbackSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(sub); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.SubmitFallback(r.Context(), sessionID, sub.Method, sub.Credential)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (h *Handler) requestOTP(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.RequestOTP(r.Context(), sessionID); err != nil {
		writeSessionError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) sessionIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid session ID")
		return uuid.Nil, false
	}
	return sessionID, true
}
