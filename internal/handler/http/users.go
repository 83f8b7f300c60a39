package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/service"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Err(err).Msg("invalid registration request")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.services.CredentialService.RegisterUser(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			writeError(w, r, http.StatusBadRequest, "invalid data provided")
			return
		case errors.Is(err, store.ErrUserAlreadyExists):
			writeError(w, r, http.StatusConflict, "user already exists")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during user registration")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	writeJSON(w, r, http.StatusCreated, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.services.CredentialService.GetUser(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoUserWasFound):
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during user lookup")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	// The agent caches credentials for offline verification; the hidden
	// fields travel in an envelope rather than the client JSON view.
	writeJSON(w, r, http.StatusOK, userEnvelope{
		User:        user,
		PhoneNumber: user.PhoneNumber,
		PINHash:     user.PINHash,
	})
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required,oneof=ACTIVE SUSPENDED INACTIVE"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.CredentialService.SetStatus(ctx, userID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			writeError(w, r, http.StatusBadRequest, "invalid data provided")
			return
		case errors.Is(err, store.ErrNoUserWasFound):
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during status update")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// userEnvelope carries a user record to an authenticated device,
// including the fields hidden from the public JSON view. Only devices
// holding a valid token ever receive it.
type userEnvelope struct {
	models.User
	PhoneNumber string `json:"phone_number,omitempty"`
	PINHash     string `json:"pin_hash,omitempty"`
}
