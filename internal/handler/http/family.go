package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/models"
)

func (h *Handler) registerFamilyMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterFamilyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Err(err).Msg("invalid family registration request")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.services.FamilyService.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrConsentMissing):
			writeError(w, r, http.StatusForbidden, "consent missing")
			return
		case errors.Is(err, proxy.ErrNotAuthorized):
			writeError(w, r, http.StatusBadRequest, "invalid registration pair")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during family registration")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	writeJSON(w, r, http.StatusCreated, member)
}

func (h *Handler) getFamilyLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	memberID, err := uuid.Parse(r.URL.Query().Get("member"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid member id")
		return
	}
	primaryID, err := uuid.Parse(r.URL.Query().Get("primary"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid primary id")
		return
	}

	link, err := h.services.FamilyService.GetLink(ctx, memberID, primaryID)
	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrLinkNotFound):
			writeError(w, r, http.StatusNotFound, "family link not found")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during family link lookup")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	writeJSON(w, r, http.StatusOK, link)
}

func (h *Handler) revokeFamilyConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req struct {
		MemberUserID  uuid.UUID `json:"member_user_id" validate:"required"`
		PrimaryUserID uuid.UUID `json:"primary_user_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.FamilyService.Revoke(ctx, req.MemberUserID, req.PrimaryUserID); err != nil {
		switch {
		case errors.Is(err, proxy.ErrNotAuthorized):
			writeError(w, r, http.StatusNotFound, "family link not found")
			return
		default:
			log.Err(err).Msg("unexpected error occurred during consent revocation")
			writeError(w, r, http.StatusInternalServerError, "")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFamilyByPrimary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	primaryID, err := uuid.Parse(chi.URLParam(r, "primaryID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid primary id")
		return
	}

	links, err := h.services.FamilyService.ListByPrimary(ctx, primaryID)
	if err != nil {
		log.Err(err).Msg("unexpected error occurred during family listing")
		writeError(w, r, http.StatusInternalServerError, "")
		return
	}

	writeJSON(w, r, http.StatusOK, links)
}
