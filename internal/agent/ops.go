package agent

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// Operator endpoints: manual reconciliation of transactions whose retry
// budget is exhausted, and manual lockout clearing.

func (h *Handler) listFailedTransactions(w http.ResponseWriter, r *http.Request) {
	failed, err := h.sync.Failed(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing failed transactions")
		return
	}
	if failed == nil {
		failed = []models.OfflineTransaction{}
	}

	writeJSON(w, r, http.StatusOK, failed)
}

func (h *Handler) retryFailedTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	if err := h.sync.Retry(r.Context(), transactionID); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			writeError(w, r, http.StatusNotFound, "no failed transaction with that ID")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "requeueing transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearLockout(w http.ResponseWriter, r *http.Request) {
	lockoutID, err := uuid.Parse(chi.URLParam(r, "lockoutID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid lockout ID")
		return
	}

	if err := h.monitor.Clear(r.Context(), lockoutID); err != nil {
		if errors.Is(err, store.ErrNoLockoutWasFound) {
			writeError(w, r, http.StatusNotFound, "no lockout with that ID")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "clearing lockout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
