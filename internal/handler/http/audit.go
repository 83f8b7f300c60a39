package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// appendAuditRecord is the online delivery path: an agent posts one
// completed session straight to the audit sink. Appends are idempotent
// per record ID, so re-delivery after an ambiguous network failure is
// answered 200 rather than 409.
func (h *Handler) appendAuditRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var record models.SessionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if record.Audit.RecordID == uuid.Nil || record.Audit.SubjectUserID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "incomplete audit record")
		return
	}

	if err := h.services.AuditService.AppendRecord(ctx, record); err != nil {
		log.Err(err).Msg("unexpected error occurred during audit append")
		writeError(w, r, http.StatusInternalServerError, "")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) listAuditRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.services.AuditService.ListRecords(ctx, filter)
	if err != nil {
		log.Err(err).Msg("unexpected error occurred during audit listing")
		writeError(w, r, http.StatusInternalServerError, "")
		return
	}

	writeJSON(w, r, http.StatusOK, records)
}

func auditFilterFromQuery(r *http.Request) (store.AuditFilter, error) {
	var filter store.AuditFilter
	q := r.URL.Query()

	if v := q.Get("subject"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return store.AuditFilter{}, err
		}
		filter.SubjectUserID = id
	}
	filter.DeviceID = q.Get("device")
	filter.Outcome = models.SessionState(q.Get("outcome"))
	filter.ProxyOnly = q.Get("proxy") == "true"

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return store.AuditFilter{}, err
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return store.AuditFilter{}, err
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return store.AuditFilter{}, err
		}
		filter.Limit = n
	}

	return filter, nil
}
