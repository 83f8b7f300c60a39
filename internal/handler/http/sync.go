package http

import (
	"encoding/json"
	"net/http"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/utils"
	"github.com/gramseva/idverify/models"
)

// receiveSyncBatch accepts drained offline transactions from an agent
// and answers per transaction. The device ID comes from the validated
// token, not the body: a device can only sync its own queue.
func (h *Handler) receiveSyncBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var batch models.SyncBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	deviceID, _ := ctx.Value(utils.DeviceIDCtxKey).(string)
	if deviceID == "" || (batch.DeviceID != "" && batch.DeviceID != deviceID) {
		writeError(w, r, http.StatusForbidden, "device mismatch")
		return
	}
	batch.DeviceID = deviceID

	response, err := h.services.SyncService.ReceiveBatch(ctx, batch)
	if err != nil {
		log.Err(err).Msg("unexpected error occurred during sync receive")
		writeError(w, r, http.StatusInternalServerError, "")
		return
	}

	writeJSON(w, r, http.StatusOK, response)
}
