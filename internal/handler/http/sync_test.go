package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

func TestReceiveSyncBatch_OK(t *testing.T) {
	transactionID := uuid.New()
	var gotBatch models.SyncBatch
	services := testServices()
	services.SyncService = &mockSyncSvc{
		receiveFn: func(_ context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
			gotBatch = batch
			return models.SyncBatchResponse{
				Results: []models.SyncResult{{TransactionID: transactionID, Accepted: true}},
			}, nil
		},
	}
	router := newTestHandler(services).Init()

	body := models.SyncBatch{
		DeviceID:     "kiosk-001",
		Transactions: []models.OfflineTransaction{{TransactionID: transactionID, DeviceID: "kiosk-001"}},
	}
	req := authenticatedRequest(t, http.MethodPost, "/api/sync/transactions", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response models.SyncBatchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.Len(t, response.Results, 1)
	assert.True(t, response.Results[0].Accepted)
	assert.Equal(t, "kiosk-001", gotBatch.DeviceID)
}

func TestReceiveSyncBatch_DeviceIDFromToken(t *testing.T) {
	var gotBatch models.SyncBatch
	services := testServices()
	services.SyncService = &mockSyncSvc{
		receiveFn: func(_ context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
			gotBatch = batch
			return models.SyncBatchResponse{}, nil
		},
	}
	router := newTestHandler(services).Init()

	// batch without a device ID: the token's identity is substituted
	req := authenticatedRequest(t, http.MethodPost, "/api/sync/transactions", models.SyncBatch{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "kiosk-001", gotBatch.DeviceID)
}

func TestReceiveSyncBatch_DeviceMismatch(t *testing.T) {
	called := false
	services := testServices()
	services.SyncService = &mockSyncSvc{
		receiveFn: func(_ context.Context, _ models.SyncBatch) (models.SyncBatchResponse, error) {
			called = true
			return models.SyncBatchResponse{}, nil
		},
	}
	router := newTestHandler(services).Init()

	// the token says kiosk-001; a batch claiming another device is refused
	req := authenticatedRequest(t, http.MethodPost, "/api/sync/transactions", models.SyncBatch{DeviceID: "kiosk-002"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, called)
}

func TestReceiveSyncBatch_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/transactions", nil)
	req.Header.Set("Authorization", validAuthHeader())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAppendAuditRecord_OK(t *testing.T) {
	var got models.SessionRecord
	services := testServices()
	services.AuditService = &mockAuditSvc{
		appendFn: func(_ context.Context, record models.SessionRecord) error {
			got = record
			return nil
		},
	}
	router := newTestHandler(services).Init()

	sessionID := uuid.New()
	userID := uuid.New()
	body := models.SessionRecord{
		Audit: models.AuditRecord{
			RecordID:      sessionID,
			SessionID:     sessionID,
			SubjectUserID: userID,
			ActingUserID:  userID,
			DeviceID:      "kiosk-001",
			Outcome:       models.SessionSuccess,
		},
	}
	req := authenticatedRequest(t, http.MethodPost, "/api/audit/records", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, sessionID, got.Audit.RecordID)
}

func TestAppendAuditRecord_Incomplete(t *testing.T) {
	router := newTestRouter(t)

	req := authenticatedRequest(t, http.MethodPost, "/api/audit/records", models.SessionRecord{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListAuditRecords_FilterFromQuery(t *testing.T) {
	subjectID := uuid.New()
	var gotFilter store.AuditFilter
	services := testServices()
	services.AuditService = &mockAuditSvc{
		listFn: func(_ context.Context, filter store.AuditFilter) ([]models.AuditRecord, error) {
			gotFilter = filter
			return []models.AuditRecord{}, nil
		},
	}
	router := newTestHandler(services).Init()

	path := "/api/audit/records?subject=" + subjectID.String() + "&device=kiosk-001&outcome=SUCCESS&proxy=true&limit=10"
	req := authenticatedRequest(t, http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, subjectID, gotFilter.SubjectUserID)
	assert.Equal(t, "kiosk-001", gotFilter.DeviceID)
	assert.Equal(t, models.SessionSuccess, gotFilter.Outcome)
	assert.True(t, gotFilter.ProxyOnly)
	assert.Equal(t, 10, gotFilter.Limit)
}

func TestListAuditRecords_BadSubject(t *testing.T) {
	router := newTestRouter(t)

	req := authenticatedRequest(t, http.MethodGet, "/api/audit/records?subject=not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
