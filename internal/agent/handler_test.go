package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/capability"
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/monitor"
	"github.com/gramseva/idverify/internal/offline"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/internal/session"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

const testDeviceID = "kiosk-001"

var testPINHash = func() string {
	hash, err := crypto.NewPINHasher().Hash("4321")
	if err != nil {
		panic(err)
	}
	return hash
}()

func kioskUser(userID uuid.UUID) models.User {
	return models.User{
		UserID:               userID,
		FirstName:            "Asha",
		LastName:             "Devi",
		BiometricTemplateRef: "tpl-1",
		PhoneNumber:          "+911234567890",
		PINHash:              testPINHash,
		AuthMethods: models.AuthMethods{
			FaceRecognition: true,
			PINEnabled:      true,
			OTPEnabled:      true,
		},
		Status: models.UserStatusActive,
	}
}

type stubLockouts struct {
	record   models.LockoutRecord
	locked   bool
	clearErr error
}

func (s *stubLockouts) ActiveLockout(context.Context, uuid.UUID, string) (models.LockoutRecord, bool, error) {
	return s.record, s.locked, nil
}

func (s *stubLockouts) SaveLockout(context.Context, models.LockoutRecord) error { return nil }

func (s *stubLockouts) ClearLockout(context.Context, uuid.UUID) error { return s.clearErr }

type stubProxy struct{}

func (stubProxy) Authorize(context.Context, uuid.UUID, uuid.UUID) (models.AuthorizationLevel, error) {
	return models.AuthorizationLimited, nil
}

type stubJournal struct {
	next int64
}

func (s *stubJournal) Append(_ context.Context, event models.AttemptEvent) (models.AttemptEvent, error) {
	s.next++
	event.EventID = s.next
	return event, nil
}

func (s *stubJournal) EventsAfter(context.Context, int64, int) ([]models.AttemptEvent, error) {
	return nil, nil
}

func (s *stubJournal) FailureCount(context.Context, uuid.UUID, string, time.Time) (int, error) {
	return 0, nil
}

type stubRecorder struct {
	records []models.SessionRecord
}

func (s *stubRecorder) RecordCompletion(_ context.Context, record models.SessionRecord) error {
	s.records = append(s.records, record)
	return nil
}

type stubMatcher struct {
	score float64
}

func (s *stubMatcher) Match(context.Context, []byte, string) (float64, error) { return s.score, nil }

func (s *stubMatcher) CheckLiveness(context.Context, []byte) (bool, error) { return true, nil }

type stubDocs struct{}

func (stubDocs) Extract(context.Context, []byte) (models.DocumentFields, error) {
	return models.DocumentFields{ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

type stubSMS struct {
	sent []string
}

func (s *stubSMS) Send(_ context.Context, phoneNumber, message string) error {
	s.sent = append(s.sent, phoneNumber+": "+message)
	return nil
}

type stubOTP struct{}

func (stubOTP) Issue(_ context.Context, userID uuid.UUID) (string, models.OTPIssue, error) {
	return "123456", models.OTPIssue{IssueID: 1, UserID: userID}, nil
}

func (stubOTP) Validate(_ context.Context, _ uuid.UUID, code string) error {
	if code != "123456" {
		return errors.New("otp mismatch")
	}
	return nil
}

type stubQueue struct {
	failed     []models.OfflineTransaction
	requeued   []uuid.UUID
	requeueErr error
}

func (s *stubQueue) Enqueue(context.Context, models.OfflineTransaction) error { return nil }

func (s *stubQueue) Pending(context.Context, string, int) ([]models.OfflineTransaction, error) {
	return nil, nil
}

func (s *stubQueue) MarkSynced(context.Context, uuid.UUID) error { return nil }

func (s *stubQueue) MarkAttempt(context.Context, uuid.UUID, time.Time) error { return nil }

func (s *stubQueue) MarkFailed(context.Context, uuid.UUID) error { return nil }

func (s *stubQueue) Requeue(_ context.Context, transactionID uuid.UUID) error {
	if s.requeueErr != nil {
		return s.requeueErr
	}
	s.requeued = append(s.requeued, transactionID)
	return nil
}

func (s *stubQueue) Failed(context.Context, string) ([]models.OfflineTransaction, error) {
	return s.failed, nil
}

type stubCursor struct{}

func (stubCursor) Cursor(context.Context, string) (int64, error) { return 0, nil }

func (stubCursor) SetCursor(context.Context, string, int64) error { return nil }

// kioskFixture wires a real engine, sync manager and monitor over stub
// collaborators so route tests exercise the full handler stack.
type kioskFixture struct {
	central  *mockCentral
	lockouts *stubLockouts
	queue    *stubQueue
	recorder *stubRecorder
	matcher  *stubMatcher
	sms      *stubSMS
}

func newKioskRouter(t *testing.T) (*chi.Mux, *kioskFixture) {
	t.Helper()

	f := &kioskFixture{
		central: &mockCentral{
			fetchUserFn: func(_ context.Context, userID uuid.UUID) (models.User, error) {
				return kioskUser(userID), nil
			},
		},
		lockouts: &stubLockouts{},
		queue:    &stubQueue{},
		recorder: &stubRecorder{},
		matcher:  &stubMatcher{score: 0.99},
		sms:      &stubSMS{},
	}

	cfg := config.Auth{
		SessionTTL:         time.Minute,
		MaxPrimaryFailures: 3,
		BiometricThreshold: 0.95,
		OTPExpiry:          5 * time.Minute,
		OTPDeliveryTimeout: time.Second,
		PINLength:          4,
		CapabilityTimeout:  time.Second,
	}

	engine := session.NewEngine(cfg, testDeviceID, session.Deps{
		Users:    NewCredentialSource(f.central, newMemCache(), logger.Nop()),
		Lockouts: f.lockouts,
		Proxy:    stubProxy{},
		Journal:  &stubJournal{},
		Recorder: f.recorder,
		Matcher:  f.matcher,
		Docs:     stubDocs{},
		SMS:      f.sms,
		OTP:      stubOTP{},
		PINs:     crypto.NewPINHasher(),
	}, logger.Nop())

	sync := offline.NewManager(config.Sync{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		BatchSize:  10,
	}, testDeviceID, f.queue, f.central, logger.Nop())

	mon := monitor.NewMonitor(config.Lockout{
		FailureThreshold: 5,
		Window:           15 * time.Minute,
		Duration:         30 * time.Minute,
	}, &stubJournal{}, f.lockouts, stubCursor{}, nil, logger.Nop())

	handler := NewHandler(engine, sync, mon, testDeviceID, logger.Nop())
	return handler.Init(), f
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, path, &buf)
}

// startKioskSession drives a session through the HTTP surface and
// returns its ID.
func startKioskSession(t *testing.T, router *chi.Mux) uuid.UUID {
	t.Helper()

	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{SubjectUserID: uuid.New()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var s models.AuthenticationSession
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return s.SessionID
}

// exhaustPrimary drives failing biometric attempts until fallback is
// offered.
func exhaustPrimary(t *testing.T, router *chi.Mux, f *kioskFixture, sessionID uuid.UUID) {
	t.Helper()

	f.matcher.score = 0.10
	for i := 0; i < 3; i++ {
		req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/biometric", models.BiometricSubmission{
			FaceImage:  []byte("face"),
			IDDocument: []byte("doc"),
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestKioskHealth(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), testDeviceID)
}

func TestStartSession_Created(t *testing.T) {
	router, _ := newKioskRouter(t)

	subject := uuid.New()
	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{SubjectUserID: subject})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var s models.AuthenticationSession
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	assert.Equal(t, models.SessionInitiated, s.State)
	assert.Equal(t, subject, s.SubjectUserID)
	assert.Equal(t, testDeviceID, s.DeviceID)
}

func TestStartSession_InvalidJSON(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartSession_MissingSubject(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartSession_ForeignDeviceID(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{
		SubjectUserID: uuid.New(),
		DeviceID:      "kiosk-002",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartSession_UnknownUser(t *testing.T) {
	router, f := newKioskRouter(t)
	f.central.fetchUserFn = func(context.Context, uuid.UUID) (models.User, error) {
		return models.User{}, adapter.ErrRejected
	}

	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{SubjectUserID: uuid.New()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartSession_LockedSubject(t *testing.T) {
	router, f := newKioskRouter(t)
	f.lockouts.locked = true
	f.lockouts.record = models.LockoutRecord{ExpiresAt: time.Now().Add(15 * time.Minute)}

	req := jsonRequest(t, http.MethodPost, "/api/sessions", models.StartSessionRequest{SubjectUserID: uuid.New()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusLocked, rr.Code)
}

func TestGetSession_OK(t *testing.T) {
	router, _ := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var s models.AuthenticationSession
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	assert.Equal(t, sessionID, s.SessionID)
}

func TestGetSession_Unknown(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetSession_InvalidID(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitBiometric_Success(t *testing.T) {
	router, f := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/biometric", models.BiometricSubmission{
		FaceImage:  []byte("face"),
		IDDocument: []byte("doc"),
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result models.AttemptResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, models.SessionSuccess, result.State)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, models.SessionSuccess, f.recorder.records[0].Audit.Outcome)
}

func TestSubmitBiometric_MissingCapture(t *testing.T) {
	router, _ := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/biometric", models.BiometricSubmission{
		FaceImage: []byte("face"),
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitBiometric_TerminalSessionGone(t *testing.T) {
	router, _ := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	body := models.BiometricSubmission{FaceImage: []byte("face"), IDDocument: []byte("doc")}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/biometric", body))
	require.Equal(t, http.StatusOK, rr.Code)

	// the session completed and left the registry
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/biometric", body))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitFallback_BeforeOffer(t *testing.T) {
	router, _ := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/fallback", models.FallbackSubmission{
		Method:     models.MethodPIN,
		Credential: "4321",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSubmitFallback_PINSuccess(t *testing.T) {
	router, f := newKioskRouter(t)
	sessionID := startKioskSession(t, router)
	exhaustPrimary(t, router, f, sessionID)

	req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/fallback", models.FallbackSubmission{
		Method:     models.MethodPIN,
		Credential: "4321",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result models.AttemptResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
}

func TestSubmitFallback_ValidationFailure(t *testing.T) {
	router, f := newKioskRouter(t)
	sessionID := startKioskSession(t, router)
	exhaustPrimary(t, router, f, sessionID)

	req := jsonRequest(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/fallback", models.FallbackSubmission{
		Method: models.MethodPIN,
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequestOTP_Accepted(t *testing.T) {
	router, f := newKioskRouter(t)
	sessionID := startKioskSession(t, router)
	exhaustPrimary(t, router, f, sessionID)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID.String()+"/otp", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, f.sms.sent, 1)
	assert.Contains(t, f.sms.sent[0], "123456")
}

func TestRequestOTP_BeforeOffer(t *testing.T) {
	router, _ := newKioskRouter(t)
	sessionID := startKioskSession(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID.String()+"/otp", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestListFailedTransactions(t *testing.T) {
	router, f := newKioskRouter(t)
	f.queue.failed = []models.OfflineTransaction{
		{TransactionID: uuid.New(), DeviceID: testDeviceID, SyncStatus: models.SyncFailed},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sync/failed", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var failed []models.OfflineTransaction
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&failed))
	require.Len(t, failed, 1)
	assert.Equal(t, f.queue.failed[0].TransactionID, failed[0].TransactionID)
}

func TestListFailedTransactions_EmptyArray(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/failed", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestRetryFailedTransaction_NoContent(t *testing.T) {
	router, f := newKioskRouter(t)

	transactionID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync/failed/"+transactionID.String()+"/retry", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, f.queue.requeued, 1)
	assert.Equal(t, transactionID, f.queue.requeued[0])
}

func TestRetryFailedTransaction_Unknown(t *testing.T) {
	router, f := newKioskRouter(t)
	f.queue.requeueErr = store.ErrTransactionNotFound

	req := httptest.NewRequest(http.MethodPost, "/api/sync/failed/"+uuid.New().String()+"/retry", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRetryFailedTransaction_InvalidID(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/failed/not-a-uuid/retry", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClearLockout_NoContent(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/lockouts/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestClearLockout_Unknown(t *testing.T) {
	router, f := newKioskRouter(t)
	f.lockouts.clearErr = store.ErrNoLockoutWasFound

	req := httptest.NewRequest(http.MethodDelete, "/api/lockouts/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClearLockout_InvalidID(t *testing.T) {
	router, _ := newKioskRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/lockouts/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWriteSessionError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", session.ErrValidation, http.StatusBadRequest},
		{"session not found", session.ErrSessionNotFound, http.StatusNotFound},
		{"user not found", session.ErrUserNotFound, http.StatusNotFound},
		{"inactive user", session.ErrUserInactive, http.StatusForbidden},
		{"proxy not authorized", proxy.ErrNotAuthorized, http.StatusForbidden},
		{"consent missing", proxy.ErrConsentMissing, http.StatusForbidden},
		{"locked", session.ErrAccountLocked, http.StatusLocked},
		{"expired", session.ErrSessionExpired, http.StatusGone},
		{"completed", session.ErrSessionCompleted, http.StatusConflict},
		{"fallback not offered", session.ErrFallbackNotOffered, http.StatusConflict},
		{"method not enabled", session.ErrMethodNotEnabled, http.StatusConflict},
		{"otp delivery", session.ErrOTPDelivery, http.StatusBadGateway},
		{"capability unavailable", capability.ErrCapabilityUnavailable, http.StatusBadGateway},
		{"capability timeout", capability.ErrCapabilityTimeout, http.StatusBadGateway},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()
			writeSessionError(rr, req, tc.err)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
