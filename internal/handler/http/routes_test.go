package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/service"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// ---- Mock: CredentialService ----

type mockCredentialSvc struct {
	registerFn func(ctx context.Context, req models.RegisterUserRequest) (models.User, error)
	getFn      func(ctx context.Context, userID uuid.UUID) (models.User, error)
	statusFn   func(ctx context.Context, userID uuid.UUID, status models.UserStatus) error
}

func (m *mockCredentialSvc) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return models.User{UserID: uuid.New(), FirstName: req.FirstName, Status: models.UserStatusActive}, nil
}

func (m *mockCredentialSvc) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return models.User{UserID: userID, Status: models.UserStatusActive}, nil
}

func (m *mockCredentialSvc) SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	if m.statusFn != nil {
		return m.statusFn(ctx, userID, status)
	}
	return nil
}

// ---- Mock: FamilyService ----

type mockFamilySvc struct {
	registerFn func(ctx context.Context, req models.RegisterFamilyMemberRequest) (models.FamilyMember, error)
	getLinkFn  func(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
	revokeFn   func(ctx context.Context, memberUserID, primaryUserID uuid.UUID) error
	listFn     func(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error)
}

func (m *mockFamilySvc) Register(ctx context.Context, req models.RegisterFamilyMemberRequest) (models.FamilyMember, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return models.FamilyMember{FamilyMemberID: uuid.New()}, nil
}

func (m *mockFamilySvc) GetLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	if m.getLinkFn != nil {
		return m.getLinkFn(ctx, memberUserID, primaryUserID)
	}
	return models.FamilyMember{MemberUserID: memberUserID, PrimaryUserID: primaryUserID}, nil
}

func (m *mockFamilySvc) Revoke(ctx context.Context, memberUserID, primaryUserID uuid.UUID) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, memberUserID, primaryUserID)
	}
	return nil
}

func (m *mockFamilySvc) ListByPrimary(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error) {
	if m.listFn != nil {
		return m.listFn(ctx, primaryUserID)
	}
	return nil, nil
}

// ---- Mock: AuditService ----

type mockAuditSvc struct {
	appendFn func(ctx context.Context, record models.SessionRecord) error
	listFn   func(ctx context.Context, filter store.AuditFilter) ([]models.AuditRecord, error)
}

func (m *mockAuditSvc) AppendRecord(ctx context.Context, record models.SessionRecord) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, record)
	}
	return nil
}

func (m *mockAuditSvc) ListRecords(ctx context.Context, filter store.AuditFilter) ([]models.AuditRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

// ---- Mock: SyncService ----

type mockSyncSvc struct {
	receiveFn func(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error)
}

func (m *mockSyncSvc) ReceiveBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
	if m.receiveFn != nil {
		return m.receiveFn(ctx, batch)
	}
	return models.SyncBatchResponse{}, nil
}

// ---- Mock: DeviceService ----

type mockDeviceSvc struct {
	enrolFn func(ctx context.Context, req models.EnrolDeviceRequest) (models.DeviceToken, error)
	parseFn func(ctx context.Context, tokenString string) (models.DeviceToken, error)
}

func (m *mockDeviceSvc) Enrol(ctx context.Context, req models.EnrolDeviceRequest) (models.DeviceToken, error) {
	if m.enrolFn != nil {
		return m.enrolFn(ctx, req)
	}
	return models.DeviceToken{
		SignedString: "stub-token",
		DeviceID:     req.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, nil
}

func (m *mockDeviceSvc) ParseToken(ctx context.Context, tokenString string) (models.DeviceToken, error) {
	if m.parseFn != nil {
		return m.parseFn(ctx, tokenString)
	}
	return models.DeviceToken{DeviceID: "kiosk-001"}, nil
}

func (m *mockDeviceSvc) EnrolledAt(_ context.Context, _ string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

// ---- Helpers ----

func testServices() *service.Services {
	return &service.Services{
		CredentialService: &mockCredentialSvc{},
		FamilyService:     &mockFamilySvc{},
		AuditService:      &mockAuditSvc{},
		SyncService:       &mockSyncSvc{},
		DeviceService:     &mockDeviceSvc{},
	}
}

func newTestHandler(services *service.Services) *Handler {
	return NewHandler(services, config.Server{}, logger.Nop())
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestHandler(testServices()).Init()
}

func validAuthHeader() string { return "Bearer stub-token" }

// ---- NewHandler ----

func TestNewHandler_ReturnsNonNil(t *testing.T) {
	h := newTestHandler(testServices())

	require.NotNil(t, h)
	require.NotNil(t, h.validate)
}

// ---- Public routes: reachable without auth ----

func TestInit_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/devices/enrol"},
		{http.MethodGet, "/api/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.NotEqual(t, http.StatusNotFound, rr.Code,
				"route should be registered: %s %s", tt.method, tt.path)
			assert.NotEqual(t, http.StatusUnauthorized, rr.Code,
				"route should not require auth: %s %s", tt.method, tt.path)
		})
	}
}

// ---- Protected routes ----

var protectedRoutes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/api/users"},
	{http.MethodGet, "/api/users/" + uuid.Nil.String()},
	{http.MethodPatch, "/api/users/" + uuid.Nil.String() + "/status"},
	{http.MethodPost, "/api/family/register"},
	{http.MethodGet, "/api/family/link"},
	{http.MethodPost, "/api/family/revoke"},
	{http.MethodGet, "/api/family/primary/" + uuid.Nil.String()},
	{http.MethodPost, "/api/audit/records"},
	{http.MethodGet, "/api/audit/records"},
	{http.MethodPost, "/api/sync/transactions"},
}

func TestInit_ProtectedRoutes_RequireAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, tt := range protectedRoutes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code,
				"route should require auth: %s %s", tt.method, tt.path)
		})
	}
}

func TestInit_ProtectedRoutes_Registered(t *testing.T) {
	router := newTestRouter(t)

	for _, tt := range protectedRoutes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", validAuthHeader())
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.NotEqual(t, http.StatusNotFound, rr.Code,
				"route should be registered: %s %s", tt.method, tt.path)
			assert.NotEqual(t, http.StatusMethodNotAllowed, rr.Code,
				"method should be allowed: %s %s", tt.method, tt.path)
		})
	}
}

func TestInit_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
