package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramseva/idverify/internal/service"
	"github.com/gramseva/idverify/internal/utils"
	"github.com/gramseva/idverify/models"
)

func newAuthHandler(t *testing.T, services *service.Services) (http.Handler, *string) {
	t.Helper()

	var seenDeviceID string
	h := newTestHandler(services)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenDeviceID, _ = r.Context().Value(utils.DeviceIDCtxKey).(string)
		w.WriteHeader(http.StatusOK)
	})
	return h.auth(next), &seenDeviceID
}

func TestAuth_ValidTokenPassesDeviceID(t *testing.T) {
	handler, seenDeviceID := newAuthHandler(t, testServices())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", validAuthHeader())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "kiosk-001", *seenDeviceID)
}

func TestAuth_MissingHeader(t *testing.T) {
	handler, _ := newAuthHandler(t, testServices())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler, _ := newAuthHandler(t, testServices())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	services := testServices()
	services.DeviceService = &mockDeviceSvc{
		parseFn: func(_ context.Context, _ string) (models.DeviceToken, error) {
			return models.DeviceToken{}, service.ErrInvalidToken
		},
	}
	handler, _ := newAuthHandler(t, services)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", validAuthHeader())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	services := testServices()
	services.DeviceService = &mockDeviceSvc{
		parseFn: func(_ context.Context, _ string) (models.DeviceToken, error) {
			return models.DeviceToken{}, service.ErrTokenIsExpired
		},
	}
	handler, _ := newAuthHandler(t, services)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", validAuthHeader())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), service.ErrTokenIsExpired.Error())
}

func TestGetTokenFromAuthHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"missing token", "Bearer", "", ErrInvalidAuthorizationHeader},
		{"empty token", "Bearer ", "", ErrEmptyToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := getTokenFromAuthHeader(tc.header)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
