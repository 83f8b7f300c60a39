package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer  = "idverify-central"
	testSignKey = "jwt-test-sign-key"
)

func TestGenerateDeviceToken_RoundTrip(t *testing.T) {
	token, err := GenerateDeviceToken(testIssuer, "kiosk-001", time.Hour, testSignKey)
	require.NoError(t, err)
	require.NotEmpty(t, token.SignedString)

	parsed, err := ValidateAndParseDeviceToken(token.SignedString, testSignKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "kiosk-001", parsed.DeviceID)
}

func TestGenerateDeviceToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		deviceID string
		duration time.Duration
		signKey  string
	}{
		{"empty issuer", "", "kiosk-001", time.Hour, testSignKey},
		{"empty device", testIssuer, "", time.Hour, testSignKey},
		{"zero duration", testIssuer, "kiosk-001", 0, testSignKey},
		{"empty key", testIssuer, "kiosk-001", time.Hour, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateDeviceToken(tc.issuer, tc.deviceID, tc.duration, tc.signKey)
			assert.Error(t, err)
		})
	}
}

func TestValidateAndParseDeviceToken_WrongKey(t *testing.T) {
	token, err := GenerateDeviceToken(testIssuer, "kiosk-001", time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseDeviceToken(token.SignedString, "wrong-key", testIssuer)
	assert.Error(t, err)
}

func TestValidateAndParseDeviceToken_WrongIssuer(t *testing.T) {
	token, err := GenerateDeviceToken("someone-else", "kiosk-001", time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseDeviceToken(token.SignedString, testSignKey, testIssuer)
	assert.Error(t, err)
}

func TestValidateAndParseDeviceToken_Expired(t *testing.T) {
	token, err := GenerateDeviceToken(testIssuer, "kiosk-001", -time.Minute, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseDeviceToken(token.SignedString, testSignKey, testIssuer)
	assert.Error(t, err)
}

func TestValidateAndParseDeviceToken_Garbage(t *testing.T) {
	_, err := ValidateAndParseDeviceToken("not.a.token", testSignKey, testIssuer)
	assert.Error(t, err)
}
