package models

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DeviceToken wraps the JWT issued to an enrolled edge device. The sync
// and credential APIs require it on every call.
//
// SignedString holds the compact serialized form of the token
// (header.payload.signature) ready to be transmitted in HTTP headers.
type DeviceToken struct {
	// Token is the underlying JWT used for signing and claim inspection.
	// Excluded from JSON serialization because only the compact string
	// form is meaningful outside the server process.
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// DeviceID is cached from the "sub" claim after parsing.
	DeviceID string `json:"-"`
}

// GetDeviceID extracts the device identifier from the token's "sub"
// (subject) claim.
func (t *DeviceToken) GetDeviceID() (string, error) {
	deviceID, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting DeviceID from token: %w", err)
	}
	if deviceID == "" {
		return "", fmt.Errorf("empty subject claim in device token")
	}

	return deviceID, nil
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *DeviceToken) String() string {
	return t.SignedString
}
