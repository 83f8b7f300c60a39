package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gramseva/idverify/models"
)

// GenerateDeviceToken creates a signed HMAC-SHA256 JWT for an enrolled
// edge device.
//
// The token includes the following standard claims:
//   - Issuer    (iss): identifies the central service that issued the token
//   - Subject   (sub): the device ID
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus tokenDuration
//
// All parameters are required. Returns an error if any of them are empty
// or zero.
func GenerateDeviceToken(issuer, deviceID string, tokenDuration time.Duration, signKey string) (models.DeviceToken, error) {
	if issuer == "" || deviceID == "" || tokenDuration == 0 || signKey == "" {
		return models.DeviceToken{}, errors.New("invalid params for generating device token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   deviceID,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.DeviceToken{}, fmt.Errorf("error occurred during signing device token: %w", err)
	}

	return models.DeviceToken{
		Token:            token,
		RegisteredClaims: *claims,
		SignedString:     tokenString,
		DeviceID:         deviceID,
	}, nil
}

// ValidateAndParseDeviceToken validates the given token string and
// extracts its claims.
//
// Validation includes:
//   - Signature verification using the provided sign key
//   - Issuer (iss) claim check against the provided tokenIssuer
//   - Expiration (exp) claim check
//   - Subject (sub) claim presence (the device ID)
func ValidateAndParseDeviceToken(tokenString, tokenSignKey, tokenIssuer string) (models.DeviceToken, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return models.DeviceToken{}, fmt.Errorf("error validating device token: %w", err)
	}

	deviceToken := models.DeviceToken{
		Token:            token,
		RegisteredClaims: *claims,
		SignedString:     tokenString,
	}

	deviceID, err := deviceToken.GetDeviceID()
	if err != nil {
		return models.DeviceToken{}, err
	}
	deviceToken.DeviceID = deviceID

	return deviceToken, nil
}
