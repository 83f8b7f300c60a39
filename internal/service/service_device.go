package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/internal/utils"
	"github.com/gramseva/idverify/models"
)

// deviceService is the concrete implementation of DeviceService.
// Enrolment exchanges the shared provisioning secret for a signed device
// token; every authenticated API call afterwards presents that token.
type deviceService struct {
	deviceRepository store.DeviceRepository

	enrolmentSecret string
	tokenSignKey    string
	tokenIssuer     string
	tokenDuration   time.Duration

	logger *logger.Logger
}

// NewDeviceService constructs a DeviceService wired to the given
// DeviceRepository and populated with security parameters from cfg.
func NewDeviceService(deviceRepository store.DeviceRepository, cfg config.App, logger *logger.Logger) DeviceService {
	return &deviceService{
		deviceRepository: deviceRepository,
		enrolmentSecret:  cfg.EnrolmentSecret,
		tokenSignKey:     cfg.TokenSignKey,
		tokenIssuer:      cfg.TokenIssuer,
		tokenDuration:    cfg.TokenDuration,
		logger:           logger,
	}
}

// Enrol verifies the shared provisioning secret, records the device and
// mints its token. Re-enrolment of a known device refreshes the
// enrolment record and issues a fresh token.
func (s *deviceService) Enrol(ctx context.Context, req models.EnrolDeviceRequest) (models.DeviceToken, error) {
	log := logger.FromContext(ctx)

	if req.DeviceID == "" || req.SharedSecret == "" {
		return models.DeviceToken{}, ErrInvalidDataProvided
	}
	if subtle.ConstantTimeCompare([]byte(req.SharedSecret), []byte(s.enrolmentSecret)) != 1 {
		log.Warn().Str("device", req.DeviceID).Msg("enrolment refused: wrong secret")
		return models.DeviceToken{}, ErrWrongEnrolmentKey
	}

	if err := s.deviceRepository.SaveDevice(ctx, req.DeviceID, time.Now()); err != nil {
		return models.DeviceToken{}, fmt.Errorf("save device enrolment: %w", err)
	}

	token, err := utils.GenerateDeviceToken(s.tokenIssuer, req.DeviceID, s.tokenDuration, s.tokenSignKey)
	if err != nil {
		return models.DeviceToken{}, fmt.Errorf("generate device token: %w", err)
	}

	log.Info().Str("device", req.DeviceID).Msg("device enrolled")
	return token, nil
}

// ParseToken validates a presented token string and returns its claims.
func (s *deviceService) ParseToken(_ context.Context, tokenString string) (models.DeviceToken, error) {
	token, err := utils.ValidateAndParseDeviceToken(tokenString, s.tokenSignKey, s.tokenIssuer)
	if err != nil {
		return models.DeviceToken{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return token, nil
}

// EnrolledAt reports whether deviceID holds an enrolment record and
// when it was created.
func (s *deviceService) EnrolledAt(ctx context.Context, deviceID string) (time.Time, bool, error) {
	return s.deviceRepository.FindDevice(ctx, deviceID)
}
