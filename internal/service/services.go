package service

import (
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/internal/store"
)

type Services struct {
	CredentialService CredentialService
	FamilyService     FamilyService
	AuditService      AuditService
	SyncService       SyncService
	DeviceService     DeviceService
}

func NewServices(repos *store.Repositories, cfg *config.ServerConfig, logger *logger.Logger) *Services {
	authorizer := proxy.NewAuthorizer(repos.FamilyRepository, cfg.App.ConsentSignKey, logger)
	auditService := NewAuditService(repos.AuditRepository, repos.UserRepository, logger)

	cipherFor := func(deviceID string) (crypto.PayloadCipher, error) {
		return crypto.NewPayloadCipher(cfg.App.DeviceSecret, deviceID)
	}

	return &Services{
		CredentialService: NewCredentialService(repos.UserRepository, crypto.NewPINHasher(), cfg.Auth.PINLength, logger),
		FamilyService:     NewFamilyService(authorizer, repos.FamilyRepository, logger),
		AuditService:      auditService,
		SyncService:       NewSyncService(repos.SyncRepository, auditService, cipherFor, logger),
		DeviceService:     NewDeviceService(repos.DeviceRepository, cfg.App, logger),
	}
}
