package store

import (
	"github.com/gramseva/idverify/internal/logger"
)

// Repositories aggregates the central server's data-access layer.
type Repositories struct {
	UserRepository    UserRepository
	FamilyRepository  FamilyRepository
	AuditRepository   AuditRepository
	LockoutRepository LockoutRepository
	SyncRepository    SyncRepository
	DeviceRepository  DeviceRepository
}

// NewRepositories wires every central repository over db.
func NewRepositories(db *DB, logger *logger.Logger) *Repositories {
	return &Repositories{
		UserRepository:    NewUserRepository(db, logger),
		FamilyRepository:  NewFamilyRepository(db, logger),
		AuditRepository:   NewAuditRepository(db, logger),
		LockoutRepository: NewLockoutRepository(db, logger),
		SyncRepository:    NewSyncRepository(db, logger),
		DeviceRepository:  NewDeviceRepository(db, logger),
	}
}
