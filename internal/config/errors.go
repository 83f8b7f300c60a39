package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAuthConfigs indicates an unusable authentication policy
	// (for example, a zero fallback threshold or an out-of-range
	// biometric threshold).
	ErrInvalidAuthConfigs = errors.New("invalid authentication policy configuration")
	// ErrInvalidLockoutConfigs indicates an unusable lockout policy.
	ErrInvalidLockoutConfigs = errors.New("invalid lockout policy configuration")
	// ErrInvalidSyncConfigs indicates invalid offline sync settings
	// (for example, a max delay below the base delay).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN or an in-memory agent DSN, which would
	// lose the offline queue on restart).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidServerConfigs indicates invalid inbound server settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidAdapterConfigs indicates invalid outbound adapter settings
	// (for example, missing central address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidAppConfigs indicates missing application-level secrets or
	// identity (token sign key, enrolment secret, device ID/secret).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
)
