// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// idverify server and edge agent. It aggregates all sub-configurations and
// is populated by merging values from environment variables, command-line
// flags, an optional JSON file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as token parameters and
	// the device enrolment secret.
	App App `envPrefix:"APP_"`

	// Auth holds the authentication policy applied by the session state
	// machine and fallback decision engine.
	Auth Auth `envPrefix:"AUTH_"`

	// Lockout holds the security monitor policy.
	Lockout Lockout `envPrefix:"LOCKOUT_"`

	// Sync holds the offline queue drainer policy.
	Sync Sync `envPrefix:"SYNC_"`

	// Storage holds configuration for all persistence backends: the
	// central PostgreSQL database and the agent's local SQLite store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the central
	// HTTP server and the agent's kiosk-facing API.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the agent's outbound endpoints: the central server
	// and the external capability services.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values that control token
// lifecycle and device enrolment.
type App struct {
	// TokenSignKey is the secret key used to sign and verify device JWT
	// tokens. Must be kept confidential.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim embedded in every issued device
	// token and validated on every authenticated request.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration specifies how long a device token remains valid
	// after issuance (e.g. "24h").
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// EnrolmentSecret is the shared secret a device must present to
	// enrol and obtain its first token.
	// Env: APP_ENROLMENT_SECRET
	EnrolmentSecret string `env:"ENROLMENT_SECRET"`

	// ConsentSignKey is the HMAC key consent proofs are signed and
	// verified with during family-member registration.
	// Env: APP_CONSENT_SIGN_KEY
	ConsentSignKey string `env:"CONSENT_SIGN_KEY"`

	// DeviceID identifies this edge device in sessions, queue entries
	// and audit records. Agent-only.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`

	// DeviceSecret is the provisioning secret the payload encryption key
	// is derived from, together with DeviceID. The central receive path
	// derives the same key per device to open synced payloads.
	// Env: APP_DEVICE_SECRET
	DeviceSecret string `env:"DEVICE_SECRET"`
}

// Auth is the authentication policy. Defaults mirror the field-deployed
// values: 15-minute sessions, fallback after the 3rd primary failure,
// 0.95 match threshold, 5-minute single-use OTP codes delivered within
// 30 seconds, 6-digit PINs.
type Auth struct {
	SessionTTL          time.Duration `env:"SESSION_TTL"`
	MaxPrimaryFailures  int           `env:"MAX_PRIMARY_FAILURES"`
	BiometricThreshold  float64       `env:"BIOMETRIC_THRESHOLD"`
	OTPExpiry           time.Duration `env:"OTP_EXPIRY"`
	OTPDeliveryTimeout  time.Duration `env:"OTP_DELIVERY_TIMEOUT"`
	PINLength           int           `env:"PIN_LENGTH"`
	CapabilityTimeout   time.Duration `env:"CAPABILITY_TIMEOUT"`
}

// Lockout is the security monitor policy: FailureThreshold failures
// across all methods for one (user, device) scope inside Window create a
// lockout lasting Duration. The threshold is distinct from the in-session
// fallback trigger, which governs escalation rather than lockout.
type Lockout struct {
	FailureThreshold int           `env:"FAILURE_THRESHOLD"`
	Window           time.Duration `env:"WINDOW"`
	Duration         time.Duration `env:"DURATION"`
	PollInterval     time.Duration `env:"POLL_INTERVAL"`
}

// Sync is the offline queue drainer policy. Delivery is retried with
// exponential backoff starting at BaseDelay and capped at MaxDelay; a
// transaction exceeding MaxRetries is marked FAILED and surfaced for
// manual reconciliation.
type Sync struct {
	Interval   time.Duration `env:"INTERVAL"`
	MaxRetries int           `env:"MAX_RETRIES"`
	BaseDelay  time.Duration `env:"BASE_DELAY"`
	MaxDelay   time.Duration `env:"MAX_DELAY"`
	BatchSize  int           `env:"BATCH_SIZE"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the central PostgreSQL connection settings.
	DB DB `envPrefix:"DB_"`

	// Local holds the agent's SQLite settings.
	Local LocalDB `envPrefix:"LOCAL_"`
}

// DB contains the central database connection settings.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// LocalDB contains the agent's local database settings.
type LocalDB struct {
	// DSN is the SQLite file path (":memory:" for tests).
	// Env: STORAGE_LOCAL_DSN
	DSN string `env:"DSN"`
}

// Server holds inbound network settings.
type Server struct {
	// HTTPAddress is the central server listen address.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// KioskAddress is the agent's kiosk-facing API listen address.
	// Env: SERVER_KIOSK_ADDRESS
	KioskAddress string `env:"KIOSK_ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single
	// inbound request before the server cancels it.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RateLimitRPS caps requests per second on the central auth
	// endpoints (tollbooth).
	// Env: SERVER_RATE_LIMIT_RPS
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS"`
}

// Adapter holds the agent's outbound endpoints.
type Adapter struct {
	// CentralAddress is the base URL of the central server.
	// Env: ADAPTER_CENTRAL_ADDRESS
	CentralAddress string `env:"CENTRAL_ADDRESS"`

	// MatcherAddress is the base URL of the biometric matcher service.
	// Env: ADAPTER_MATCHER_ADDRESS
	MatcherAddress string `env:"MATCHER_ADDRESS"`

	// SMSGatewayAddress is the base URL of the SMS/OTP delivery gateway.
	// Env: ADAPTER_SMS_GATEWAY_ADDRESS
	SMSGatewayAddress string `env:"SMS_GATEWAY_ADDRESS"`

	// RequestTimeout bounds every outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (first non-zero value wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in policy defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
