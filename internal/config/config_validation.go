// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants shared by both binaries before it is used at startup.
//
// Cross-cutting policy invariants live here; binary-specific requirements
// (DSNs, addresses, secrets) are checked on the per-binary views so the
// server does not demand agent settings and vice versa.
func (cfg *StructuredConfig) validate() error {
	if cfg.Auth.MaxPrimaryFailures <= 0 || cfg.Auth.SessionTTL <= 0 {
		return ErrInvalidAuthConfigs
	}

	if cfg.Auth.BiometricThreshold <= 0 || cfg.Auth.BiometricThreshold > 1 {
		return ErrInvalidAuthConfigs
	}

	if cfg.Lockout.FailureThreshold <= 0 || cfg.Lockout.Window <= 0 || cfg.Lockout.Duration <= 0 {
		return ErrInvalidLockoutConfigs
	}

	if cfg.Sync.MaxRetries <= 0 || cfg.Sync.BaseDelay <= 0 || cfg.Sync.MaxDelay < cfg.Sync.BaseDelay {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout == 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" || cfg.App.EnrolmentSecret == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}

func (cfg *AgentConfig) validate() error {
	if cfg.Storage.Local.DSN == "" || strings.Contains(cfg.Storage.Local.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.CentralAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Interval == 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.App.DeviceID == "" || cfg.App.DeviceSecret == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
