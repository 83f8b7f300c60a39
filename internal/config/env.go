// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the process environment. The mapping is
// declared on [StructuredConfig] through `env` and `envPrefix` tags,
// so every section (AUTH_*, LOCKOUT_*, SYNC_*, ...) resolves its own
// variables.
func parseEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
