package config

import (
	"fmt"
	"time"
)

// ServerConfig is the central-server view of the merged configuration.
type ServerConfig struct {
	// App contains token lifecycle and enrolment settings.
	App App
	// Auth contains the authentication policy (needed to validate synced
	// sessions against the same thresholds the edge applied).
	Auth Auth
	// Storage contains the PostgreSQL settings.
	Storage Storage
	// Server contains listen address, timeouts and rate limiting.
	Server Server
}

// GetServerConfig builds and validates the central-server config view from
// the merged structured configuration.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		App:     cfg.App,
		Auth:    cfg.Auth,
		Storage: cfg.Storage,
		Server:  cfg.Server,
	}

	return serverCfg, serverCfg.validate()
}

// AgentConfig is the edge-agent view of the merged configuration.
type AgentConfig struct {
	// App contains device identity and local secrets.
	App App
	// Auth contains the session policy applied by the state machine.
	Auth Auth
	// Lockout contains the security monitor policy.
	Lockout Lockout
	// Sync contains the offline queue drainer policy.
	Sync Sync
	// Storage contains the local SQLite settings.
	Storage Storage
	// Server contains the kiosk API listen address.
	Server Server
	// Adapter contains outbound endpoints and timeouts.
	Adapter Adapter
}

// GetAgentConfig builds and validates the edge-agent config view from the
// merged structured configuration.
func GetAgentConfig() (*AgentConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	agentCfg := &AgentConfig{
		App:     cfg.App,
		Auth:    cfg.Auth,
		Lockout: cfg.Lockout,
		Sync:    cfg.Sync,
		Storage: cfg.Storage,
		Server:  cfg.Server,
		Adapter: cfg.Adapter,
	}

	return agentCfg, agentCfg.validate()
}

// CapabilityTimeoutOrDefault returns the configured capability timeout,
// falling back to 10 seconds when unset. Kept separate from validation so
// zero-value test configs still behave sensibly.
func (a Auth) CapabilityTimeoutOrDefault() time.Duration {
	if a.CapabilityTimeout <= 0 {
		return 10 * time.Second
	}
	return a.CapabilityTimeout
}
