package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

type configBuilder struct {
	configs []*StructuredConfig
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*StructuredConfig, 0, 4),
	}
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(StructuredConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &StructuredConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags() *configBuilder {
	flags := ParseFlags()

	b.configs = append(b.configs, flags)
	return b
}

func (b *configBuilder) withJSON() *configBuilder {
	var jsonPath string
	isJSONSpecified := false

	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			isJSONSpecified = true
			jsonPath = cfg.JSONFilePath
		}
	}

	if isJSONSpecified {
		jsonCfg, err := parseJSON(jsonPath)
		if err != nil {
			b.err = errors.Join(b.err, err)
			return b
		}
		b.configs = append(b.configs, jsonCfg)
	}

	return b
}

// withDefaults appends the built-in policy defaults as the lowest-priority
// layer. Values mirror the field deployment: 15-minute sessions, fallback
// after the 3rd primary failure, 0.95 match threshold, 5-minute single-use
// OTP delivered within 30 seconds, 5 failures in 15 minutes lock for 30
// minutes, 5 sync retries with 2s..5m backoff.
func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, &StructuredConfig{
		App: App{
			TokenIssuer:   "idverify-central",
			TokenDuration: 24 * time.Hour,
		},
		Auth: Auth{
			SessionTTL:         15 * time.Minute,
			MaxPrimaryFailures: 3,
			BiometricThreshold: 0.95,
			OTPExpiry:          5 * time.Minute,
			OTPDeliveryTimeout: 30 * time.Second,
			PINLength:          6,
			CapabilityTimeout:  10 * time.Second,
		},
		Lockout: Lockout{
			FailureThreshold: 5,
			Window:           15 * time.Minute,
			Duration:         30 * time.Minute,
			PollInterval:     5 * time.Second,
		},
		Sync: Sync{
			Interval:   time.Minute,
			MaxRetries: 5,
			BaseDelay:  2 * time.Second,
			MaxDelay:   5 * time.Minute,
			BatchSize:  50,
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			KioskAddress:   "localhost:8090",
			RequestTimeout: 30 * time.Second,
			RateLimitRPS:   10,
		},
		Adapter: Adapter{
			RequestTimeout: 15 * time.Second,
		},
	})
	return b
}
