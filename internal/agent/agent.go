// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

// Package agent assembles the edge-device process: the session engine
// with its capability clients, the encrypted offline queue and its
// drainer, the security monitor, and the kiosk-facing HTTP API. All
// durable agent state lives in the local SQLite store; the central
// server is reached through the adapter and treated as intermittently
// available.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/capability"
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/monitor"
	"github.com/gramseva/idverify/internal/offline"
	"github.com/gramseva/idverify/internal/otp"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/internal/server"
	"github.com/gramseva/idverify/internal/session"
	"github.com/gramseva/idverify/internal/store"
)

// App is the wired edge-device application.
type App struct {
	cfg    *config.AgentConfig
	logger *logger.Logger

	local   *store.LocalDB
	central adapter.CentralClient

	engine  *session.Engine
	manager *offline.Manager
	syncJob *offline.Job
	worker  *monitor.Worker
	kiosk   server.Server
}

// NewApp wires all agent components from cfg. The local store is opened
// and its schema bootstrapped here; nothing starts running until Run.
func NewApp(ctx context.Context, cfg *config.AgentConfig, log *logger.Logger) (*App, error) {
	cipher, err := crypto.NewPayloadCipher(cfg.App.DeviceSecret, cfg.App.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("create payload cipher: %w", err)
	}

	local, err := store.NewConnectSQLite(ctx, cfg.Storage.Local, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	queue := store.NewLocalQueueRepository(local, log)
	journal := store.NewLocalJournalRepository(local, log)
	otpIssues := store.NewLocalOTPRepository(local, log)
	lockouts := store.NewLocalLockoutRepository(local, log)
	cache := store.NewLocalCredentialRepository(local, cipher, log)

	central := adapter.NewCentralClient(adapter.CentralConfig{
		BaseURL: cfg.Adapter.CentralAddress,
		Timeout: cfg.Adapter.RequestTimeout,
	})
	source := NewCredentialSource(central, cache, log)

	matcher := capability.NewHTTPMatcher(capability.MatcherConfig{
		BaseURL: cfg.Adapter.MatcherAddress,
		Timeout: cfg.Auth.CapabilityTimeoutOrDefault(),
	})
	sms := capability.NewHTTPSMS(capability.SMSConfig{
		BaseURL: cfg.Adapter.SMSGatewayAddress,
		Timeout: cfg.Auth.OTPDeliveryTimeout,
	})

	engine := session.NewEngine(cfg.Auth, cfg.App.DeviceID, session.Deps{
		Users:    source,
		Lockouts: lockouts,
		Proxy:    proxy.NewAuthorizer(source, cfg.App.ConsentSignKey, log),
		Journal:  journal,
		Recorder: offline.NewRecorder(central, queue, cipher, log),
		Matcher:  matcher,
		Docs:     matcher,
		SMS:      sms,
		OTP:      otp.NewService(otpIssues, cfg.Auth.OTPExpiry),
		PINs:     crypto.NewPINHasher(),
	}, log)

	manager := offline.NewManager(cfg.Sync, cfg.App.DeviceID, queue, central, log)

	mon := monitor.NewMonitor(cfg.Lockout, journal, lockouts, journal, NewLogNotifier(log), log)

	handler := NewHandler(engine, manager, mon, cfg.App.DeviceID, log)
	kiosk, err := server.NewKioskServer(handler.Init(), cfg.Server, log)
	if err != nil {
		return nil, fmt.Errorf("create kiosk server: %w", err)
	}

	return &App{
		cfg:     cfg,
		logger:  log,
		local:   local,
		central: central,
		engine:  engine,
		manager: manager,
		syncJob: offline.NewJob(manager),
		worker:  monitor.NewWorker(mon),
		kiosk:   kiosk,
	}, nil
}

// Run enrols the device, starts the background jobs and serves the
// kiosk API until a stop signal arrives. Background jobs and the local
// store are torn down before Run returns.
func (a *App) Run(ctx context.Context) {
	a.enrol(ctx)

	a.syncJob.Start(ctx, a.cfg.Sync.Interval)
	a.worker.Start(ctx, a.cfg.Lockout.PollInterval)

	a.kiosk.RunServer()

	a.syncJob.Stop()
	a.worker.Stop()
	if err := a.local.Close(); err != nil {
		a.logger.Err(err).Msg("closing local store")
	}
	a.logger.Info().Msg("agent stopped")
}

// enrol exchanges the shared secret for a device token, retrying
// connectivity blips briefly. A device that cannot enrol still serves
// sessions from its cache and queues completions for sync; delivery
// resumes after the next successful enrolment.
func (a *App) enrol(ctx context.Context) {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := a.central.Enrol(ctx, a.cfg.App.DeviceID, a.cfg.App.EnrolmentSecret)
		if errors.Is(err, adapter.ErrNetworkUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("device enrolment failed, starting offline")
		return
	}

	a.logger.Info().Str("device", a.cfg.App.DeviceID).Msg("device enrolled")
}
