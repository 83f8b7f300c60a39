// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

// Package session implements the authentication session orchestration
// core: the per-session state machine, the session registry, and the
// fallback decision engine. Sessions move
//
//	INITIATED → PRIMARY_ATTEMPT → {PRIMARY_ATTEMPT | FALLBACK_OFFERED}
//	          → FALLBACK_ATTEMPT → {SUCCESS | FAILED | EXPIRED | LOCKED}
//
// with every transition serialized per session ID and every attempt
// journaled durably before its result is returned.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/capability"
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// Engine owns the lifecycle of every authentication session on this
// device. All state lives in the registry; the engine itself is
// stateless beyond configuration and safe for concurrent use.
type Engine struct {
	cfg      config.Auth
	deviceID string

	registry *registry

	users    CredentialSource
	lockouts LockoutChecker
	proxy    ProxyAuthorizer
	journal  AttemptJournal
	recorder CompletionRecorder

	matcher capability.BiometricMatcher
	docs    capability.DocumentValidator
	sms     capability.SMSSender
	otp     OTPService
	pins    crypto.PINHasher

	logger *logger.Logger
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Users    CredentialSource
	Lockouts LockoutChecker
	Proxy    ProxyAuthorizer
	Journal  AttemptJournal
	Recorder CompletionRecorder
	Matcher  capability.BiometricMatcher
	Docs     capability.DocumentValidator
	SMS      capability.SMSSender
	OTP      OTPService
	PINs     crypto.PINHasher
}

// NewEngine constructs an [Engine] for the given device applying cfg.
func NewEngine(cfg config.Auth, deviceID string, deps Deps, logger *logger.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		deviceID: deviceID,
		registry: newRegistry(),
		users:    deps.Users,
		lockouts: deps.Lockouts,
		proxy:    deps.Proxy,
		journal:  deps.Journal,
		recorder: deps.Recorder,
		matcher:  deps.Matcher,
		docs:     deps.Docs,
		sms:      deps.SMS,
		otp:      deps.OTP,
		pins:     deps.PINs,
		logger:   logger,
	}
}

// Start opens a new session for subjectUserID performed by actingUserID
// on deviceID. Proxy sessions (acting ≠ subject) require a consented
// family-member link and carry the granted authorization level; they
// run through the identical lockout checks as primary sessions.
func (e *Engine) Start(ctx context.Context, subjectUserID, actingUserID uuid.UUID, deviceID string) (models.AuthenticationSession, error) {
	log := logger.FromContext(ctx)

	if subjectUserID == uuid.Nil || deviceID == "" {
		return models.AuthenticationSession{}, fmt.Errorf("%w: subject user and device are required", ErrValidation)
	}
	if actingUserID == uuid.Nil {
		actingUserID = subjectUserID
	}

	user, err := e.users.GetUser(ctx, subjectUserID)
	if err != nil {
		log.Err(err).Str("subject", subjectUserID.String()).Msg("subject lookup failed")
		return models.AuthenticationSession{}, fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	if !user.IsActive() {
		return models.AuthenticationSession{}, fmt.Errorf("%w: status %s", ErrUserInactive, user.Status)
	}

	if err := e.refuseIfLocked(ctx, subjectUserID, deviceID); err != nil {
		return models.AuthenticationSession{}, err
	}

	session := &models.AuthenticationSession{
		SessionID:     uuid.New(),
		SubjectUserID: subjectUserID,
		ActingUserID:  actingUserID,
		DeviceID:      deviceID,
		State:         models.SessionInitiated,
		CreatedAt:     time.Now(),
	}
	session.ExpiresAt = session.CreatedAt.Add(e.cfg.SessionTTL)

	if actingUserID != subjectUserID {
		// Proxy access is held to the same security standard: the
		// acting user's lockouts count too.
		if err := e.refuseIfLocked(ctx, actingUserID, deviceID); err != nil {
			return models.AuthenticationSession{}, err
		}

		level, err := e.proxy.Authorize(ctx, actingUserID, subjectUserID)
		if err != nil {
			log.Err(err).
				Str("acting", actingUserID.String()).
				Str("subject", subjectUserID.String()).
				Msg("family proxy authorization refused")
			return models.AuthenticationSession{}, err
		}
		session.ProxyAccess = true
		session.AuthorizationLevel = level
	}

	e.registry.add(session)
	log.Info().
		Str("session", session.SessionID.String()).
		Str("subject", subjectUserID.String()).
		Bool("proxy", session.ProxyAccess).
		Msg("session started")

	return e.mustSnapshot(session.SessionID), nil
}

// Get returns a copy of the session for status display.
func (e *Engine) Get(sessionID uuid.UUID) (models.AuthenticationSession, error) {
	return e.registry.snapshot(sessionID)
}

// SubmitBiometric runs one primary authentication attempt: liveness
// check, face match against the subject's stored template, and ID
// document validation. A match at or above the configured threshold
// with a valid, unexpired document completes the session; anything else
// increments the primary-failure counter and consults the fallback
// decision engine.
func (e *Engine) SubmitBiometric(ctx context.Context, sessionID uuid.UUID, sub models.BiometricSubmission) (models.AttemptResult, error) {
	if len(sub.FaceImage) == 0 || len(sub.IDDocument) == 0 {
		return models.AttemptResult{}, fmt.Errorf("%w: face capture and id document are required", ErrValidation)
	}

	var result models.AttemptResult
	err := e.registry.withSession(sessionID, func(s *models.AuthenticationSession) error {
		now := time.Now()
		if err := e.checkOperational(ctx, s, now); err != nil {
			return err
		}
		if s.State == models.SessionFallbackOffered || s.State == models.SessionFallbackAttempt {
			return fmt.Errorf("%w: primary attempts are exhausted", ErrFallbackNotOffered)
		}
		s.State = models.SessionPrimaryAttempt

		user, err := e.users.GetUser(ctx, s.SubjectUserID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUserNotFound, err)
		}

		outcome, score, reason := e.runPrimary(ctx, user, sub)
		attempt := s.AddAttempt(models.MethodFaceID, outcome, score, reason, now)
		if err := e.journalAttempt(ctx, s, attempt); err != nil {
			return err
		}

		if outcome == models.OutcomeSuccess {
			result = models.AttemptResult{SessionID: s.SessionID, Outcome: outcome}
			return e.succeed(ctx, s, &result, now)
		}

		s.PrimaryFailures++
		decision, offered := Decide(s.PrimaryFailures, e.cfg.MaxPrimaryFailures, user.AuthMethods)
		result = models.AttemptResult{
			SessionID: s.SessionID,
			Outcome:   outcome,
			Decision:  decision,
			Methods:   offered,
		}

		switch decision {
		case models.DecisionOfferFallback:
			s.State = models.SessionFallbackOffered
			s.OfferedMethods = offered
		case models.DecisionFailSession:
			s.State = models.SessionFailed
			if err := e.complete(ctx, s, now); err != nil {
				return err
			}
		}
		result.State = s.State
		return nil
	})
	if err != nil {
		return models.AttemptResult{}, err
	}
	return result, nil
}

// SubmitFallback runs one fallback attempt with a PIN or OTP
// credential. A success grants access semantics identical to a
// biometric success.
func (e *Engine) SubmitFallback(ctx context.Context, sessionID uuid.UUID, method models.AuthMethod, credential string) (models.AttemptResult, error) {
	var result models.AttemptResult
	err := e.registry.withSession(sessionID, func(s *models.AuthenticationSession) error {
		now := time.Now()
		if err := e.checkOperational(ctx, s, now); err != nil {
			return err
		}
		if s.State != models.SessionFallbackOffered && s.State != models.SessionFallbackAttempt {
			return ErrFallbackNotOffered
		}
		if !methodOffered(s.OfferedMethods, method) {
			return fmt.Errorf("%w: %s", ErrMethodNotEnabled, method)
		}
		s.State = models.SessionFallbackAttempt

		user, err := e.users.GetUser(ctx, s.SubjectUserID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUserNotFound, err)
		}

		outcome, reason, err := e.runFallback(ctx, s, user, method, credential)
		if err != nil {
			return err
		}

		attempt := s.AddAttempt(method, outcome, 0, reason, now)
		if err := e.journalAttempt(ctx, s, attempt); err != nil {
			return err
		}

		result = models.AttemptResult{SessionID: s.SessionID, Outcome: outcome, State: s.State}
		if outcome == models.OutcomeSuccess {
			return e.succeed(ctx, s, &result, now)
		}
		return nil
	})
	if err != nil {
		return models.AttemptResult{}, err
	}
	return result, nil
}

// RequestOTP mints a fresh code for the subject and delivers it through
// the SMS gateway. Allowed only once fallback has been offered with OTP
// among the offered methods.
func (e *Engine) RequestOTP(ctx context.Context, sessionID uuid.UUID) error {
	return e.registry.withSession(sessionID, func(s *models.AuthenticationSession) error {
		now := time.Now()
		if err := e.checkOperational(ctx, s, now); err != nil {
			return err
		}
		if s.State != models.SessionFallbackOffered && s.State != models.SessionFallbackAttempt {
			return ErrFallbackNotOffered
		}
		if !methodOffered(s.OfferedMethods, models.MethodOTP) {
			return fmt.Errorf("%w: OTP", ErrMethodNotEnabled)
		}

		user, err := e.users.GetUser(ctx, s.SubjectUserID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUserNotFound, err)
		}

		code, _, err := e.otp.Issue(ctx, s.SubjectUserID)
		if err != nil {
			return fmt.Errorf("issue otp: %w", err)
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.cfg.OTPDeliveryTimeout)
		defer cancel()
		if err := e.sms.Send(sendCtx, user.PhoneNumber, "Your verification code is "+code); err != nil {
			logger.FromContext(ctx).Err(err).Str("session", s.SessionID.String()).Msg("otp delivery failed")
			return fmt.Errorf("%w: %w", ErrOTPDelivery, err)
		}

		return nil
	})
}

// runPrimary executes the external capability calls of a primary
// attempt and maps their results onto an attempt outcome. Capability
// timeouts become TIMEOUT outcomes, never silent hangs.
func (e *Engine) runPrimary(ctx context.Context, user models.User, sub models.BiometricSubmission) (models.AttemptOutcome, float64, string) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CapabilityTimeoutOrDefault())
	defer cancel()

	live, err := e.matcher.CheckLiveness(callCtx, sub.FaceImage)
	if err != nil {
		return timeoutOutcome(err), 0, "liveness check failed: " + err.Error()
	}
	if !live {
		return models.OutcomeFailure, 0, "liveness check rejected capture"
	}

	score, err := e.matcher.Match(callCtx, sub.FaceImage, user.BiometricTemplateRef)
	if err != nil {
		return timeoutOutcome(err), 0, "face match failed: " + err.Error()
	}

	fields, err := e.docs.Extract(callCtx, sub.IDDocument)
	if err != nil {
		return timeoutOutcome(err), score, "document validation failed: " + err.Error()
	}
	if fields.Expired(time.Now()) {
		return models.OutcomeFailure, score, "id document expired"
	}

	if score < e.cfg.BiometricThreshold {
		return models.OutcomeFailure, score, fmt.Sprintf("match score %.3f below threshold %.3f", score, e.cfg.BiometricThreshold)
	}

	return models.OutcomeSuccess, score, ""
}

// runFallback validates a PIN or OTP credential. Attempt-level
// rejections come back as a FAILURE outcome with a reason; only
// malformed input or infrastructure trouble is returned as an error.
func (e *Engine) runFallback(ctx context.Context, s *models.AuthenticationSession, user models.User, method models.AuthMethod, credential string) (models.AttemptOutcome, string, error) {
	switch method {
	case models.MethodPIN:
		if !crypto.ValidPINFormat(credential, e.cfg.PINLength) {
			return "", "", fmt.Errorf("%w: PIN must be %d digits", ErrValidation, e.cfg.PINLength)
		}
		if err := e.pins.Compare(user.PINHash, credential); err != nil {
			return models.OutcomeFailure, "pin mismatch", nil
		}
		return models.OutcomeSuccess, "", nil

	case models.MethodOTP:
		if credential == "" {
			return "", "", fmt.Errorf("%w: OTP code is required", ErrValidation)
		}
		if err := e.otp.Validate(ctx, s.SubjectUserID, credential); err != nil {
			return models.OutcomeFailure, err.Error(), nil
		}
		return models.OutcomeSuccess, "", nil

	default:
		return "", "", fmt.Errorf("%w: %s", ErrMethodNotEnabled, method)
	}
}

// checkOperational enforces the session preconditions shared by every
// operation: not terminal, not past its deadline, and not covered by a
// lockout that appeared after the session started. An operation that
// passes the checks refreshes the deadline, so a slow user working
// through fallback is not cut off mid-session.
func (e *Engine) checkOperational(ctx context.Context, s *models.AuthenticationSession, now time.Time) error {
	if s.State.Terminal() {
		return fmt.Errorf("%w: state %s", ErrSessionCompleted, s.State)
	}

	if s.ExpiredAt(now) {
		s.State = models.SessionExpired
		if err := e.complete(ctx, s, now); err != nil {
			logger.FromContext(ctx).Err(err).Str("session", s.SessionID.String()).Msg("recording expired session failed")
		}
		return ErrSessionExpired
	}

	_, locked, err := e.lockouts.ActiveLockout(ctx, s.SubjectUserID, s.DeviceID)
	if err != nil {
		// The session keeps going: its attempts are still journaled, and
		// the monitor blocks the next Start. A broken lockout cache must
		// not strand a subject mid-authentication, but it has to be
		// visible in the logs.
		logger.FromContext(ctx).Err(err).Str("session", s.SessionID.String()).Msg("mid-session lockout check failed")
	}
	if locked {
		s.State = models.SessionLocked
		if err := e.complete(ctx, s, now); err != nil {
			logger.FromContext(ctx).Err(err).Str("session", s.SessionID.String()).Msg("recording locked session failed")
		}
		return ErrAccountLocked
	}

	s.ExpiresAt = now.Add(e.cfg.SessionTTL)
	return nil
}

func (e *Engine) refuseIfLocked(ctx context.Context, userID uuid.UUID, deviceID string) error {
	record, locked, err := e.lockouts.ActiveLockout(ctx, userID, deviceID)
	if err != nil {
		return fmt.Errorf("lockout check: %w", err)
	}
	if locked {
		return fmt.Errorf("%w: until %s", ErrAccountLocked, record.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// succeed finalizes a successful session. Success is terminal and the
// session becomes immutable afterwards.
func (e *Engine) succeed(ctx context.Context, s *models.AuthenticationSession, result *models.AttemptResult, now time.Time) error {
	s.State = models.SessionSuccess
	result.State = s.State
	return e.complete(ctx, s, now)
}

// complete records a terminal session durably: the completion recorder
// appends to the central audit sink when the device is online and to
// the offline queue otherwise. Either way exactly one audit record per
// session ID results.
func (e *Engine) complete(ctx context.Context, s *models.AuthenticationSession, now time.Time) error {
	completed := now
	s.CompletedAt = &completed

	method := models.MethodFaceID
	if n := len(s.Attempts); n > 0 {
		method = s.Attempts[n-1].Method
	}

	record := models.SessionRecord{
		Session: *s,
		Audit: models.AuditRecord{
			RecordID:           s.SessionID,
			SessionID:          s.SessionID,
			SubjectUserID:      s.SubjectUserID,
			ActingUserID:       s.ActingUserID,
			DeviceID:           s.DeviceID,
			Method:             method,
			Outcome:            s.State,
			ProxyAccess:        s.ProxyAccess,
			AuthorizationLevel: s.AuthorizationLevel,
			RecordedAt:         now,
		},
	}

	if err := e.recorder.RecordCompletion(ctx, record); err != nil {
		return fmt.Errorf("record session completion: %w", err)
	}

	e.registry.remove(s.SessionID)
	e.logger.Info().
		Str("session", s.SessionID.String()).
		Str("state", string(s.State)).
		Msg("session completed")
	return nil
}

func (e *Engine) journalAttempt(ctx context.Context, s *models.AuthenticationSession, attempt models.AuthenticationAttempt) error {
	_, err := e.journal.Append(ctx, models.AttemptEvent{
		SessionID:     s.SessionID,
		SubjectUserID: s.SubjectUserID,
		DeviceID:      s.DeviceID,
		Method:        attempt.Method,
		Outcome:       attempt.Outcome,
		At:            attempt.At,
	})
	if err != nil {
		return fmt.Errorf("journal attempt event: %w", err)
	}
	return nil
}

func (e *Engine) mustSnapshot(id uuid.UUID) models.AuthenticationSession {
	s, _ := e.registry.snapshot(id)
	return s
}

func methodOffered(offered []models.AuthMethod, method models.AuthMethod) bool {
	for _, m := range offered {
		if m == method {
			return true
		}
	}
	return false
}

func timeoutOutcome(err error) models.AttemptOutcome {
	if errors.Is(err, capability.ErrCapabilityTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return models.OutcomeTimeout
	}
	return models.OutcomeFailure
}
