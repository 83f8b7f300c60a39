// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gramseva/idverify/internal/capability"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/monitor"
	"github.com/gramseva/idverify/internal/offline"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/internal/session"
	"github.com/gramseva/idverify/models"
)

// Handler is the kiosk-facing HTTP API: the session operations the UI
// layer drives plus the operator endpoints for failed transactions and
// lockouts. The API binds to the device loopback; there is no auth
// layer because nothing off the kiosk can reach it.
type Handler struct {
	engine   *session.Engine
	sync     *offline.Manager
	monitor  *monitor.Monitor
	deviceID string
	validate *validator.Validate

	logger *logger.Logger
}

// NewHandler builds the kiosk API handler.
func NewHandler(engine *session.Engine, sync *offline.Manager, monitor *monitor.Monitor, deviceID string, logger *logger.Logger) *Handler {
	logger.Info().Msg("kiosk handler created")
	return &Handler{
		engine:   engine,
		sync:     sync,
		monitor:  monitor,
		deviceID: deviceID,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Get("/api/health", h.health)

	router.Post("/api/sessions", h.startSession)
	router.Get("/api/sessions/{sessionID}", h.getSession)
	router.Post("/api/sessions/{sessionID}/biometric", h.submitBiometric)
	router.Post("/api/sessions/{sessionID}/fallback", h.submitFallback)
	router.Post("/api/sessions/{sessionID}/otp", h.requestOTP)

	router.Get("/api/sync/failed", h.listFailedTransactions)
	router.Post("/api/sync/failed/{transactionID}/retry", h.retryFailedTransaction)
	router.Delete("/api/lockouts/{lockoutID}", h.clearLockout)

	return router
}

func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(ctx))

		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()
		lw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(lw, r)

		log.Info().
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Send()
	})
}

// responseWriter intercepts WriteHeader so the logging middleware can
// observe the status code. WriteHeader is forwarded exactly once.
type responseWriter struct {
	http.ResponseWriter

	status int
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromRequest(r).Err(err).Msg("error encoding response body")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// writeSessionError translates the orchestration core's error taxonomy
// to kiosk-facing status codes.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrUserInactive),
		errors.Is(err, proxy.ErrNotAuthorized),
		errors.Is(err, proxy.ErrConsentMissing):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrAccountLocked):
		writeError(w, r, http.StatusLocked, err.Error())
	case errors.Is(err, session.ErrSessionExpired):
		writeError(w, r, http.StatusGone, err.Error())
	case errors.Is(err, session.ErrSessionCompleted),
		errors.Is(err, session.ErrFallbackNotOffered),
		errors.Is(err, session.ErrMethodNotEnabled):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrOTPDelivery),
		errors.Is(err, capability.ErrCapabilityUnavailable),
		errors.Is(err, capability.ErrCapabilityTimeout):
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		logger.FromRequest(r).Err(err).Msg("session operation failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
