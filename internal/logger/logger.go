// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

// Package logger wraps zerolog.Logger with role-tagged constructors and
// context helpers shared by the central server and the edge agent.
//
// Logger embeds zerolog.Logger, so the whole zerolog API (Debug, Info,
// Err, ...) is available on *Logger. Request-scoped instances travel in
// the context and come back out through FromContext or FromRequest.
package logger

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger embeds zerolog.Logger so helper methods can be added without
// touching the upstream type.
type Logger struct {
	zerolog.Logger
}

// configureGlobals applies the process-wide zerolog settings: Debug
// level everywhere and a "func" caller field carrying the qualified
// function name rather than file:line.
func configureGlobals() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerFieldName = "func"
	zerolog.CallerMarshalFunc = func(pc uintptr, _ string, _ int) string {
		return runtime.FuncForPC(pc).Name()
	}
}

// NewLogger builds a JSON stdout logger tagged with the given role
// ("server", "agent", "monitor"), a timestamp and the caller field.
// The role tag is what log pipelines filter on when several components
// share one stream.
func NewLogger(role string) *Logger {
	configureGlobals()

	logger := zerolog.New(os.Stdout).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// NewAgentLogger builds the edge-agent logger writing to agent.log next
// to the executable. Kiosk deployments have no attached console, so the
// file is the only durable diagnostic channel in the field. Falls back
// to stdout if the file cannot be opened.
func NewAgentLogger(role string) *Logger {
	configureGlobals()

	execPath, _ := os.Executable()
	logPath := filepath.Join(filepath.Dir(execPath), "agent.log")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logFile = os.Stdout
	}

	logger := zerolog.New(logFile).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// Nop returns a *Logger that discards everything. For tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a *Logger inheriting the receiver's fields.
// The child can be enriched (trace ID, session ID) without mutating the
// parent.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// FromRequest returns the request-scoped *Logger attached to r's
// context by the logging middleware.
func FromRequest(r *http.Request) *Logger {
	return &Logger{*log.Ctx(r.Context())}
}

// FromContext returns the *Logger stored in ctx. When nothing was
// attached, zerolog hands back its global logger, so the result is
// never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
