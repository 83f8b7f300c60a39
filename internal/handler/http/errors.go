// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package http

import "errors"

// Failures the device-token middleware can hit while reading the
// "Authorization" header. All three end in 401; they are distinct so
// the log line names the exact defect in the kiosk's request.
var (
	// ErrEmptyAuthorizationHeader: no "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader: header present but not of the
	// form "<scheme> <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken: scheme present, token value blank.
	ErrEmptyToken = errors.New("empty token in `Authorization` header")
)
