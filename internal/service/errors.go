package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongEnrolmentKey   = errors.New("wrong enrolment secret")

	ErrTokenIsExpired = errors.New("token is expired")
	ErrInvalidToken   = errors.New("invalid device token")

	// ErrPayloadUnreadable marks a synced transaction whose payload fails
	// decryption or decoding; it is reported per transaction, never as a
	// batch failure.
	ErrPayloadUnreadable = errors.New("transaction payload unreadable")
)
