package adapter

import "errors"

var (
	// ErrNetworkUnavailable means the central server could not be
	// reached. It selects the offline path at session completion and is
	// never surfaced to the user as a failure.
	ErrNetworkUnavailable = errors.New("central server unavailable")
	// ErrUnauthorized means the device token was rejected; the agent
	// must re-enrol.
	ErrUnauthorized = errors.New("device unauthorized")
	// ErrRejected means the server refused the payload permanently
	// (4xx other than auth); retrying the same payload cannot succeed.
	ErrRejected = errors.New("request rejected by central server")
)
