package utils

// ctxKey is the private type for context keys defined by this package,
// preventing collisions with keys defined elsewhere.
type ctxKey int

const (
	// DeviceIDCtxKey carries the authenticated device's identifier,
	// attached by the auth middleware after token validation.
	DeviceIDCtxKey ctxKey = iota
)
