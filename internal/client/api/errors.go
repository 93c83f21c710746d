package api

import "errors"

var (
	// ErrUnavailable covers everything transient: connection failures,
	// timeouts, and 5xx responses. Callers may retry the same input.
	ErrUnavailable = errors.New("server unavailable")
)
