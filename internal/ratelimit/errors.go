package ratelimit

import "errors"

// ErrBackendUnavailable is returned when the distributed limiter backend
// cannot be reached.
var ErrBackendUnavailable = errors.New("rate limit backend unavailable")
