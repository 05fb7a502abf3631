package engine

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks intake log read/write failures. The boundary
// layer decides between retry and fail-fast; status computation may proceed
// past it only when the caller opted into degraded mode.
var ErrStorageUnavailable = errors.New("intake log unavailable")

// ValidationError reports a confirm/snooze call with an unknown medication,
// an unknown time, or a malformed time string. It is raised before any
// durable state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
