// Package wmerrors defines the typed error kinds the core reacts to by a
// fixed policy rather than ad hoc handling.
package wmerrors

import "errors"

// Sentinel errors for the fixed-policy error kinds.
var (
	ErrPermissionDenied       = errors.New("accessibility port refused operation")
	ErrWindowGone             = errors.New("window no longer exists")
	ErrAttributeMissing       = errors.New("window attribute unavailable")
	ErrEventSubscriptionFailed = errors.New("event subscription failed")
	ErrInvalidConfig          = errors.New("invalid configuration value")
	ErrLastWorkspace          = errors.New("cannot remove the only workspace on a monitor")
	ErrUnknownWorkspace       = errors.New("workspace not found")
	ErrUnknownMonitor         = errors.New("monitor not found")
)

// PortError wraps an error returned by the accessibility port with the kind
// of failure it represents, so callers can branch with errors.As instead of
// string matching.
type PortError struct {
	Kind error
	Err  error
}

func (e *PortError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *PortError) Unwrap() error {
	return e.Kind
}

// Gone reports whether err indicates the target window is gone, whether it
// arrives as a bare sentinel or wrapped in a PortError.
func Gone(err error) bool {
	return errors.Is(err, ErrWindowGone)
}
