package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for lookups outside the known key space (e.g. week 53).
	ErrNotFound = errors.New("not found")
	// ErrStillUnsafe rejects a manual overheat reset while the basking zone is still too hot.
	ErrStillUnsafe = errors.New("overheat reset rejected: temperature still above safe margin")
	// ErrSensorFault marks a sensor feed that has been failing for longer than the staleness window.
	ErrSensorFault = errors.New("sensor fault")
	// ErrActuatorFault marks an actuator that kept failing after bounded retries.
	ErrActuatorFault = errors.New("actuator fault")
	// ErrQueueFull is returned when the control loop has too many pending requests.
	ErrQueueFull = errors.New("control request queue is full")
	// ErrUsernameTaken rejects a sign-up for an operator name that already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// ValidationError reports the offending field of a rejected update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
