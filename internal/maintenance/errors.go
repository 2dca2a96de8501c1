package maintenance

import (
	"errors"
	"fmt"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrRecordNotFound   = errors.New("maintenance record not found")
	ErrVehicleNotFound  = errors.New("vehicle not found")

	// ErrAlreadyCompleted is returned when completing a record that has
	// reached its terminal state, including losing a concurrent completion
	// race. The caller can safely re-read the record; nothing was written.
	ErrAlreadyCompleted = errors.New("maintenance record already completed")

	// ErrInvalidTransition is returned for any other lifecycle move the
	// state machine rejects.
	ErrInvalidTransition = errors.New("invalid maintenance record transition")

	// ErrOpenRecordExists guards the one-open-record-per-schedule invariant.
	ErrOpenRecordExists = errors.New("an open maintenance record already exists for this schedule")

	ErrScheduleInactive = errors.New("schedule is not active")
)

// ValidationError reports malformed input (negative cost, missing interval
// configuration for the declared schedule type, unknown enum values).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
