package tracker

import "errors"

var (
	ErrNotFound     = errors.New("hunt not found")
	ErrNotConfirmed = errors.New("delete not confirmed")
	ErrInvalidDelta = errors.New("delta must be +1 or -1")
)

// ValidationError is a user-facing rejection raised before any remote call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
