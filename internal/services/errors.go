package services

import (
	"errors"
	"time"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
)

// ValidationError is a bad input caught before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Clock decides what "now" and "today" are.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func SystemClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) Today() dates.Date {
	return dates.Today(c.Now(), c.Location)
}
