package domain

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every validation failure (errors.Is).
var ErrInvalid = errors.New("invalid input")

// ValidationError is a record that cannot be stored as given.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func (e ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalidf(format string, args ...any) error {
	return ValidationError(fmt.Sprintf(format, args...))
}
