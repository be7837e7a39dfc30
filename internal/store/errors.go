package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a document id does not resolve.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a write before it is attempted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
