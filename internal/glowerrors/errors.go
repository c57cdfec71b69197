package glowerrors

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a user supplied value is rejected before any write
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned when a document or collection doesn't exist
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable is returned when the document store can't be reached or rejects a request
var ErrStoreUnavailable = errors.New("store unavailable")

// InvalidInputf returns a formatted ErrInvalidInput error
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// NotFoundf returns a formatted ErrNotFound error
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
