package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across the client packages
var (
	// Storage errors
	ErrNotFound      = errors.New("not found")
	ErrCorruptRecord = errors.New("corrupt record")
	ErrSealed        = errors.New("unable to unseal value")

	// Remote service errors
	ErrServiceDisabled  = errors.New("service disabled")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNetwork          = errors.New("network error")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
