// Package errs defines the failure vocabulary shared by adapters, storage and
// the robot runtime.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData is returned when a storage lookup finds no entry for a key.
	ErrMissingData = errors.New("no data stored for key")

	// ErrUnimplemented is returned by optional capabilities the active adapter
	// does not support. Callers treat it as "capability absent", never as fatal.
	ErrUnimplemented = errors.New("operation not implemented by adapter")
)

// GenericError is a failure not covered by the other kinds.
type GenericError struct {
	Message string
}

func (e *GenericError) Error() string { return e.Message }

// Generic returns an uncategorized error carrying msg.
func Generic(msg string) error {
	return &GenericError{Message: msg}
}

// Genericf is Generic with fmt formatting.
func Genericf(format string, args ...any) error {
	return &GenericError{Message: fmt.Sprintf(format, args...)}
}

// IOError wraps an underlying I/O failure from an adapter.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e.Op == "" {
		return "io: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// IO wraps err as an IOError for operation op. It returns nil when err is nil.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}

// IsUnimplemented reports whether err signals an absent optional capability.
func IsUnimplemented(err error) bool {
	return errors.Is(err, ErrUnimplemented)
}

// IsMissing reports whether err signals a storage miss.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingData)
}
