package device

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPtr is returned when an address does not fall inside a live allocation.
	ErrInvalidPtr = errors.New("invalid device pointer")
	// ErrOutOfBounds is returned when a copy would cross the end of an allocation.
	ErrOutOfBounds = errors.New("copy exceeds allocation bounds")
	// ErrClosed is returned by a context that has already been closed.
	ErrClosed = errors.New("device context is closed")
	// ErrUnknownBackend is returned by Open for names nothing registered.
	ErrUnknownBackend = errors.New("unknown device backend")
)

// OutOfMemoryError tells the caller that the device could not satisfy an
// allocation. It is not retried: device memory exhaustion is rarely recoverable
// locally.
type OutOfMemoryError struct {
	Device string
	Size   int
	Err    error
}

func (e *OutOfMemoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: out of memory allocating %d bytes: %v", e.Device, e.Size, e.Err)
	}
	return fmt.Sprintf("%s: out of memory allocating %d bytes", e.Device, e.Size)
}

func (e *OutOfMemoryError) Unwrap() error {
	return e.Err
}
