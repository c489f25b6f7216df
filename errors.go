package bigmat

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAllocation is returned when a heap block, shared segment or
	// file mapping cannot be allocated. Any resources created earlier
	// in the same call have been rolled back.
	ErrAllocation = errors.New("allocation failed")

	// ErrDoesNotExist is returned when connect() targets an identity
	// whose backing resources are absent.
	ErrDoesNotExist = errors.New("matrix does not exist")

	// ErrAlreadyExists is returned when create() collides with an
	// existing named resource. With UUID identities this is
	// structurally near-impossible, but an O_EXCL create surfaces it
	// instead of corrupting the existing matrix.
	ErrAlreadyExists = errors.New("matrix already exists")

	// ErrDestroyed is returned when an operation targets a matrix
	// handle whose Destroy has already run.
	ErrDestroyed = errors.New("matrix is destroyed")

	// ErrInvalidShape is returned when rows or cols are not positive
	// or the element type is unknown.
	ErrInvalidShape = errors.New("invalid matrix shape")
)

// ErrTypeMismatch indicates that an accessor's Go element type does
// not match the matrix's declared element type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeMismatch struct {
	Want  ElementType
	Width int // byte width of the requested Go type
	cause error
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: matrix holds %s (%d bytes), accessor element is %d bytes",
		e.Want, e.Want.Width(), e.Width)
}

func (e *ErrTypeMismatch) Unwrap() error { return e.cause }

// translateOSError maps filesystem-level existence errors onto the
// package sentinels so callers never match on os errors directly.
func translateOSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrDoesNotExist, err)
	}
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	return err
}
