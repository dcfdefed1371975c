package recyclebin

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no entry has the requested ID.
	ErrNotFound = errors.New("recyclebin: item not found")

	// ErrNoHandle is returned when an entry has neither an asset handle nor
	// a file path, so there is nothing to delete.
	ErrNoHandle = errors.New("recyclebin: item has no asset handle or file path")
)

// BatchError reports a permanent deletion that only partly succeeded.
type BatchError struct {
	Attempted int
	Deleted   int
	// Remaining is the number of attempted entries still in the bin.
	Remaining int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("recyclebin: deleted %d of %d items, %d remaining: %v",
		e.Deleted, e.Attempted, e.Remaining, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
