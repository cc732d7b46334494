package manager

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the manager has been closed.
var ErrClosed = errors.New("policy manager closed")

// ReloadError is returned when the file at Path no longer loads or builds. The
// previous evaluator stays active.
type ReloadError struct {
	Path  string
	Cause error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload %s: %v", e.Path, e.Cause)
}

func (e *ReloadError) Unwrap() error {
	return e.Cause
}
