package desk

import (
	"errors"
	"fmt"
)

// ErrNoOpenSession is returned by mutations that need an open session when the
// mirror has none. No remote call is made.
var ErrNoOpenSession = errors.New("desk: no open session")

// ValidationError reports a form field that failed validation. Key is the
// translation key of the message to show.
type ValidationError struct {
	Field string
	Key   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("desk: invalid %s", e.Field)
}

// RefreshError means the mutation was accepted remotely but re-reading the
// session afterwards failed; the mirror still holds the pre-mutation state.
type RefreshError struct {
	Op  string
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("desk: refresh after %s: %v", e.Op, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
