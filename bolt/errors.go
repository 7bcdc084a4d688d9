package bolt

import (
	"errors"
	"fmt"

	"github.com/graphwire/boltcore/internal/protocol/session"
)

// ErrAddressRequired is returned by Dial when Config.Address is empty.
var ErrAddressRequired = errors.New("bolt: address required")

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("bolt: connection closed")

// IgnoredError wraps a response the server marked IGNORED: the
// request never ran because the session was Failed or Interrupted
// when it was pipelined.
type IgnoredError struct {
	Request string
}

func (e IgnoredError) Error() string {
	return fmt.Sprintf("bolt: request %s was ignored", e.Request)
}

// ServerFailure re-exports session.ServerFailure so callers do not need
// to import the internal session package to type-assert on it.
type ServerFailure = session.ServerFailure

// AuthError re-exports session.AuthError.
type AuthError = session.AuthError
