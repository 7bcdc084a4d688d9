package session

import "fmt"

// ProtocolError signals a state-machine violation. On the response
// path (an unexpected or out-of-order message from the server) it is
// fatal and the session transitions to Defunct. On the submit path (a
// request illegal for the current state, caught before anything is
// written) it only rejects the call; the session stays where it was.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string { return "session: protocol error: " + e.Reason }

// ServerFailure wraps a FAILURE response. It is recoverable via
// ACK_FAILURE (v1/v2) or RESET.
type ServerFailure struct {
	Code    string
	Message string
}

func (e ServerFailure) Error() string {
	return fmt.Sprintf("session: server failure %s: %s", e.Code, e.Message)
}

// AuthError wraps a FAILURE response to INIT/HELLO. The session
// becomes Defunct; there is no recovery.
type AuthError struct {
	Code    string
	Message string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("session: auth failed %s: %s", e.Code, e.Message)
}
