// Package session implements the protocol's per-connection state
// machine: the Disconnected..Defunct lifecycle, the FIFO pairing of
// pipelined requests with their responses, and RESET/ACK_FAILURE
// recovery.
package session

import (
	"sync"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/message"
)

// Outcome describes what a caller should do with a response that has
// just been matched to a pending request.
type Outcome int

const (
	// OutcomeDeliver means the response should be handed to the waiter
	// that submitted the matching request.
	OutcomeDeliver Outcome = iota
	// OutcomeIgnored means the response must be reported to the waiter
	// as IGNORED, regardless of the wire signature the server actually
	// sent; a request submitted while Failed or Interrupted never
	// delivers a real result.
	OutcomeIgnored
)

// Session owns the negotiated version, the current lifecycle state,
// and the FIFO of requests awaiting responses. Responses pair with
// requests by strict submission order, never by id lookup.
type Session struct {
	mu       sync.Mutex
	version  dispatch.Version
	state    State
	queue    *pendingQueue
	bookmark string
}

// New constructs a Session already past the handshake, in Connected
// state, for the given negotiated version.
func New(ver dispatch.Version) *Session {
	return &Session{
		version: ver,
		state:   Connected,
		queue:   newPendingQueue(),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bookmark returns the most recent bookmark the server handed back.
func (s *Session) Bookmark() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmark
}

// Submit registers kind as a newly pipelined request and reports
// whether the server is expected to answer it for real or with
// IGNORED. It never blocks on I/O; the caller still must write the
// request to the transport.
//
// RESET is acceptable in every non-terminal state: submitting it
// immediately transitions the session to Interrupted, ahead of
// receiving its SUCCESS, so that every request already pipelined
// behind it is known to be headed for IGNORED. GOODBYE (v3) is
// likewise acceptable from any non-terminal state and terminates the
// session on submission.
func (s *Session) Submit(kind RequestKind) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return OutcomeIgnored, transitionError(s.state, kind.String())
	}

	if kind == KindReset {
		// RESET takes precedence: every request already outstanding is
		// resolved as IGNORED no matter what the server actually sends
		// back for it, and the RESET itself matches the next real
		// SUCCESS.
		s.queue.interruptAll()
		s.state = Interrupted
		s.queue.push(pendingEntry{kind: kind})
		return OutcomeDeliver, nil
	}

	if kind == KindGoodbye {
		if s.version < dispatch.V3 {
			return OutcomeIgnored, transitionError(s.state, kind.String())
		}
		// GOODBYE is acceptable from any non-terminal state and has no
		// response: the session is done the moment it is submitted.
		s.state = Defunct
		return OutcomeDeliver, nil
	}

	if s.state == Failed || s.state == Interrupted {
		if s.state == Failed && kind == KindAckFailure && s.version < dispatch.V3 {
			s.queue.push(pendingEntry{kind: kind})
			return OutcomeDeliver, nil
		}
		// Anything else pipelined while Failed or Interrupted is headed
		// for IGNORED.
		s.queue.push(pendingEntry{kind: kind, interrupted: true})
		return OutcomeIgnored, nil
	}

	if err := legalInState(s.state, kind, s.version); err != nil {
		return OutcomeIgnored, err
	}

	s.queue.push(pendingEntry{kind: kind, interrupted: false})
	return OutcomeDeliver, nil
}

// legalInState reports whether kind may be submitted while the
// session is in state st under the negotiated version, independent of
// the Failed/Interrupted short-circuit Submit already applies.
func legalInState(st State, kind RequestKind, ver dispatch.Version) error {
	switch st {
	case Connected:
		if kind == KindInit {
			return nil
		}
	case Ready:
		switch kind {
		case KindRun:
			return nil
		case KindBegin:
			if ver >= dispatch.V3 {
				return nil
			}
		}
	case Streaming:
		switch kind {
		case KindPullAll, KindDiscardAll:
			return nil
		}
	case TxReady:
		switch kind {
		case KindRun, KindCommit, KindRollback:
			return nil
		}
	case TxStreaming:
		switch kind {
		case KindPullAll, KindDiscardAll:
			return nil
		}
	}
	return transitionError(st, kind.String())
}

// HandleResponse applies sig, the next response read off the
// transport, to the head of the pending FIFO. It returns the kind of
// request that response pairs with and the outcome the caller should
// report to that request's waiter.
//
// SigRecord never pops: zero or more RECORDs precede the terminal
// SUCCESS or FAILURE for the same PULL_ALL.
func (s *Session) HandleResponse(sig message.Signature) (RequestKind, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sig == message.SigRecord {
		entry, ok := s.queue.peek()
		if !ok {
			s.state = Defunct
			return 0, OutcomeIgnored, ProtocolError{Reason: "RECORD with no pending request"}
		}
		if entry.interrupted {
			// The server streamed rows before it observed the RESET;
			// they belong to a request already resolved as IGNORED.
			return entry.kind, OutcomeIgnored, nil
		}
		if entry.kind != KindPullAll {
			s.state = Defunct
			return 0, OutcomeIgnored, ProtocolError{Reason: "RECORD while no result stream is open"}
		}
		return entry.kind, OutcomeDeliver, nil
	}

	entry, ok := s.queue.pop()
	if !ok {
		s.state = Defunct
		return 0, OutcomeIgnored, ProtocolError{Reason: "response with no pending request"}
	}

	if entry.interrupted {
		// Resolved as IGNORED regardless of what the server actually
		// sent: it may have completed the request before observing the
		// RESET, but the caller already gave up on it.
		return entry.kind, OutcomeIgnored, nil
	}
	if sig == message.SigIgnored {
		// The server skipped a request pipelined behind a FAILURE the
		// client had not yet observed at submission time.
		return entry.kind, OutcomeIgnored, nil
	}

	switch sig {
	case message.SigSuccess:
		if err := s.applySuccess(entry.kind); err != nil {
			s.state = Defunct
			return entry.kind, OutcomeDeliver, err
		}
		return entry.kind, OutcomeDeliver, nil
	case message.SigFailure:
		if entry.kind == KindInit {
			s.state = Defunct
		} else {
			s.state = Failed
		}
		return entry.kind, OutcomeDeliver, nil
	default:
		s.state = Defunct
		return entry.kind, OutcomeDeliver, ProtocolError{Reason: "unexpected response signature"}
	}
}

// applySuccess advances the state machine for a successful response
// to kind.
func (s *Session) applySuccess(kind RequestKind) error {
	switch kind {
	case KindInit:
		if s.state != Connected {
			return transitionError(s.state, "INIT success")
		}
		s.state = Ready
	case KindRun:
		switch s.state {
		case Ready:
			s.state = Streaming
		case TxReady:
			s.state = TxStreaming
		default:
			return transitionError(s.state, "RUN success")
		}
	case KindPullAll, KindDiscardAll:
		switch s.state {
		case Streaming:
			s.state = Ready
		case TxStreaming:
			s.state = TxReady
		default:
			return transitionError(s.state, kind.String()+" success")
		}
	case KindBegin:
		if s.state != Ready {
			return transitionError(s.state, "BEGIN success")
		}
		s.state = TxReady
	case KindCommit, KindRollback:
		if s.state != TxReady {
			return transitionError(s.state, kind.String()+" success")
		}
		s.state = Ready
	case KindAckFailure:
		if s.state != Failed {
			return transitionError(s.state, "ACK_FAILURE success")
		}
		s.state = Ready
	case KindReset:
		s.state = Ready
	default:
		return transitionError(s.state, kind.String()+" success")
	}
	return nil
}

// MarkDefunct forces the session into its terminal state. Called by
// the owner when the transport fails or a response cannot be decoded:
// framing alignment is lost and no recovery is possible.
func (s *Session) MarkDefunct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Defunct
}

// SetBookmark records a bookmark returned in response metadata.
func (s *Session) SetBookmark(bm string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmark = bm
}
