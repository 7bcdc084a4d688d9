// Package message implements the protocol's typed request/response
// structures: tagged records with a signature byte, carried on the
// wire as PackStream structs.
package message

import (
	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

// Signature identifies a message's kind on the wire.
type Signature byte

// Request signatures (client -> server).
const (
	SigInit        Signature = 0x01 // INIT (v1/v2) or HELLO (v3)
	SigGoodbye     Signature = 0x02
	SigAckFailure  Signature = 0x0E
	SigReset       Signature = 0x0F
	SigRun         Signature = 0x10
	SigBegin       Signature = 0x11
	SigCommit      Signature = 0x12
	SigRollback    Signature = 0x13
	SigDiscardAll  Signature = 0x2F
	SigPullAll     Signature = 0x3F
)

// Response signatures (server -> client).
const (
	SigSuccess Signature = 0x70
	SigRecord  Signature = 0x71
	SigIgnored Signature = 0x7E
	SigFailure Signature = 0x7F
)

// Message is a tagged struct whose fields carry the message arguments.
type Message struct {
	Signature Signature
	Fields    []value.Value
}

// ProtocolError is raised for a message whose signature or field shape
// isn't legal for the negotiated version.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string { return "message: protocol error: " + e.Reason }

// requestSignatures lists which request signatures each version
// permits.
var requestSignatures = map[dispatch.Version]map[Signature]bool{
	dispatch.V1: {
		SigInit: true, SigReset: true, SigRun: true,
		SigDiscardAll: true, SigPullAll: true, SigAckFailure: true,
	},
	dispatch.V2: {
		SigInit: true, SigReset: true, SigRun: true,
		SigDiscardAll: true, SigPullAll: true, SigAckFailure: true,
	},
	dispatch.V3: {
		SigInit: true, SigReset: true, SigRun: true,
		SigDiscardAll: true, SigPullAll: true,
		SigBegin: true, SigCommit: true, SigRollback: true, SigGoodbye: true,
	},
}

// ValidateRequest checks that sig is a legal request signature under ver.
func ValidateRequest(sig Signature, ver dispatch.Version) error {
	allowed, ok := requestSignatures[ver]
	if !ok {
		return ProtocolError{Reason: "unknown protocol version"}
	}
	if !allowed[sig] {
		return ProtocolError{Reason: "request signature not permitted for negotiated version"}
	}
	return nil
}

func isResponseSignature(sig Signature) bool {
	switch sig {
	case SigSuccess, SigRecord, SigIgnored, SigFailure:
		return true
	default:
		return false
	}
}
