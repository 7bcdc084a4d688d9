package message

import (
	"bytes"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/packstream"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

// Encode serializes msg as a single PackStream struct: the generic
// struct encoder from packstream, seeded with the message's own
// signature byte.
func Encode(msg Message, ver dispatch.Version) ([]byte, error) {
	if err := ValidateRequest(msg.Signature, ver); err != nil {
		return nil, err
	}
	strct := &value.Struct{Signature: byte(msg.Signature), Fields: msg.Fields}
	var buf bytes.Buffer
	if err := packstream.Encode(&buf, value.StructValue(strct), ver); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a complete message from b (already dechunked) and
// classifies it as a response. An unrecognized signature is a
// ProtocolError; the session layer treats this as fatal.
func Decode(b []byte, ver dispatch.Version) (Message, error) {
	v, consumed, err := packstream.Decode(b, ver)
	if err != nil {
		return Message{}, err
	}
	if consumed != len(b) {
		return Message{}, ProtocolError{Reason: "trailing bytes after message"}
	}
	strct, ok := v.AsStruct()
	if !ok {
		return Message{}, ProtocolError{Reason: "message body is not a struct"}
	}
	sig := Signature(strct.Signature)
	if !isResponseSignature(sig) {
		return Message{}, ProtocolError{Reason: "unknown response signature"}
	}
	return Message{Signature: sig, Fields: strct.Fields}, nil
}

// Constructors for request messages. Field order is fixed by the wire
// format and must not be reordered.

func NewInit(userAgent string, authMap *value.Map) Message {
	return Message{Signature: SigInit, Fields: []value.Value{value.String(userAgent), value.MapValue(authMap)}}
}

func NewHello(meta *value.Map) Message {
	return Message{Signature: SigInit, Fields: []value.Value{value.MapValue(meta)}}
}

func NewReset() Message { return Message{Signature: SigReset} }

func NewRun(statement string, params *value.Map, metadata *value.Map, ver dispatch.Version) Message {
	fields := []value.Value{value.String(statement), value.MapValue(params)}
	if ver == dispatch.V3 {
		fields = append(fields, value.MapValue(metadata))
	}
	return Message{Signature: SigRun, Fields: fields}
}

func NewDiscardAll() Message { return Message{Signature: SigDiscardAll} }

func NewPullAll() Message { return Message{Signature: SigPullAll} }

func NewAckFailure() Message { return Message{Signature: SigAckFailure} }

func NewBegin(metadata *value.Map) Message {
	return Message{Signature: SigBegin, Fields: []value.Value{value.MapValue(metadata)}}
}

func NewCommit() Message { return Message{Signature: SigCommit} }

func NewRollback() Message { return Message{Signature: SigRollback} }

func NewGoodbye() Message { return Message{Signature: SigGoodbye} }

// AuthMap builds the INIT/HELLO auth_map payload. When credentials are
// empty, only user_agent is included.
func AuthMap(userAgent, principal, credentials string) *value.Map {
	m := value.NewMap()
	if credentials == "" {
		m.Set("user_agent", value.String(userAgent))
		return m
	}
	m.Set("scheme", value.String("basic"))
	m.Set("principal", value.String(principal))
	m.Set("credentials", value.String(credentials))
	m.Set("user_agent", value.String(userAgent))
	return m
}
