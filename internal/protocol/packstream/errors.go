package packstream

import "fmt"

// EncodeError is returned when a Value is unrepresentable under the
// negotiated version: oversized collection, non-string map key, or a
// temporal/spatial/graph value offered below the version that
// introduced it.
type EncodeError struct {
	Reason string
}

func (e EncodeError) Error() string { return fmt.Sprintf("packstream: encode: %s", e.Reason) }

func encErr(format string, args ...any) error {
	return EncodeError{Reason: fmt.Sprintf(format, args...)}
}

// DecodeError is returned for malformed bytes: an unknown marker,
// truncated input, or (classified separately as ProtocolError by the
// message layer) an unknown struct signature.
type DecodeError struct {
	Reason string
}

func (e DecodeError) Error() string { return fmt.Sprintf("packstream: decode: %s", e.Reason) }

func decErr(format string, args ...any) error {
	return DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownSignatureError flags a struct signature the negotiated version
// does not define. The session layer treats this as fatal and drops
// the connection.
type UnknownSignatureError struct {
	Signature byte
}

func (e UnknownSignatureError) Error() string {
	return fmt.Sprintf("packstream: decode: unknown struct signature 0x%02x", e.Signature)
}
