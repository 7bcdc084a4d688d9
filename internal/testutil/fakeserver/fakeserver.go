// Package fakeserver is a minimal server-side test double: it accepts
// the handshake, validates the INIT/HELLO auth map against an
// auth.Validator, and then answers a fixed script of further requests
// with canned responses. Shared so packages testing against a server
// don't each hand-roll the wire plumbing.
package fakeserver

import (
	"bytes"
	"fmt"
	"net"
	"testing"

	"github.com/graphwire/boltcore/internal/auth"
	"github.com/graphwire/boltcore/internal/protocol/chunk"
	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/handshake"
	"github.com/graphwire/boltcore/internal/protocol/message"
	"github.com/graphwire/boltcore/internal/protocol/packstream"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

// Script describes how a fake server should answer one client
// session: validate auth, then emit Responses in order, one per
// subsequent request read off the wire.
type Script struct {
	Validator auth.Validator
	Responses []message.Message
}

// Run drives conn as the server side of one session: it accepts the
// handshake restricted to ver, validates the first request's auth map,
// and then answers each further request with the next entry in
// script.Responses. It reports failures via t rather than returning
// an error, since it is always run on its own goroutine in a test.
func Run(t *testing.T, conn net.Conn, ver dispatch.Version, script Script) {
	t.Helper()

	if _, err := handshake.Accept(conn, []dispatch.Version{ver}); err != nil {
		t.Errorf("fakeserver: accept: %v", err)
		return
	}
	cw := chunk.NewWriter(conn)
	cr := chunk.NewReader(conn)

	initReq, err := readRequest(cr, ver)
	if err != nil {
		t.Errorf("fakeserver: read init/hello: %v", err)
		return
	}

	authMap := authMapFromFields(initReq.Fields)
	validator := script.Validator
	if validator == nil {
		validator = auth.StaticToken{} // rejects everything but documents "no validator configured"
	}
	if err := auth.ValidateAuthMap(validator, authMap); err != nil {
		meta := value.NewMap()
		meta.Set("code", value.String("Neo.ClientError.Security.Unauthorized"))
		meta.Set("message", value.String(err.Error()))
		failure := message.Message{Signature: message.SigFailure, Fields: []value.Value{value.MapValue(meta)}}
		if err := writeMessage(cw, failure, ver); err != nil {
			t.Errorf("fakeserver: write auth failure: %v", err)
		}
		return
	}

	success := message.Message{Signature: message.SigSuccess, Fields: []value.Value{value.MapValue(value.NewMap())}}
	if err := writeMessage(cw, success, ver); err != nil {
		t.Errorf("fakeserver: write auth success: %v", err)
		return
	}

	for i, resp := range script.Responses {
		if _, err := readRequest(cr, ver); err != nil {
			t.Errorf("fakeserver: read request %d: %v", i, err)
			return
		}
		if err := writeMessage(cw, resp, ver); err != nil {
			t.Errorf("fakeserver: write response %d: %v", i, err)
			return
		}
	}
}

// authMapFromFields extracts the auth map out of an INIT (fields[1])
// or HELLO (fields[0]) request, the way the two messages disagree on
// position (message.NewInit vs message.NewHello).
func authMapFromFields(fields []value.Value) *value.Map {
	for _, f := range fields {
		if m, ok := f.AsMap(); ok {
			return m
		}
	}
	return value.NewMap()
}

func readRequest(cr *chunk.Reader, ver dispatch.Version) (message.Message, error) {
	raw, err := cr.ReadMessage()
	if err != nil {
		return message.Message{}, err
	}
	v, _, err := packstream.Decode(raw, ver)
	if err != nil {
		return message.Message{}, err
	}
	strct, ok := v.AsStruct()
	if !ok {
		return message.Message{}, fmt.Errorf("fakeserver: request did not decode to a struct")
	}
	return message.Message{Signature: message.Signature(strct.Signature), Fields: strct.Fields}, nil
}

func writeMessage(cw *chunk.Writer, msg message.Message, ver dispatch.Version) error {
	strct := &value.Struct{Signature: byte(msg.Signature), Fields: msg.Fields}
	var buf bytes.Buffer
	if err := packstream.Encode(&buf, value.StructValue(strct), ver); err != nil {
		return err
	}
	if _, err := cw.Write(buf.Bytes()); err != nil {
		return err
	}
	return cw.EndMessage()
}
