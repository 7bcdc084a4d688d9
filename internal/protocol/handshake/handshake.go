// Package handshake implements the protocol's one-time version
// negotiation: a 4-byte magic preamble followed by four big-endian u32
// version proposals, answered by a single u32 selection.
package handshake

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
)

const proposalSlots = 4

// ErrNoCommonVersion is raised when the server replies with 0,
// signaling no version in the client's offer list is supported.
var ErrNoCommonVersion = errors.New("handshake: no common version")

// ErrMalformedResponse is raised when the server's 4-byte reply decodes
// to a version the client never offered.
var ErrMalformedResponse = errors.New("handshake: server selected an unoffered version")

// Negotiate runs the client side of the handshake over rw: it writes
// the magic preamble and up to four offered versions (preferred first,
// padded with zeros), then reads the server's selection. On success it
// returns the negotiated version; on "no common version" it returns
// ErrNoCommonVersion and the caller must close the transport.
func Negotiate(rw io.ReadWriter, offered []dispatch.Version) (dispatch.Version, error) {
	if len(offered) == 0 || len(offered) > proposalSlots {
		return 0, errors.New("handshake: offered must list 1-4 versions")
	}

	out := make([]byte, 4+4*proposalSlots)
	copy(out, dispatch.Magic[:])
	for i := 0; i < proposalSlots; i++ {
		var v uint32
		if i < len(offered) {
			v = uint32(offered[i])
		}
		binary.BigEndian.PutUint32(out[4+4*i:4+4*i+4], v)
	}
	if _, err := rw.Write(out); err != nil {
		return 0, err
	}

	var resp [4]byte
	if _, err := io.ReadFull(rw, resp[:]); err != nil {
		return 0, err
	}
	selected := dispatch.Version(binary.BigEndian.Uint32(resp[:]))
	if selected == 0 {
		return 0, ErrNoCommonVersion
	}
	if !offeredContains(offered, selected) {
		return 0, ErrMalformedResponse
	}
	return selected, nil
}

func offeredContains(offered []dispatch.Version, v dispatch.Version) bool {
	for _, o := range offered {
		if o == v {
			return true
		}
	}
	return false
}

// Accept runs the server side of the handshake (used by test doubles
// and by integration tests standing in for a real server): it reads
// the magic and four proposals, then writes back pick, the first
// proposal mutually acceptable per the supported set, or 0 if none.
func Accept(rw io.ReadWriter, supported []dispatch.Version) (dispatch.Version, error) {
	var magic [4]byte
	if _, err := io.ReadFull(rw, magic[:]); err != nil {
		return 0, err
	}
	if magic != dispatch.Magic {
		return 0, errors.New("handshake: bad magic preamble")
	}

	var raw [4 * proposalSlots]byte
	if _, err := io.ReadFull(rw, raw[:]); err != nil {
		return 0, err
	}

	var picked dispatch.Version
	for i := 0; i < proposalSlots; i++ {
		v := dispatch.Version(binary.BigEndian.Uint32(raw[4*i : 4*i+4]))
		if v == 0 {
			continue
		}
		if picked == 0 && versionSupported(supported, v) {
			picked = v
		}
	}

	var resp [4]byte
	binary.BigEndian.PutUint32(resp[:], uint32(picked))
	if _, err := rw.Write(resp[:]); err != nil {
		return 0, err
	}
	if picked == 0 {
		return 0, ErrNoCommonVersion
	}
	return picked, nil
}

func versionSupported(supported []dispatch.Version, v dispatch.Version) bool {
	for _, s := range supported {
		if s == v {
			return true
		}
	}
	return false
}
