// Package dispatch holds the per-version capability table consulted by
// the packstream and message codecs (C8 in the protocol design).
package dispatch

import "fmt"

// Version is a negotiated protocol version.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

// Magic is the handshake preamble, constant across all versions.
var Magic = [4]byte{0x60, 0x60, 0xB0, 0x17}

// Offered is the client's version-proposal list, preferred first.
// Exactly four slots are sent on the wire; unused slots are zero.
var Offered = []Version{V3, V2, V1}

// Profile describes what a negotiated version permits.
type Profile struct {
	Version Version

	// Temporal carries Date/LocalTime/.../DateTimeWithZoneId support.
	Temporal bool
	// Spatial carries Point2D/Point3D support.
	Spatial bool
	// Transactions carries BEGIN/COMMIT/ROLLBACK and RUN metadata.
	Transactions bool
	// HelloInit is true when HELLO replaces INIT/ACK_FAILURE.
	HelloInit bool
}

var table = map[Version]Profile{
	V1: {Version: V1, Temporal: false, Spatial: false, Transactions: false, HelloInit: false},
	V2: {Version: V2, Temporal: true, Spatial: true, Transactions: false, HelloInit: false},
	V3: {Version: V3, Temporal: true, Spatial: true, Transactions: true, HelloInit: true},
}

// ErrUnknownVersion is returned by Lookup for a version outside {1,2,3}.
type ErrUnknownVersion struct{ Version Version }

func (e ErrUnknownVersion) Error() string {
	return fmt.Sprintf("dispatch: unknown protocol version %d", e.Version)
}

// Lookup returns the capability profile for v.
func Lookup(v Version) (Profile, error) {
	p, ok := table[v]
	if !ok {
		return Profile{}, ErrUnknownVersion{Version: v}
	}
	return p, nil
}

// Supported reports whether v is one of the versions this dispatch table
// recognizes (1, 2, or 3). The handshake's "no common version" reply 0
// has no table entry, so Supported(0) is false.
func Supported(v Version) bool {
	_, ok := table[v]
	return ok
}
