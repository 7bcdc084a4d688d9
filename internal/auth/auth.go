// Package auth validates the credentials carried in an INIT/HELLO auth
// map. It intentionally avoids policy decisions and storage concerns,
// leaving credential lookup to the caller.
package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/graphwire/boltcore/internal/protocol/value"
)

var (
	ErrUnauthorized   = errors.New("auth: unauthorized")
	ErrSchemeRejected = errors.New("auth: unsupported scheme")
)

// Validator validates a single opaque credential token, built by
// BasicCredentials from an auth map's principal/credentials pair.
type Validator interface {
	Validate(token string) error
}

// StaticToken is a validator for a single shared credential, suitable
// for a test double standing in for a server during integration
// testing.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// BasicCredentials builds the opaque token a Validator compares
// against, from the principal/credentials pair a "basic" scheme auth
// map carries.
func BasicCredentials(principal, credentials string) string {
	return principal + ":" + credentials
}

// ValidateAuthMap extracts scheme, principal, and credentials from an
// INIT/HELLO auth map (the shape message.AuthMap produces) and runs v
// against the resulting token. A map with no "scheme" key (what
// message.AuthMap builds when no credentials are given) is handled like
// the "none" scheme: v validates the empty token. Any scheme other than
// "basic" and "none" is rejected.
func ValidateAuthMap(v Validator, authMap *value.Map) error {
	scheme, _ := stringField(authMap, "scheme")
	switch scheme {
	case "", "none":
		return v.Validate("")
	case "basic":
		principal, _ := stringField(authMap, "principal")
		credentials, _ := stringField(authMap, "credentials")
		return v.Validate(BasicCredentials(principal, credentials))
	default:
		return ErrSchemeRejected
	}
}

func stringField(m *value.Map, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	val, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return val.AsString()
}
