package bolt

import (
	"time"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
)

// TLSConfig mirrors the transport security knobs a real deployment
// needs: server verification, optional mutual auth, and an escape
// hatch for self-signed test fixtures.
type TLSConfig struct {
	Enabled            bool
	InsecureSkipVerify bool
	ServerName         string
	CAFile             string
	Mutual             bool
	CertFile           string
	KeyFile            string
}

// Config describes how to reach a server and which handshake/auth
// defaults to offer.
type Config struct {
	Address string

	// Offered lists the versions proposed during the handshake,
	// preferred first. Defaults to dispatch.Offered.
	Offered []dispatch.Version

	UserAgent string

	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// TxTimeout, when nonzero, is sent as tx_timeout metadata on BEGIN
	// (v3). The server enforces it; the client only carries it.
	TxTimeout time.Duration

	TLS TLSConfig
}

// DefaultConfig returns a Config with conservative timeout defaults
// and the full offered-version list.
func DefaultConfig() Config {
	return Config{
		Offered:          dispatch.Offered,
		UserAgent:        "boltcore/0",
		ConnectTimeout:   10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Offered) == 0 {
		c.Offered = d.Offered
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}
