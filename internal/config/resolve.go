package config

import (
	"fmt"
	"os"

	"github.com/graphwire/boltcore/bolt"
	"github.com/graphwire/boltcore/internal/protocol/dispatch"
)

// Offered converts the profile's version list to dispatch.Version,
// preserving the order given (first is most preferred).
func (p ProfileConfig) Offered() []dispatch.Version {
	out := make([]dispatch.Version, len(p.Versions))
	for i, v := range p.Versions {
		out[i] = dispatch.Version(v)
	}
	return out
}

// ToBoltConfig builds a bolt.Config from the profile, ready to hand to
// bolt.Dial.
func (p ProfileConfig) ToBoltConfig() bolt.Config {
	return bolt.Config{
		Address:          p.Address,
		Offered:          p.Offered(),
		UserAgent:        p.UserAgent,
		ConnectTimeout:   p.ConnectTimeout(),
		HandshakeTimeout: p.HandshakeTimeout(),
		ReadTimeout:      p.ReadTimeout(),
		WriteTimeout:     p.WriteTimeout(),
		TxTimeout:        p.TxTimeout(),
		TLS: bolt.TLSConfig{
			Enabled:            p.TLS.Enabled,
			InsecureSkipVerify: p.TLS.InsecureSkipVerify,
			ServerName:         p.TLS.ServerName,
			CAFile:             p.TLS.CAFile,
			Mutual:             p.TLS.Mutual,
			CertFile:           p.TLS.CertFile,
			KeyFile:            p.TLS.KeyFile,
		},
	}
}

// Credentials resolves the profile's auth secret: a literal
// auth_token, or the value of the environment variable named by
// auth_env, or "" (the "none" scheme) when neither is set.
func (p ProfileConfig) Credentials() (string, error) {
	if p.AuthToken != "" {
		return p.AuthToken, nil
	}
	if p.AuthEnv != "" {
		v, ok := os.LookupEnv(p.AuthEnv)
		if !ok {
			return "", fmt.Errorf("auth_env %q is not set", p.AuthEnv)
		}
		return v, nil
	}
	return "", nil
}
