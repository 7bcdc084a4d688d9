// Package config loads a boltctl connection profile from TOML: the
// address to dial, which protocol versions to offer, how to
// authenticate, and the transport timeouts/TLS settings to apply.
// Loading is a three-step pipeline: read the file, apply defaults to
// each profile, then validate.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TLSConfig is the on-disk shape of bolt.TLSConfig.
type TLSConfig struct {
	Enabled            bool   `toml:"enabled"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	ServerName         string `toml:"server_name"`
	CAFile             string `toml:"ca_file"`
	Mutual             bool   `toml:"mutual"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
}

// ProfileConfig describes one named connection profile: where to
// dial, which versions to offer, and how to authenticate once
// connected.
type ProfileConfig struct {
	Address   string   `toml:"address"`
	Versions  []int    `toml:"versions"`
	UserAgent string   `toml:"user_agent"`
	Principal string   `toml:"principal"`
	AuthToken string   `toml:"auth_token"`
	AuthEnv   string   `toml:"auth_env"`

	ConnectTimeoutMS   int `toml:"connect_timeout_ms"`
	HandshakeTimeoutMS int `toml:"handshake_timeout_ms"`
	ReadTimeoutMS      int `toml:"read_timeout_ms"`
	WriteTimeoutMS     int `toml:"write_timeout_ms"`
	TxTimeoutMS        int `toml:"tx_timeout_ms"`

	TLS TLSConfig `toml:"tls"`
}

// Profiles is the top-level document: a default profile plus any
// number of named overrides.
type Profiles struct {
	Default  string                   `toml:"default"`
	Profiles map[string]ProfileConfig `toml:"profile"`
}

// Load reads and parses path, applies the package defaults to any
// profile with unset fields, and validates every profile it contains.
func Load(path string) (Profiles, error) {
	var doc Profiles
	if err := loadToml(path, &doc); err != nil {
		return Profiles{}, err
	}
	if len(doc.Profiles) == 0 {
		return Profiles{}, fmt.Errorf("config %s: no [profile.*] tables defined", path)
	}
	if doc.Default == "" {
		for name := range doc.Profiles {
			doc.Default = name
			break
		}
	}
	for name, p := range doc.Profiles {
		p = p.withDefaults()
		if err := p.Validate(); err != nil {
			return Profiles{}, fmt.Errorf("profile %q invalid: %w", name, err)
		}
		doc.Profiles[name] = p
	}
	if _, ok := doc.Profiles[doc.Default]; !ok {
		return Profiles{}, fmt.Errorf("config %s: default profile %q not defined", path, doc.Default)
	}
	return doc, nil
}

// Get returns the named profile, or the document's default profile
// when name is empty.
func (d Profiles) Get(name string) (ProfileConfig, error) {
	if name == "" {
		name = d.Default
	}
	p, ok := d.Profiles[name]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

func loadToml(path string, out any) error {
	if _, err := toml.DecodeFile(path, out); err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return nil
}

func (p ProfileConfig) withDefaults() ProfileConfig {
	if p.UserAgent == "" {
		p.UserAgent = "boltctl/0"
	}
	if len(p.Versions) == 0 {
		p.Versions = []int{3, 2, 1}
	}
	if p.ConnectTimeoutMS == 0 {
		p.ConnectTimeoutMS = 10_000
	}
	if p.HandshakeTimeoutMS == 0 {
		p.HandshakeTimeoutMS = 10_000
	}
	if p.ReadTimeoutMS == 0 {
		p.ReadTimeoutMS = 30_000
	}
	if p.WriteTimeoutMS == 0 {
		p.WriteTimeoutMS = 10_000
	}
	return p
}

// Validate reports whether the profile has enough information to
// dial and authenticate.
func (p ProfileConfig) Validate() error {
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("address is required")
	}
	for _, v := range p.Versions {
		if v < 1 || v > 3 {
			return fmt.Errorf("unsupported version %d", v)
		}
	}
	if p.TLS.Mutual && (p.TLS.CertFile == "" || p.TLS.KeyFile == "") {
		return fmt.Errorf("mutual tls requires cert_file and key_file")
	}
	if p.AuthToken != "" && p.AuthEnv != "" {
		return fmt.Errorf("auth_token and auth_env are mutually exclusive")
	}
	return nil
}

// ConnectTimeout, HandshakeTimeout, ReadTimeout, and WriteTimeout
// convert the profile's millisecond fields to time.Duration for
// bolt.Config.
func (p ProfileConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMS) * time.Millisecond
}

func (p ProfileConfig) HandshakeTimeout() time.Duration {
	return time.Duration(p.HandshakeTimeoutMS) * time.Millisecond
}

func (p ProfileConfig) ReadTimeout() time.Duration {
	return time.Duration(p.ReadTimeoutMS) * time.Millisecond
}

func (p ProfileConfig) WriteTimeout() time.Duration {
	return time.Duration(p.WriteTimeoutMS) * time.Millisecond
}

func (p ProfileConfig) TxTimeout() time.Duration {
	return time.Duration(p.TxTimeoutMS) * time.Millisecond
}
