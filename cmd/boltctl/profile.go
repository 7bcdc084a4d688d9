package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/bolt"
	"github.com/graphwire/boltcore/internal/config"
)

// profileFlags are the --config/--profile pair every subcommand that
// dials a server accepts, resolved against the loader in
// internal/config.
type profileFlags struct {
	configPath string
	profile    string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "boltctl.toml", "path to a boltctl profile document")
	cmd.Flags().StringVar(&f.profile, "profile", "", "profile name within --config (defaults to the document's default)")
}

func (f *profileFlags) load() (config.ProfileConfig, error) {
	doc, err := config.Load(f.configPath)
	if err != nil {
		return config.ProfileConfig{}, err
	}
	return doc.Get(f.profile)
}

// dial resolves f's profile, connects, and authenticates, returning a
// ready Conn the caller must Close.
func (f *profileFlags) dial(ctx context.Context) (*bolt.Conn, error) {
	p, err := f.load()
	if err != nil {
		return nil, err
	}
	conn, err := bolt.Dial(ctx, p.ToBoltConfig())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.Address, err)
	}
	creds, err := p.Credentials()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.Authenticate(ctx, p.Principal, creds); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return conn, nil
}
