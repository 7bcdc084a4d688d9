package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/handshake"
)

// handshakeCheckCmd dials and negotiates only, without authenticating,
// for probing whether a server is reachable and which version it
// prefers. Negotiation is the one piece of the client lifecycle cheap
// enough to expose standalone.
func handshakeCheckCmd() *cobra.Command {
	var address string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "handshake-check",
		Short: "Connect and negotiate a protocol version, then disconnect",
		RunE: func(cmd *cobra.Command, args []string) error {
			dialer := net.Dialer{Timeout: timeout}
			conn, err := dialer.DialContext(context.Background(), "tcp", address)
			if err != nil {
				return fmt.Errorf("dial %s: %w", address, err)
			}
			defer conn.Close()

			if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
			ver, err := handshake.Negotiate(conn, dispatch.Offered)
			if err != nil {
				return fmt.Errorf("negotiate: %w", err)
			}
			fmt.Printf("negotiated version %d\n", ver)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "localhost:7687", "server address to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "dial and handshake timeout")
	return cmd
}
