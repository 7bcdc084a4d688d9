package bolt

import (
	"context"
	"net"
	"testing"

	"github.com/graphwire/boltcore/internal/auth"
	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/session"
	"github.com/graphwire/boltcore/internal/testutil/fakeserver"
	"github.com/graphwire/boltcore/internal/testutil/testlog"
)

func TestConnAuthenticateRejectedByValidator(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeserver.Run(t, server, dispatch.V3, fakeserver.Script{
			Validator: auth.StaticToken{Token: "correct-secret"},
		})
	}()

	ctx := context.Background()
	c, err := Open(ctx, client, []dispatch.Version{dispatch.V3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = c.Authenticate(ctx, "neo4j", "wrong-secret")
	if _, ok := err.(session.AuthError); !ok {
		t.Fatalf("err = %v (%T), want session.AuthError", err, err)
	}
	<-done
}

func TestConnAuthenticateAcceptedByValidator(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeserver.Run(t, server, dispatch.V3, fakeserver.Script{
			Validator: auth.StaticToken{Token: auth.BasicCredentials("neo4j", "correct-secret")},
		})
	}()

	ctx := context.Background()
	c, err := Open(ctx, client, []dispatch.Version{dispatch.V3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := c.Authenticate(ctx, "neo4j", "correct-secret"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	<-done
}
