// Package bolt is the public client surface: open a connection,
// negotiate a version, authenticate, and run statements, composing the
// handshake, chunk, message, and session packages.
package bolt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	logs "github.com/danmuck/smplog"

	"github.com/graphwire/boltcore/internal/metrics"
	"github.com/graphwire/boltcore/internal/protocol/chunk"
	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/handshake"
	"github.com/graphwire/boltcore/internal/protocol/message"
	"github.com/graphwire/boltcore/internal/protocol/session"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

// Transport is the byte-stream connection the core consumes: ordered,
// reliable, with deadlines the session can arm per read/write.
// Framing, negotiation, and sequencing are entirely internal to this
// package; Transport owns only the bytes. net.Conn and *tls.Conn both
// satisfy it.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
	SetDeadline(time.Time) error
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Conn is a single negotiated, authenticated connection to a server.
// All exported methods are safe to call sequentially; the protocol
// itself permits pipelining but Conn does not expose that directly
// (each call blocks for its own terminal response).
type Conn struct {
	mu      sync.Mutex
	raw     Transport
	cw      *chunk.Writer
	cr      *chunk.Reader
	version dispatch.Version
	sess    *session.Session
	cfg     Config
	metrics *metrics.Collector
	closed  bool
}

// Open negotiates a protocol version over an already-established
// transport. The protocol core never dials or owns the socket itself;
// that is Dial's job, one layer up.
func Open(ctx context.Context, t Transport, offered []dispatch.Version) (*Conn, error) {
	cfg := Config{Offered: offered}.withDefaults()
	return open(ctx, t, cfg)
}

// Dial connects to cfg.Address, optionally under TLS, then calls Open
// over the resulting transport. This is the convenience entry point
// most callers use; Open itself stays transport-agnostic.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	cfg = cfg.withDefaults()

	raw, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := open(ctx, raw, cfg)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return c, nil
}

func open(ctx context.Context, t Transport, cfg Config) (*Conn, error) {
	if err := t.SetDeadline(time.Now().Add(cfg.HandshakeTimeout)); err != nil {
		return nil, err
	}
	ver, err := handshake.Negotiate(t, cfg.Offered)
	if err != nil {
		logs.Warnf("bolt.Open handshake addr=%q err=%v", cfg.Address, err)
		return nil, err
	}
	if err := t.SetDeadline(time.Time{}); err != nil {
		return nil, err
	}

	coll := metrics.Default()
	coll.ConnOpened()
	logs.Infof("bolt.Open negotiated version=%d addr=%q", ver, cfg.Address)

	return &Conn{
		raw:     t,
		cw:      chunk.NewWriter(t),
		cr:      chunk.NewReader(t),
		version: ver,
		sess:    session.New(ver),
		cfg:     cfg,
		metrics: coll,
	}, nil
}

// Metrics returns the Prometheus collector this Conn reports against,
// for an embedding pool that wants to scrape wire-activity counters.
func (c *Conn) Metrics() *metrics.Collector { return c.metrics }

func dial(ctx context.Context, cfg Config) (net.Conn, error) {
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := clientTLSConfig(cfg)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	tlsConn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func clientTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(cfg.TLS.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(cfg.Address)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	tlsCfg.ServerName = serverName

	if caPath := strings.TrimSpace(cfg.TLS.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("bolt: parse tls ca bundle: %s", caPath)
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.TLS.Mutual {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// Version returns the negotiated protocol version.
func (c *Conn) Version() dispatch.Version { return c.version }

// State returns the session's current lifecycle state.
func (c *Conn) State() session.State { return c.sess.State() }

// Close sends GOODBYE (when the negotiated version supports it) and
// closes the underlying transport. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	profile, _ := dispatch.Lookup(c.version)
	if profile.Transactions { // GOODBYE was introduced alongside BEGIN/COMMIT in v3
		if _, err := c.sess.Submit(session.KindGoodbye); err == nil {
			_ = c.raw.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			_ = c.writeMessage(message.NewGoodbye())
		}
	}
	c.metrics.ConnClosed()
	return c.raw.Close()
}

// Authenticate sends INIT (v1/v2) or HELLO (v3) with the given
// principal/credentials and waits for SUCCESS. An empty credentials
// string authenticates with the "none" scheme.
func (c *Conn) Authenticate(ctx context.Context, principal, credentials string) error {
	authMap := message.AuthMap(c.cfg.UserAgent, principal, credentials)

	profile, err := dispatch.Lookup(c.version)
	if err != nil {
		return err
	}
	var msg message.Message
	if profile.HelloInit {
		msg = message.NewHello(authMap)
	} else {
		msg = message.NewInit(c.cfg.UserAgent, authMap)
	}

	_, _, err = c.do(ctx, session.KindInit, msg)
	return err
}

// Run submits a statement with its parameters and waits for RUN's
// SUCCESS, returning the field names the subsequent PULL_ALL will
// stream records for.
func (c *Conn) Run(ctx context.Context, statement string, params *value.Map) ([]string, error) {
	if params == nil {
		params = value.NewMap()
	}
	msg := message.NewRun(statement, params, value.NewMap(), c.version)
	meta, _, err := c.do(ctx, session.KindRun, msg)
	if err != nil {
		return nil, err
	}
	return fieldNames(meta), nil
}

// Pull streams every record the last RUN produced, then returns the
// terminal SUCCESS metadata.
func (c *Conn) Pull(ctx context.Context) (*Result, error) {
	meta, records, err := c.do(ctx, session.KindPullAll, message.NewPullAll())
	if err != nil {
		return nil, err
	}
	return &Result{Records: records, Summary: meta}, nil
}

// Discard abandons the remainder of the last RUN's result stream
// without fetching it.
func (c *Conn) Discard(ctx context.Context) (*value.Map, error) {
	meta, _, err := c.do(ctx, session.KindDiscardAll, message.NewDiscardAll())
	return meta, err
}

// AckFailure recovers a Failed session (v1/v2 only; v3 servers never
// send FAILURE for AckFailure, they require RESET).
func (c *Conn) AckFailure(ctx context.Context) error {
	_, _, err := c.do(ctx, session.KindAckFailure, message.NewAckFailure())
	return err
}

// Reset interrupts any in-flight work and returns the session to
// Ready. It is legal in every non-terminal state.
func (c *Conn) Reset(ctx context.Context) error {
	_, _, err := c.do(ctx, session.KindReset, message.NewReset())
	return err
}

// Begin opens an explicit transaction (v3 only). The session's most
// recent bookmark is folded into the metadata unless the caller set
// "bookmarks" themselves.
func (c *Conn) Begin(ctx context.Context, metadata *value.Map) error {
	if metadata == nil {
		metadata = value.NewMap()
	}
	if _, ok := metadata.Get("bookmarks"); !ok {
		if bm := c.sess.Bookmark(); bm != "" {
			metadata.Set("bookmarks", value.List([]value.Value{value.String(bm)}))
		}
	}
	if _, ok := metadata.Get("tx_timeout"); !ok && c.cfg.TxTimeout > 0 {
		metadata.Set("tx_timeout", value.Int(c.cfg.TxTimeout.Milliseconds()))
	}
	_, _, err := c.do(ctx, session.KindBegin, message.NewBegin(metadata))
	return err
}

// Commit commits the open transaction and returns its bookmark.
func (c *Conn) Commit(ctx context.Context) (string, error) {
	_, _, err := c.do(ctx, session.KindCommit, message.NewCommit())
	if err != nil {
		return "", err
	}
	return c.sess.Bookmark(), nil
}

// Rollback aborts the open transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	_, _, err := c.do(ctx, session.KindRollback, message.NewRollback())
	return err
}

// do submits kind, writes msg, and blocks until its terminal response
// arrives, accumulating any RECORDs seen along the way. It is the
// single chokepoint every exported request method funnels through.
func (c *Conn) do(ctx context.Context, kind session.RequestKind, msg message.Message) (*value.Map, []Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrClosed
	}

	outcome, err := c.sess.Submit(kind)
	if err != nil {
		return nil, nil, err
	}

	if err := c.setWriteDeadline(ctx); err != nil {
		c.sess.MarkDefunct()
		return nil, nil, err
	}
	if err := c.writeMessage(msg); err != nil {
		c.sess.MarkDefunct()
		return nil, nil, err
	}
	c.metrics.ObserveSent(kind.String())
	if kind == session.KindReset {
		c.metrics.ObserveReset()
	}

	var records []Record
	for {
		if err := c.setReadDeadline(ctx); err != nil {
			c.sess.MarkDefunct()
			return nil, nil, err
		}
		raw, err := c.cr.ReadMessage()
		if err != nil {
			// Transport failure or timeout: framing alignment is gone,
			// the connection cannot be reused.
			c.sess.MarkDefunct()
			return nil, nil, err
		}
		c.metrics.ObserveChunkRead()
		resp, err := message.Decode(raw, c.version)
		if err != nil {
			c.sess.MarkDefunct()
			return nil, nil, err
		}
		c.metrics.ObserveReceived(fmt.Sprintf("%#x", byte(resp.Signature)))

		if resp.Signature == message.SigRecord {
			_, deliverOutcome, err := c.sess.HandleResponse(resp.Signature)
			if err != nil {
				return nil, nil, err
			}
			if deliverOutcome == session.OutcomeDeliver {
				records = append(records, Record(resp.Fields))
			}
			continue
		}

		gotKind, deliverOutcome, err := c.sess.HandleResponse(resp.Signature)
		if err != nil {
			logs.Errf("bolt request=%s response pairing: %v", kind, err)
			return nil, records, err
		}

		if outcome == session.OutcomeIgnored || deliverOutcome == session.OutcomeIgnored {
			return nil, records, IgnoredError{Request: gotKind.String()}
		}

		switch resp.Signature {
		case message.SigSuccess:
			meta := successMeta(resp)
			// The server may hand back a bookmark on any terminal
			// SUCCESS; the most recent one feeds the next BEGIN.
			if bm, ok := meta.Get("bookmark"); ok {
				if s, ok := bm.AsString(); ok && s != "" {
					c.sess.SetBookmark(s)
				}
			}
			return meta, records, nil
		case message.SigFailure:
			code, text := failureFields(resp)
			c.metrics.ObserveFailure()
			logs.Warnf("bolt request=%s failed code=%s msg=%q", kind, code, text)
			if kind == session.KindInit {
				return nil, records, session.AuthError{Code: code, Message: text}
			}
			return nil, records, session.ServerFailure{Code: code, Message: text}
		default:
			return nil, records, fmt.Errorf("bolt: unexpected response signature %#x", byte(resp.Signature))
		}
	}
}

func (c *Conn) writeMessage(msg message.Message) error {
	encoded, err := message.Encode(msg, c.version)
	if err != nil {
		return err
	}
	if _, err := c.cw.Write(encoded); err != nil {
		return err
	}
	if err := c.cw.EndMessage(); err != nil {
		return err
	}
	c.metrics.ObserveChunkWritten()
	return nil
}

func (c *Conn) setWriteDeadline(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return c.raw.SetWriteDeadline(deadline)
}

func (c *Conn) setReadDeadline(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.ReadTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return c.raw.SetReadDeadline(deadline)
}

func successMeta(msg message.Message) *value.Map {
	if len(msg.Fields) == 0 {
		return value.NewMap()
	}
	m, ok := msg.Fields[0].AsMap()
	if !ok {
		return value.NewMap()
	}
	return m
}

func failureFields(msg message.Message) (code, text string) {
	m := successMeta(msg)
	if v, ok := m.Get("code"); ok {
		code, _ = v.AsString()
	}
	if v, ok := m.Get("message"); ok {
		text, _ = v.AsString()
	}
	return code, text
}
