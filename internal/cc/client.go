// Package cc is the Coordination Client: a thin adapter over etcd that
// gives the rest of the core session-scoped ephemeral semantics, atomic
// writes, and a connection-state channel; etcd's own client types cross
// this package's boundary only through Session (spec.md §4.1).
package cc

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.uber.org/zap"
)

// Client is the Coordination Client. One Client owns one session lease;
// ephemeral nodes created through it vanish together when the session
// is lost, matching spec.md's "LOST forfeits all ephemeral nodes"
// guarantee.
type Client struct {
	cfg Config
	log *zap.Logger

	raw     *clientv3.Client
	session *concurrency.Session

	stateMu   sync.RWMutex
	stateSubs []func(ConnState)

	mu     sync.Mutex
	closed bool
}

// NewClient dials etcd and establishes the session lease CC uses for
// ephemeral nodes.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	raw, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.ConnectionTimeout,
	})
	if err != nil {
		return nil, Classify("dial", err)
	}

	session, err := concurrency.NewSession(raw, concurrency.WithTTL(int(cfg.SessionTimeout.Seconds())))
	if err != nil {
		raw.Close()
		return nil, Classify("new-session", err)
	}

	c := &Client{
		cfg:     cfg,
		log:     log.Named("cc"),
		raw:     raw,
		session: session,
	}
	go c.watchSession()
	return c, nil
}

// watchSession publishes LOST when the session's lease expires or is
// revoked; CC itself does not attempt to reconnect (NC owns restart, per
// spec.md §4.5's RECONNECTED handling).
func (c *Client) watchSession() {
	<-c.session.Done()
	c.mu.Lock()
	closing := c.closed
	c.mu.Unlock()
	if closing {
		return
	}
	c.publishState(StateLost)
}

// Session exposes the underlying concurrency.Session. SE's leader
// election does not use it (it goes through CreateEphemeralExclusive),
// and no other package in this module calls it.
func (c *Client) Session() *concurrency.Session { return c.session }

// Namespace returns the configured namespace prefix.
func (c *Client) Namespace() string { return c.cfg.Namespace }

func (c *Client) fullPath(path string) string {
	return c.cfg.Namespace + path
}

// Close releases the session lease and closes the underlying client.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	var err error
	if e := c.session.Close(); e != nil {
		err = e
	}
	if e := c.raw.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// withTimeout is a convenience for bounding a single store operation to
// the configured connection timeout when the caller didn't already set
// a deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.ConnectionTimeout)
}
