// Package client implements the session/task dispatch core (§4.3): the
// Connection owns one RPC channel to the frontend plus the bounded worker
// pool Session.Run submits to, and Session exposes the blocking and
// future-returning task invocation protocol.
package client

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/config"
	"github.com/flamesh/flame/objectcache"
	"github.com/flamesh/flame/telemetry"
)

// Connection owns one RPC channel to the frontend and a bounded worker pool
// used by sessions for async invocation (§4.3, §5).
type Connection struct {
	cfg      *config.Config
	grpcConn *grpc.ClientConn
	frontend *frontendStub
	cache    *objectcache.Client
	codec    objectcache.Codec
	pool     *pool
	logger   telemetry.Logger

	closeOnce sync.Once
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger supplies a Logger; defaults to a noop logger.
func WithLogger(l telemetry.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithCodec overrides the default object codec used for common_data and
// task input/output.
func WithCodec(codec objectcache.Codec) Option {
	return func(c *Connection) { c.codec = codec }
}

// Connect dials the frontend at cfg.FrontendAddr and constructs an object
// cache client against cfg.CacheAddr. The frontend's authentication and
// transport security are externally provided (spec.md §1 non-goals); this
// repo dials with insecure transport credentials, matching "no
// authentication" and leaving TLS/mTLS to a grpc.DialOption override point
// callers can add via their own Connect wrapper.
func Connect(ctx context.Context, cfg *config.Config, opts ...Option) (*Connection, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, flame.Wrap(flame.CodeInvalidConfig, err, "invalid configuration")
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, cfg.FrontendAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInvalidConfig, err, "dial frontend %s", cfg.FrontendAddr)
	}

	c := &Connection{
		cfg:      cfg,
		grpcConn: conn,
		frontend: &frontendStub{conn: conn},
		cache:    objectcache.New(cfg.CacheAddr),
		codec:    objectcache.DefaultCodec,
		pool:     newPool(cfg.PoolSize),
		logger:   telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultConn *Connection
	defaultErr  error
)

// Default lazily dials the process-wide singleton connection from
// environment-derived configuration (§4.3 "a singleton connection is lazily
// created from configuration"). Subsequent calls return the same
// Connection; Connect remains available for an explicit, independently
// configured connection.
func Default(ctx context.Context) (*Connection, error) {
	defaultOnce.Do(func() {
		cfg, err := config.Load("")
		if err != nil {
			defaultErr = err
			return
		}
		defaultConn, defaultErr = Connect(ctx, cfg)
	})
	return defaultConn, defaultErr
}

// RegisterApplication registers a new application with the frontend.
func (c *Connection) RegisterApplication(ctx context.Context, app flame.Application) (flame.ApplicationID, error) {
	return c.frontend.RegisterApplication(ctx, app)
}

// UnregisterApplication removes a registered application; idempotent.
func (c *Connection) UnregisterApplication(ctx context.Context, id flame.ApplicationID) error {
	return c.frontend.UnregisterApplication(ctx, id)
}

// GetApplication looks up one application by id.
func (c *Connection) GetApplication(ctx context.Context, id flame.ApplicationID) (flame.Application, error) {
	return c.frontend.GetApplication(ctx, id)
}

// ListApplication lists every registered application.
func (c *Connection) ListApplication(ctx context.Context) ([]flame.Application, error) {
	return c.frontend.ListApplication(ctx)
}

// Cache returns the object cache client this connection shares with all of
// its sessions, for callers building services layered on top (e.g. runner).
func (c *Connection) Cache() *objectcache.Client { return c.cache }

// Codec returns the default object codec this connection uses.
func (c *Connection) Codec() objectcache.Codec { return c.codec }

// Config returns the configuration this connection was built from.
func (c *Connection) Config() *config.Config { return c.cfg }

// NewConnectionForTesting builds a Connection around an already-dialed gRPC
// channel (e.g. a bufconn client), bypassing Connect's real network dial.
// Exported for use by other packages' tests against internal/testfrontend.
func NewConnectionForTesting(conn *grpc.ClientConn, cfg *config.Config) *Connection {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Connection{
		cfg:      cfg,
		grpcConn: conn,
		frontend: &frontendStub{conn: conn},
		cache:    objectcache.New(cfg.CacheAddr),
		codec:    objectcache.DefaultCodec,
		pool:     newPool(cfg.PoolSize),
		logger:   telemetry.NewNoopLogger(),
	}
}

// Close shuts the worker pool down, awaiting in-flight tasks, and closes the
// gRPC channel. Closing a session obtained from this connection does not
// close the connection (§5); the reverse also holds: closing a Connection
// does not close its sessions' server-side state.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.pool.closeAndWait()
		err = c.grpcConn.Close()
	})
	return err
}
