package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/gateway"
	"e2egateway/internal/services/blob"
	"e2egateway/internal/services/identity"
	"e2egateway/internal/services/keys"
	"e2egateway/internal/store"
)

// Connection bundles the gateway client, key store and blob uploader of one
// gateway identity.
type Connection struct {
	id     domain.Identity
	priv   domain.PrivateKey
	pub    domain.PublicKey
	limits domain.Limits
	caps   bool
	log    *zap.Logger

	gw    *gateway.Client
	keys  *keys.Store
	blobs *blob.Uploader
	cache io.Closer // non-nil for shared cache backends

	mu     sync.RWMutex
	closed bool
}

// Open validates cfg and builds a Connection. ctx bounds the setup only.
func Open(ctx context.Context, cfg Config) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	id := domain.Identity(cfg.Identity)
	lg = lg.With(zap.String("identity", string(id)))

	priv, err := identity.Load(cfg.PrivateKey, cfg.PrivateKeyFile, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pub, err := crypto.PublicFromPrivate(priv)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	gw := gateway.New(gateway.Config{
		BaseURL:  cfg.BaseURL,
		Identity: id,
		Secret:   cfg.Secret,
		HTTP:     hc,
		Logger:   lg,
	})

	var (
		cache  domain.KeyCache
		closer io.Closer
	)
	if cfg.KeyCacheRedisURL != "" {
		rc, err := store.OpenRedisKeyCache(ctx, cfg.KeyCacheRedisURL, "", cfg.KeyCacheTTL)
		if err != nil {
			_ = gw.Close()
			crypto.Wipe(priv[:])
			return nil, err
		}
		cache, closer = rc, rc
	} else {
		cache = store.NewMemoryKeyCache(cfg.KeyCacheTTL)
	}

	c := &Connection{
		id:   id,
		priv: priv,
		pub:  pub,
		limits: domain.Limits{
			MaxTextLength:  cfg.MaxTextLength,
			MaxPayloadSize: cfg.MaxPayloadSize,
			MaxBlobSize:    cfg.MaxBlobSize,
		},
		caps:  cfg.CheckCapabilities,
		log:   lg,
		gw:    gw,
		keys:  keys.New(keys.Options{Gateway: gw, Cache: cache, VerifyPinned: cfg.VerifyPinnedKeys, Logger: lg}),
		blobs: blob.New(blob.Options{Gateway: gw, MaxBlobSize: cfg.MaxBlobSize, Logger: lg}),
		cache: closer,
	}
	pins, _ := cfg.pinned() // checked by Validate
	for pid, pk := range pins {
		c.keys.Pin(pid, pk)
	}
	lg.Debug("connection open", zap.String("fingerprint", crypto.Fingerprint(pub)), zap.Int("pinned", len(pins)))
	return c, nil
}

// With opens a Connection, runs fn and closes the Connection however fn returns.
func With(ctx context.Context, cfg Config, fn func(*Connection) error) (err error) {
	c, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// Close aborts in-flight requests, waits for them and releases resources.
// It is safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var errs []error
	errs = append(errs, c.gw.Close())
	if c.cache != nil {
		errs = append(errs, c.cache.Close())
	}
	c.mu.Lock()
	crypto.Wipe(c.priv[:])
	c.mu.Unlock()
	c.log.Debug("connection closed")
	return errors.Join(errs...)
}

// Closed reports whether Close was called.
func (c *Connection) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

var _ domain.Session = (*Connection)(nil)

func (c *Connection) Identity() domain.Identity   { return c.id }
func (c *Connection) PublicKey() domain.PublicKey { return c.pub }
func (c *Connection) Keys() domain.KeyResolver    { return c.keys }
func (c *Connection) Blobs() domain.BlobUploader  { return c.blobs }
func (c *Connection) Gateway() domain.Gateway     { return c.gw }
func (c *Connection) Limits() domain.Limits       { return c.limits }
func (c *Connection) CheckCapabilities() bool     { return c.caps }
func (c *Connection) Logger() *zap.Logger         { return c.log }

// PrivateKey returns a copy of the private key; it is zero after Close.
func (c *Connection) PrivateKey() domain.PrivateKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.priv
}

// LookupPublicKey resolves id through the key store (cache first).
func (c *Connection) LookupPublicKey(ctx context.Context, id domain.Identity) (domain.PublicKey, error) {
	if c.Closed() {
		return domain.PublicKey{}, closedErr("lookup")
	}
	return c.keys.Resolve(ctx, id, domain.NoHint())
}

// Credits returns the remaining message credits.
func (c *Connection) Credits(ctx context.Context) (int, error) {
	if c.Closed() {
		return 0, closedErr("credits")
	}
	return c.gw.Credits(ctx)
}

// Capabilities returns what id's client can receive.
func (c *Connection) Capabilities(ctx context.Context, id domain.Identity) (domain.Capabilities, error) {
	if c.Closed() {
		return nil, closedErr("capabilities")
	}
	return c.gw.Capabilities(ctx, id)
}

func closedErr(op string) error { return domain.E(domain.ErrTransport, op, domain.ErrClosed) }
