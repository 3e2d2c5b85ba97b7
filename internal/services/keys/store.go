package keys

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/store"
)

// Options configure a Store.
type Options struct {
	Gateway      domain.Gateway  // remote lookups; nil disables them
	Cache        domain.KeyCache // defaults to an unbounded-lifetime memory cache
	VerifyPinned bool
	Logger       *zap.Logger
}

// Store is the connection's key resolver. It is safe for concurrent use.
type Store struct {
	gw     domain.Gateway
	cache  domain.KeyCache
	verify bool
	log    *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	pinned map[domain.Identity]domain.PublicKey
}

// New returns a Store.
func New(opts Options) *Store {
	cache := opts.Cache
	if cache == nil {
		cache = store.NewMemoryKeyCache(0)
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		gw:     opts.Gateway,
		cache:  cache,
		verify: opts.VerifyPinned,
		log:    lg.Named("keys"),
		pinned: make(map[domain.Identity]domain.PublicKey),
	}
}

var _ domain.KeyResolver = (*Store)(nil)

// Resolve returns the public key of id.
func (s *Store) Resolve(ctx context.Context, id domain.Identity, hint domain.KeyHint) (domain.PublicKey, error) {
	const op = "resolve"
	if !id.Valid() {
		return domain.PublicKey{}, domain.E(domain.ErrUnknownIdentity, op, errors.New("malformed identity")).WithID(id)
	}

	if pk, ok := hint.Literal(); ok {
		return s.trusted(ctx, id, pk, "literal")
	}
	if path, ok := hint.File(); ok {
		pk, err := store.ReadPublicKeyFile(path)
		if err != nil {
			return domain.PublicKey{}, domain.E(domain.ErrUnknownIdentity, op, err).WithID(id)
		}
		return s.trusted(ctx, id, pk, "file")
	}

	s.mu.RLock()
	pk, ok := s.pinned[id]
	s.mu.RUnlock()
	if ok {
		return s.trusted(ctx, id, pk, "pinned")
	}

	pk, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("key cache read failed", zap.String("id", string(id)), zap.Error(err))
	} else if ok {
		s.log.Debug("key resolved", zap.String("id", string(id)), zap.String("source", "cache"))
		return pk, nil
	}
	return s.fetch(ctx, id)
}

// Pin records a trusted key for id. Remote lookups never replace it.
func (s *Store) Pin(id domain.Identity, pk domain.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned[id] = pk
}

// Invalidate drops the cached key of id. Pinned keys stay.
func (s *Store) Invalidate(ctx context.Context, id domain.Identity) error {
	return s.cache.Delete(ctx, id)
}

// Clear drops every cached and pinned key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	clear(s.pinned)
	s.mu.Unlock()
	return s.cache.Clear(ctx)
}

// trusted returns pk, checking it against the gateway first when verification is on.
func (s *Store) trusted(ctx context.Context, id domain.Identity, pk domain.PublicKey, source string) (domain.PublicKey, error) {
	if s.verify && s.gw != nil {
		remote, err := s.lookup(ctx, id)
		if err != nil {
			return domain.PublicKey{}, err
		}
		if !equal(remote, pk) {
			return domain.PublicKey{}, mismatch(id, pk, remote)
		}
	}
	s.log.Debug("key resolved",
		zap.String("id", string(id)),
		zap.String("source", source),
		zap.String("fingerprint", crypto.Fingerprint(pk)))
	return pk, nil
}

// fetch looks id up remotely, once per identity at a time, and caches the result.
// The shared lookup is detached from the caller that started it: a caller that
// gives up only stops waiting. Closing the connection still aborts the lookup.
func (s *Store) fetch(ctx context.Context, id domain.Identity) (domain.PublicKey, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(string(id), func() (any, error) {
		pk, err := s.lookup(shared, id)
		if err != nil {
			return nil, err
		}
		s.mu.RLock()
		pinned, ok := s.pinned[id]
		s.mu.RUnlock()
		if ok && !equal(pinned, pk) {
			return nil, mismatch(id, pinned, pk)
		}
		if err := s.cache.Put(shared, id, pk); err != nil {
			s.log.Warn("key cache write failed", zap.String("id", string(id)), zap.Error(err))
		}
		return pk, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.PublicKey{}, domain.E(domain.ErrTransport, "lookup", ctx.Err()).WithID(id)
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.PublicKey{}, res.Err
	}
	pk := res.Val.(domain.PublicKey)
	s.log.Debug("key resolved",
		zap.String("id", string(id)),
		zap.String("source", "remote"),
		zap.Bool("shared", res.Shared),
		zap.String("fingerprint", crypto.Fingerprint(pk)))
	return pk, nil
}

func (s *Store) lookup(ctx context.Context, id domain.Identity) (domain.PublicKey, error) {
	if s.gw == nil {
		return domain.PublicKey{}, domain.E(domain.ErrUnknownIdentity, "resolve", errors.New("no key and no gateway to ask")).WithID(id)
	}
	return s.gw.LookupPublicKey(ctx, id)
}

func equal(a, b domain.PublicKey) bool { return subtle.ConstantTimeCompare(a[:], b[:]) == 1 }

func mismatch(id domain.Identity, want, got domain.PublicKey) error {
	return domain.E(domain.ErrKeyMismatch, "resolve",
		fmt.Errorf("expected %s, gateway has %s", crypto.Fingerprint(want), crypto.Fingerprint(got))).WithID(id)
}
