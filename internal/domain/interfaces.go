package domain

import (
	"context"

	"go.uber.org/zap"
)

// ------------- Gateway -------------

// Gateway is the remote API the client talks to.
type Gateway interface {
	LookupPublicKey(ctx context.Context, id Identity) (PublicKey, error)
	SendE2E(ctx context.Context, env Envelope) (string, error)
	UploadBlob(ctx context.Context, data []byte) (BlobID, error)
	Credits(ctx context.Context) (int, error)
	Capabilities(ctx context.Context, id Identity) (Capabilities, error)
}

// ------------- Keys -------------

// KeyCache stores resolved public keys. Implementations must be safe for
// concurrent use.
type KeyCache interface {
	Get(ctx context.Context, id Identity) (PublicKey, bool, error)
	Put(ctx context.Context, id Identity, key PublicKey) error
	Delete(ctx context.Context, id Identity) error
	Clear(ctx context.Context) error
}

// KeyHint is what the caller already knows about a peer's key: nothing, the
// key itself, or a file holding it.
type KeyHint struct {
	key  *PublicKey
	path string
}

func NoHint() KeyHint                  { return KeyHint{} }
func LiteralKey(pk PublicKey) KeyHint  { return KeyHint{key: &pk} }
func KeyFile(path string) KeyHint      { return KeyHint{path: path} }
func (h KeyHint) File() (string, bool) { return h.path, h.path != "" }

func (h KeyHint) Literal() (PublicKey, bool) {
	if h.key == nil {
		return PublicKey{}, false
	}
	return *h.key, true
}

// KeyResolver maps identities to public keys.
type KeyResolver interface {
	Resolve(ctx context.Context, id Identity, hint KeyHint) (PublicKey, error)
}

// ------------- Blobs -------------

// BlobUploader encrypts and uploads attachments.
type BlobUploader interface {
	// Upload seals data with a symmetric key and nonce (file and video layouts).
	Upload(ctx context.Context, data []byte, key [32]byte, nonce [24]byte) (BlobReference, error)
	// UploadForPeer seals data for peer with a fresh nonce (legacy image layout).
	UploadForPeer(ctx context.Context, data []byte, peer PublicKey, priv PrivateKey) (BlobReference, error)
}

// ------------- Connection -------------

// Limits bound message sizes before anything leaves the process.
type Limits struct {
	MaxTextLength  int   // bytes of text or caption
	MaxPayloadSize int   // bytes of an encoded payload, before padding
	MaxBlobSize    int64 // bytes of an encrypted blob
}

// Session is what a message needs from an open connection.
type Session interface {
	Identity() Identity
	PrivateKey() PrivateKey
	Keys() KeyResolver
	Blobs() BlobUploader
	Gateway() Gateway
	Limits() Limits
	CheckCapabilities() bool
	Logger() *zap.Logger
	Closed() bool
}
