package blob

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// DefaultMaxBlobSize is the gateway's limit for one encrypted blob.
const DefaultMaxBlobSize = 50 << 20

// Fixed nonces for blobs sealed under a per-message key.
var (
	FileNonce      = [crypto.NonceBytes]byte{23: 1}
	ThumbnailNonce = [crypto.NonceBytes]byte{23: 2}
)

// Options configure an Uploader.
type Options struct {
	Gateway     domain.Gateway
	MaxBlobSize int64     // defaults to DefaultMaxBlobSize
	Rand        io.Reader // defaults to crypto/rand
	Logger      *zap.Logger
}

// Uploader seals and uploads blobs. Uploads are attempted once.
type Uploader struct {
	gw   domain.Gateway
	max  int64
	rand io.Reader
	log  *zap.Logger
}

// New returns an Uploader.
func New(opts Options) *Uploader {
	limit := opts.MaxBlobSize
	if limit <= 0 || limit > math.MaxUint32 {
		limit = DefaultMaxBlobSize
	}
	r := opts.Rand
	if r == nil {
		r = rand.Reader
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Uploader{gw: opts.Gateway, max: limit, rand: r, log: lg.Named("blob")}
}

var _ domain.BlobUploader = (*Uploader)(nil)

// NewKey draws a fresh symmetric blob key.
func (u *Uploader) NewKey() ([crypto.KeyBytes]byte, error) {
	k, err := crypto.NewSecretKey(u.rand)
	if err != nil {
		return k, domain.E(domain.ErrEncryptionFailed, "blob key", err)
	}
	return k, nil
}

// Upload seals data under key and nonce and uploads it.
func (u *Uploader) Upload(ctx context.Context, data []byte, key [32]byte, nonce [24]byte) (domain.BlobReference, error) {
	if err := u.check(data); err != nil {
		return domain.BlobReference{}, err
	}
	sealed := crypto.SecretSeal(data, &nonce, &key)
	ref, err := u.upload(ctx, sealed)
	if err != nil {
		return domain.BlobReference{}, err
	}
	ref.Key, ref.Nonce = key, nonce
	return ref, nil
}

// UploadForPeer seals data for peer under a fresh nonce and uploads it.
func (u *Uploader) UploadForPeer(ctx context.Context, data []byte, peer domain.PublicKey, priv domain.PrivateKey) (domain.BlobReference, error) {
	if err := u.check(data); err != nil {
		return domain.BlobReference{}, err
	}
	nonce, err := crypto.NewNonce(u.rand)
	if err != nil {
		return domain.BlobReference{}, domain.E(domain.ErrEncryptionFailed, "upload", err)
	}
	ref, err := u.upload(ctx, crypto.BoxSeal(data, &nonce, peer, priv))
	if err != nil {
		return domain.BlobReference{}, err
	}
	ref.Nonce = nonce
	return ref, nil
}

func (u *Uploader) check(data []byte) error {
	if len(data) == 0 {
		return domain.E(domain.ErrInvalidMessage, "upload", errors.New("empty blob"))
	}
	if n := int64(len(data)) + crypto.Overhead; n > u.max {
		return domain.E(domain.ErrBlobTooLarge, "upload", fmt.Errorf("blob is %d bytes sealed, limit %d", n, u.max))
	}
	return nil
}

func (u *Uploader) upload(ctx context.Context, sealed []byte) (domain.BlobReference, error) {
	id, err := u.gw.UploadBlob(ctx, sealed)
	if err != nil {
		u.log.Debug("upload failed", zap.Int("size", len(sealed)), zap.Error(err))
		return domain.BlobReference{}, err
	}
	u.log.Debug("uploaded", zap.Stringer("blob", id), zap.Int("size", len(sealed)))
	return domain.BlobReference{ID: id, Size: uint32(len(sealed))}, nil
}
