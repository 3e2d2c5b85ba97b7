package crypto

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"e2egateway/internal/domain"
)

const (
	KeyBytes   = 32
	NonceBytes = 24
	Overhead   = box.Overhead // Poly1305 tag
)

// ErrOpen is returned when a box or secretbox fails to authenticate.
var ErrOpen = errors.New("crypto: message authentication failed")

// NewNonce reads a fresh 24-byte nonce from r.
func NewNonce(r io.Reader) (nonce [NonceBytes]byte, err error) {
	if _, err = io.ReadFull(r, nonce[:]); err != nil {
		err = fmt.Errorf("nonce: %w", err)
	}
	return
}

// NewSecretKey reads a fresh symmetric key from r.
func NewSecretKey(r io.Reader) (key [KeyBytes]byte, err error) {
	if _, err = io.ReadFull(r, key[:]); err != nil {
		err = fmt.Errorf("secret key: %w", err)
	}
	return
}

// BoxSeal encrypts msg from priv to peer.
func BoxSeal(msg []byte, nonce *[NonceBytes]byte, peer domain.PublicKey, priv domain.PrivateKey) []byte {
	pk, sk := [32]byte(peer), [32]byte(priv)
	defer Wipe(sk[:])
	return box.Seal(nil, msg, nonce, &pk, &sk)
}

// BoxOpen decrypts a box sent by peer to priv.
func BoxOpen(sealed []byte, nonce *[NonceBytes]byte, peer domain.PublicKey, priv domain.PrivateKey) ([]byte, error) {
	pk, sk := [32]byte(peer), [32]byte(priv)
	defer Wipe(sk[:])
	out, ok := box.Open(nil, sealed, nonce, &pk, &sk)
	if !ok {
		return nil, ErrOpen
	}
	return out, nil
}

// SecretSeal encrypts msg under a symmetric key.
func SecretSeal(msg []byte, nonce *[NonceBytes]byte, key *[KeyBytes]byte) []byte {
	return secretbox.Seal(nil, msg, nonce, key)
}

// SecretOpen reverses SecretSeal.
func SecretOpen(sealed []byte, nonce *[NonceBytes]byte, key *[KeyBytes]byte) ([]byte, error) {
	out, ok := secretbox.Open(nil, sealed, nonce, key)
	if !ok {
		return nil, ErrOpen
	}
	return out, nil
}
