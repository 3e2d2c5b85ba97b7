package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"e2egateway/internal/domain"
)

// GenerateKeyPair returns a fresh Curve25519 key pair read from r.
func GenerateKeyPair(r io.Reader) (domain.PrivateKey, domain.PublicKey, error) {
	pub, priv, err := box.GenerateKey(r)
	if err != nil {
		return domain.PrivateKey{}, domain.PublicKey{}, fmt.Errorf("generate key pair: %w", err)
	}
	defer Wipe(priv[:])
	return domain.PrivateKey(*priv), domain.PublicKey(*pub), nil
}

// PublicFromPrivate derives the public half of priv.
func PublicFromPrivate(priv domain.PrivateKey) (domain.PublicKey, error) {
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.PublicKey{}, err
	}
	return domain.MustPublicKey(pb), nil
}
