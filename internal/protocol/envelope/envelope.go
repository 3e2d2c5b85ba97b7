package envelope

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// MinPaddedLength hides the length of very short messages.
const MinPaddedLength = 32

// ErrBadPadding is returned by Unpad and Open for inconsistent padding.
var ErrBadPadding = errors.New("envelope: bad padding")

// Sealer encrypts payloads. The zero value reads randomness from crypto/rand.
type Sealer struct {
	Rand io.Reader
}

func (s Sealer) rand() io.Reader {
	if s.Rand == nil {
		return rand.Reader
	}
	return s.Rand
}

// Seal pads and encrypts payload from priv to peer.
func (s Sealer) Seal(to domain.Identity, payload []byte, peer domain.PublicKey, priv domain.PrivateKey) (domain.Envelope, error) {
	padded, err := Pad(s.rand(), payload)
	if err != nil {
		return domain.Envelope{}, domain.E(domain.ErrEncryptionFailed, "encrypt", err).WithID(to)
	}
	nonce, err := crypto.NewNonce(s.rand())
	if err != nil {
		return domain.Envelope{}, domain.E(domain.ErrEncryptionFailed, "encrypt", err).WithID(to)
	}
	return domain.Envelope{
		To:    to,
		Nonce: nonce,
		Box:   crypto.BoxSeal(padded, &nonce, peer, priv),
	}, nil
}

// Seal uses crypto/rand.
func Seal(to domain.Identity, payload []byte, peer domain.PublicKey, priv domain.PrivateKey) (domain.Envelope, error) {
	return Sealer{}.Seal(to, payload, peer, priv)
}

// Open decrypts env sent by sender to priv and strips the padding.
func Open(env domain.Envelope, sender domain.PublicKey, priv domain.PrivateKey) ([]byte, error) {
	padded, err := crypto.BoxOpen(env.Box, &env.Nonce, sender, priv)
	if err != nil {
		return nil, err
	}
	return Unpad(padded)
}

// Pad appends PKCS#7-style random-length padding to b.
func Pad(r io.Reader, b []byte) ([]byte, error) {
	var rb [1]byte
	if _, err := io.ReadFull(r, rb[:]); err != nil {
		return nil, fmt.Errorf("padding: %w", err)
	}
	n := int(rb[0])
	if n == 0 {
		n = 1
	}
	if len(b)+n < MinPaddedLength {
		n = MinPaddedLength - len(b)
	}
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out, nil
}

// Unpad removes padding added by Pad.
func Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > len(b) {
		return nil, ErrBadPadding
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, ErrBadPadding
		}
	}
	return b[:len(b)-n], nil
}
