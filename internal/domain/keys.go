package domain

import "fmt"

// PublicKey is a Curve25519 public key.
type PublicKey [32]byte

// PrivateKey is a Curve25519 private key. It never leaves the process.
type PrivateKey [32]byte

func (k PublicKey) Slice() []byte  { return k[:] }
func (k PrivateKey) Slice() []byte { return k[:] }

// IsZero reports whether k is unset.
func (k PublicKey) IsZero() bool { return k == PublicKey{} }

// String prints the public key in its textual form (public:<hex>).
func (k PublicKey) String() string { return fmt.Sprintf("public:%x", k[:]) }

// String hides the key material so it cannot end up in a log line.
func (k PrivateKey) String() string { return "private:<redacted>" }

func MustPublicKey(b []byte) PublicKey {
	if len(b) != 32 {
		panic(fmt.Errorf("public key: want 32 bytes, got %d", len(b)))
	}
	var out PublicKey
	copy(out[:], b)
	return out
}
