package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"e2egateway/internal/domain"
)

const (
	publicPrefix  = "public:"
	privatePrefix = "private:"
)

// EncodePublicKey returns "public:<64 hex>".
func EncodePublicKey(k domain.PublicKey) string { return publicPrefix + hex.EncodeToString(k[:]) }

// EncodePrivateKey returns "private:<64 hex>".
func EncodePrivateKey(k domain.PrivateKey) string {
	return privatePrefix + hex.EncodeToString(k[:])
}

// DecodePublicKey parses "public:<hex>". Surrounding whitespace is ignored so
// the contents of a key file can be passed as is.
func DecodePublicKey(s string) (domain.PublicKey, error) {
	var k domain.PublicKey
	if err := decodeKey(s, publicPrefix, k[:]); err != nil {
		return k, err
	}
	return k, nil
}

// DecodePrivateKey parses "private:<hex>".
func DecodePrivateKey(s string) (domain.PrivateKey, error) {
	var k domain.PrivateKey
	if err := decodeKey(s, privatePrefix, k[:]); err != nil {
		return k, err
	}
	return k, nil
}

// DecodeHexKey parses a bare 64-char hex public key as served by the gateway.
func DecodeHexKey(s string) (domain.PublicKey, error) {
	var k domain.PublicKey
	s = strings.TrimSpace(s)
	if len(s) != 2*len(k) {
		return k, fmt.Errorf("public key: want %d hex chars, got %d", 2*len(k), len(s))
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return k, fmt.Errorf("public key: %w", err)
	}
	return k, nil
}

func decodeKey(s, prefix string, out []byte) error {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return fmt.Errorf("key: missing %q prefix", prefix)
	}
	if len(rest) != 2*len(out) {
		return fmt.Errorf("key: want %d hex chars, got %d", 2*len(out), len(rest))
	}
	if _, err := hex.Decode(out, []byte(rest)); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	return nil
}
