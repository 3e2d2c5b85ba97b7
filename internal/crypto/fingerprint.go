package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"e2egateway/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key, safe to log.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub domain.PublicKey) string {
	sum := sha256.Sum256(pub[:])
	return hex.EncodeToString(sum[:10])
}
