package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"unicode"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/store"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrNoPrivateKey is returned when neither a literal key nor a key file is configured.
	ErrNoPrivateKey = errors.New("no private key configured")
)

// Files names where a generated key pair is written.
type Files struct {
	Private string
	Public  string
}

// Generate creates a key pair and writes it to files. An empty passphrase
// writes the private key in plain text; otherwise the file is sealed and the
// passphrase must satisfy the strength policy. It returns the public key and
// its fingerprint.
func Generate(files Files, passphrase string) (domain.PublicKey, string, error) {
	if passphrase != "" && !isSecurePassphrase(passphrase) {
		return domain.PublicKey{}, "", ErrWeakPassphrase
	}
	priv, pub, err := crypto.GenerateKeyPair(rand.Reader)
	if err != nil {
		return domain.PublicKey{}, "", err
	}
	defer crypto.Wipe(priv[:])

	if err := store.WritePrivateKeyFile(files.Private, priv, passphrase); err != nil {
		return domain.PublicKey{}, "", err
	}
	if files.Public != "" {
		if err := store.WritePublicKeyFile(files.Public, pub); err != nil {
			return domain.PublicKey{}, "", err
		}
	}
	return pub, crypto.Fingerprint(pub), nil
}

// Load returns the private key from literal ("private:<hex>") or, when that
// is empty, from the key file at path.
func Load(literal, path, passphrase string) (domain.PrivateKey, error) {
	switch {
	case literal != "":
		return crypto.DecodePrivateKey(literal)
	case path != "":
		return store.ReadPrivateKeyFile(path, passphrase)
	}
	return domain.PrivateKey{}, ErrNoPrivateKey
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
