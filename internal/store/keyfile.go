package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// ErrPassphraseRequired is returned for a sealed private key file read without a passphrase.
var ErrPassphraseRequired = errors.New("key file is sealed; passphrase required")

// ReadPublicKeyFile reads a "public:<hex>" key file.
func ReadPublicKeyFile(path string) (domain.PublicKey, error) {
	b, err := readKeyFile(path)
	if err != nil {
		return domain.PublicKey{}, err
	}
	pk, err := crypto.DecodePublicKey(string(b))
	if err != nil {
		return domain.PublicKey{}, fmt.Errorf("key file %s: %w", path, err)
	}
	return pk, nil
}

// WritePublicKeyFile writes pk in its textual form.
func WritePublicKeyFile(path string, pk domain.PublicKey) error {
	return writeFile(path, []byte(crypto.EncodePublicKey(pk)+"\n"), 0o644)
}

// ReadPrivateKeyFile reads a private key file, plain or sealed.
func ReadPrivateKeyFile(path, passphrase string) (domain.PrivateKey, error) {
	b, err := readKeyFile(path)
	if err != nil {
		return domain.PrivateKey{}, err
	}
	defer crypto.Wipe(b)

	if t := bytes.TrimSpace(b); len(t) > 0 && t[0] == '{' {
		if passphrase == "" {
			return domain.PrivateKey{}, fmt.Errorf("key file %s: %w", path, ErrPassphraseRequired)
		}
		raw, err := unseal(passphrase, t)
		if err != nil {
			return domain.PrivateKey{}, fmt.Errorf("key file %s: %w", path, err)
		}
		defer crypto.Wipe(raw)
		b = raw
	}
	k, err := crypto.DecodePrivateKey(string(b))
	if err != nil {
		return domain.PrivateKey{}, fmt.Errorf("key file %s: %w", path, err)
	}
	return k, nil
}

// WritePrivateKeyFile writes priv with mode 0600, sealed when passphrase is set.
func WritePrivateKeyFile(path string, priv domain.PrivateKey, passphrase string) error {
	raw := []byte(crypto.EncodePrivateKey(priv))
	defer crypto.Wipe(raw)
	if passphrase == "" {
		return writeFile(path, append(raw, '\n'), 0o600)
	}
	b, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return writeFile(path, b, 0o600)
}

func readKeyFile(path string) ([]byte, error) {
	b, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	if b == nil {
		return nil, fmt.Errorf("key file %s: %w", path, os.ErrNotExist)
	}
	return b, nil
}
