// Package identity creates and loads the gateway's own key pair.
//
// It enforces the passphrase policy for sealed key files, generates
// Curve25519 key pairs and persists them through internal/store.
package identity
