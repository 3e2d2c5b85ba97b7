// Package crypto exposes the minimal primitives used by the gateway client.
//
// Contents
//
//   - Curve25519 key generation and derivation (GenerateKeyPair, PublicFromPrivate)
//   - Textual key encoding, "public:<hex>" and "private:<hex>" (EncodePublicKey,
//     DecodePublicKey, EncodePrivateKey, DecodePrivateKey)
//   - NaCl box (X25519, XSalsa20-Poly1305) for messages and legacy image blobs
//     (BoxSeal, BoxOpen)
//   - NaCl secretbox (XSalsa20-Poly1305) for file and video blobs (SecretSeal,
//     SecretOpen, NewSecretKey)
//   - Fresh random nonces (NewNonce)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Keys are the fixed-size array types defined in internal/domain. Nonces are
// always drawn from the supplied reader (crypto/rand in production); a nonce
// must never be reused with the same key pair.
package crypto
