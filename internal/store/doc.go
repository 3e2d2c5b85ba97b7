// Package store persists and caches key material.
//
// Contents
//
//   - Key files holding one "public:<hex>" or "private:<hex>" line. A private
//     key file may instead be sealed with a passphrase (scrypt and
//     ChaCha20-Poly1305, JSON on disk).
//   - MemoryKeyCache, a process-local public key cache.
//   - RedisKeyCache, a public key cache shared between processes.
//
// # Notes
//
// Writes go through a temp file and a rename so a crash never leaves a
// half-written key behind. Private key files are created with mode 0600.
package store
