// Package keys resolves recipient identities to public keys.
//
// Resolution order
//
//  1. a literal key supplied with the message
//  2. a key file supplied with the message
//  3. a pinned key (Pin)
//  4. the key cache
//  5. a remote lookup, whose result is written to the cache
//
// Concurrent remote lookups for the same identity are collapsed into one
// request.
//
// # Notes
//
// Cached and pinned keys are trusted until Invalidate, Clear or the end of
// the connection. With VerifyPinned set, literal, file and pinned keys are
// compared against a fresh remote lookup and a difference fails with
// domain.ErrKeyMismatch. A remote result never replaces a pinned key.
package keys
