// Package blob encrypts attachments and uploads them to the gateway.
//
// File and video content is sealed with NaCl secretbox under a random key
// shared by all blobs of one message; the main content uses FileNonce and
// the thumbnail ThumbnailNonce, so a key never sees the same nonce twice.
// Legacy image blobs are sealed with NaCl box for the recipient under a
// fresh random nonce instead.
package blob
