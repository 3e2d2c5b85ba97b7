// Package envelope turns an encoded payload into the encrypted envelope
// submitted to the gateway, and back.
//
// Seal appends random padding (1..255 bytes, each byte holding the padding
// length, total length at least MinPaddedLength) and encrypts the result with
// NaCl box under a fresh random nonce. Open reverses both steps; it exists
// for verification and tests since the client never receives messages.
package envelope
