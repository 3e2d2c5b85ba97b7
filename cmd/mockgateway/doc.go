// Package main runs the in-memory mock message gateway used during development
// and tests. It serves the same HTTP API the gateway client talks to.
//
// HTTP API
//
//	GET /pubkeys/{id}?from=&secret=
//	    Return the hex public key registered for {id}, or 404.
//
//	GET /credits?from=&secret=
//	    Return the remaining credits as a decimal number.
//
//	GET /capabilities/{id}?from=&secret=
//	    Return the comma separated capabilities of {id}.
//
//	POST /send_e2e (form: from, to, nonce, box, secret)
//	    Accept an encrypted message and return its message id. Each message
//	    costs one credit; 402 is returned when none are left.
//
//	POST /upload_blob?from=&secret= (multipart field "blob")
//	    Store an encrypted blob and return its hex id.
//
//	GET /blobs/{id}
//	    Return a stored blob.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Requests with a wrong identity or secret get 401.
//   - An access log records method, path, status and duration. Query strings
//     are never logged.
//   - The default listen address is :8080.
//
// The server never sees plaintext or private keys; it only stores ciphertext
// and public keys.
package main
