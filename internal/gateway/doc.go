// Package gateway implements the HTTP client for the message gateway API.
//
// Endpoints
//
//   - GET  /pubkeys/{id}        public key lookup (64 hex chars)
//   - POST /send_e2e            submit an encrypted envelope (form encoded)
//   - POST /upload_blob         upload an encrypted blob (multipart "blob")
//   - GET  /credits             remaining message credits
//   - GET  /capabilities/{id}   what a recipient's client can receive
//
// Every request is authenticated with the gateway identity ("from") and its
// API secret. Each call is attempted exactly once.
//
// # Notes
//
// A Client is a session: Close cancels requests still in flight, waits for
// them to return and drops idle connections. Calls made after Close fail with
// domain.ErrTransport wrapping domain.ErrClosed. HTTP statuses are mapped onto
// the domain error kinds in status.go.
package gateway
