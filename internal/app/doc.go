// Package app wires a gateway connection from configuration.
//
// Config is loaded from GATEWAY_* environment variables (optionally from a
// .env file) and validated. Open builds the gateway client, key store, key
// cache and blob uploader from it and returns them as a Connection, which
// every message borrows while sending.
//
// # Notes
//
// A Connection is a scoped session: Close aborts in-flight requests, closes
// the key cache backend and wipes the private key. With wraps Open and Close
// around a function so the session cannot leak.
package app
