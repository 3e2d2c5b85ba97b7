// Package mockgateway is an in-memory implementation of the gateway HTTP API
// for development and tests.
//
// It serves the same endpoints as the real gateway plus GET /blobs/{id} for
// fetching uploaded blobs, keeps everything in memory and records every call
// so tests can assert on ordering. Failures can be injected per operation
// with Fail.
//
// # Notes
//
// The mock charges one credit per accepted message and never delivers
// anything; Sent exposes the submitted envelopes instead.
package mockgateway
