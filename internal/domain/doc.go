// Package domain defines core data models and interfaces shared across the
// gateway client. It contains plain types (keys, blobs, envelopes), the error
// taxonomy and contracts (interfaces) only.
package domain
