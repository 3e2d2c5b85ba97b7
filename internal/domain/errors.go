package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure surfaced by the client wraps exactly one of them,
// so callers can branch with errors.Is.
var (
	ErrUnknownIdentity  = errors.New("unknown identity")
	ErrKeyMismatch      = errors.New("public key mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrBlobTooLarge     = errors.New("blob too large")
	ErrUploadFailed     = errors.New("blob upload failed")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrTransport        = errors.New("transport error")
	ErrInvalidMessage   = errors.New("invalid message")
)

// ErrClosed is wrapped (under ErrTransport) by calls on a closed connection.
var ErrClosed = errors.New("connection closed")

var kinds = []error{
	ErrUnknownIdentity, ErrKeyMismatch, ErrPayloadTooLarge, ErrBlobTooLarge,
	ErrUploadFailed, ErrEncryptionFailed, ErrSubmissionFailed, ErrTransport,
	ErrInvalidMessage,
}

// Error is the concrete error type of the gateway client.
type Error struct {
	Kind   error    // one of the Err* kinds above
	Op     string   // operation, e.g. "lookup", "upload", "send"
	ID     Identity // peer identity, if any
	Status int      // HTTP status, 0 if no response was received
	Err    error    // underlying cause, may be nil
}

// E builds an *Error of the given kind.
func E(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WithID returns e annotated with the peer identity.
func (e *Error) WithID(id Identity) *Error { e.ID = id; return e }

// WithStatus returns e annotated with the HTTP status.
func (e *Error) WithStatus(status int) *Error { e.Status = status; return e }

// IsGatewayError reports whether err belongs to the client's error taxonomy.
// It is the umbrella check for callers that do not care about the kind.
func IsGatewayError(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
