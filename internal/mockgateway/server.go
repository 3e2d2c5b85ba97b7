package mockgateway

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"e2egateway/internal/domain"
)

// Operation names used by Calls and Fail.
const (
	OpLookup       = "lookup"
	OpSend         = "send"
	OpUpload       = "upload"
	OpCredits      = "credits"
	OpCapabilities = "capabilities"
	OpBlob         = "blob"
)

const (
	DefaultCredits     = 100
	DefaultMaxBlobSize = 50 << 20
	DefaultMaxBoxSize  = 8192
)

// Options configure a Server.
type Options struct {
	Identity    domain.Identity // gateway identity allowed to authenticate
	Secret      string
	Credits     int   // defaults to DefaultCredits; negative means none
	MaxBlobSize int64 // defaults to DefaultMaxBlobSize
	MaxBoxSize  int   // defaults to DefaultMaxBoxSize
	Logger      *zap.Logger
}

// Sent is a submitted envelope.
type Sent struct {
	MessageID string
	From      domain.Identity
	Envelope  domain.Envelope
}

type recipient struct {
	key  domain.PublicKey
	caps domain.Capabilities
}

// Server is the mock gateway state.
type Server struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	ids     map[domain.Identity]recipient
	credits int
	blobs   map[domain.BlobID][]byte
	sent    []Sent
	calls   []string
	fail    map[string]int
}

// New returns an empty Server.
func New(opts Options) *Server {
	switch {
	case opts.Credits == 0:
		opts.Credits = DefaultCredits
	case opts.Credits < 0:
		opts.Credits = 0
	}
	if opts.MaxBlobSize <= 0 {
		opts.MaxBlobSize = DefaultMaxBlobSize
	}
	if opts.MaxBoxSize <= 0 {
		opts.MaxBoxSize = DefaultMaxBoxSize
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Server{
		opts:    opts,
		log:     lg.Named("mockgateway"),
		ids:     make(map[domain.Identity]recipient),
		credits: opts.Credits,
		blobs:   make(map[domain.BlobID][]byte),
		fail:    make(map[string]int),
	}
}

// AddIdentity registers a recipient with its public key. Without explicit
// capabilities the recipient can receive everything.
func (s *Server) AddIdentity(id domain.Identity, key domain.PublicKey, caps ...string) {
	if len(caps) == 0 {
		caps = []string{domain.CapabilityText, domain.CapabilityImage, domain.CapabilityVideo,
			domain.CapabilityAudio, domain.CapabilityFile}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = recipient{key: key, caps: caps}
}

// Fail makes every later call of op answer with status. Status 0 clears it.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, op)
		return
	}
	s.fail[op] = status
}

// SetCredits replaces the credit balance.
func (s *Server) SetCredits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = n
}

// Sent returns the accepted envelopes in submission order.
func (s *Server) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}

// Calls returns the operations received so far, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many times op was called.
func (s *Server) Count(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// Blob returns an uploaded blob.
func (s *Server) Blob(id domain.BlobID) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	return slices.Clone(b), ok
}

// record logs op and returns the injected failure status, if any.
func (s *Server) record(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.fail[op]
}

func (s *Server) storeBlob(b []byte) domain.BlobID {
	var id domain.BlobID
	_, _ = rand.Read(id[:])
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = b
	return id
}

func newMessageID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}
