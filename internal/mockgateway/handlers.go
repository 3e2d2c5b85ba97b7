package mockgateway

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/blobs/{id}", s.handleBlob)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/pubkeys/{id}", s.handleLookup)
		r.Get("/credits", s.handleCredits)
		r.Get("/capabilities/{id}", s.handleCapabilities)
		r.Post("/send_e2e", s.handleSend)
		r.Post("/upload_blob", s.handleUpload)
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		// never log the query: it carries the API secret
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBlobSize+1<<20)
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
				return
			}
		}
		from := r.FormValue("from")
		secret := r.FormValue("secret")
		if from != string(s.opts.Identity) ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(s.opts.Secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpLookup); st != 0 {
		w.WriteHeader(st)
		return
	}
	id := domain.Identity(chi.URLParam(r, "id"))
	s.mu.Lock()
	rc, ok := s.ids[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, hex.EncodeToString(rc.key[:]))
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpCapabilities); st != 0 {
		w.WriteHeader(st)
		return
	}
	id := domain.Identity(chi.URLParam(r, "id"))
	s.mu.Lock()
	rc, ok := s.ids[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, strings.Join(rc.caps, ","))
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpCredits); st != 0 {
		w.WriteHeader(st)
		return
	}
	s.mu.Lock()
	n := s.credits
	s.mu.Unlock()
	fmt.Fprint(w, strconv.Itoa(n))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpSend); st != 0 {
		w.WriteHeader(st)
		return
	}
	to := domain.Identity(r.FormValue("to"))
	nonce, errN := hex.DecodeString(r.FormValue("nonce"))
	box, errB := hex.DecodeString(r.FormValue("box"))
	if !to.Valid() || errN != nil || errB != nil || len(nonce) != crypto.NonceBytes || len(box) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if len(box) > s.opts.MaxBoxSize {
		http.Error(w, "message too long", http.StatusRequestEntityTooLarge)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[to]; !ok {
		http.Error(w, "recipient not set up for end-to-end messages", http.StatusBadRequest)
		return
	}
	if s.credits <= 0 {
		http.Error(w, "no credits remaining", http.StatusPaymentRequired)
		return
	}
	s.credits--
	env := domain.Envelope{To: to, Box: box}
	copy(env.Nonce[:], nonce)
	id := newMessageID()
	s.sent = append(s.sent, Sent{MessageID: id, From: s.opts.Identity, Envelope: env})
	fmt.Fprint(w, id)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpUpload); st != 0 {
		w.WriteHeader(st)
		return
	}
	f, hdr, err := r.FormFile("blob")
	if err != nil {
		http.Error(w, "missing blob", http.StatusBadRequest)
		return
	}
	defer f.Close()
	if hdr.Size > s.opts.MaxBlobSize {
		http.Error(w, "blob too large", http.StatusRequestEntityTooLarge)
		return
	}
	b, err := io.ReadAll(f)
	if err != nil || len(b) == 0 {
		http.Error(w, "bad blob", http.StatusBadRequest)
		return
	}
	id := s.storeBlob(b)
	fmt.Fprint(w, id.String())
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	if st := s.record(OpBlob); st != 0 {
		w.WriteHeader(st)
		return
	}
	id, err := domain.ParseBlobID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad blob id", http.StatusBadRequest)
		return
	}
	b, ok := s.Blob(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(b)
}
