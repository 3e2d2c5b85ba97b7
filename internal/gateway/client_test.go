package gateway_test

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/gateway"
	"e2egateway/internal/mockgateway"
)

const (
	gwID   = domain.Identity("*TESTGW1")
	secret = "s3cret"
)

func newMock(t *testing.T) (*mockgateway.Server, *gateway.Client) {
	t.Helper()
	m := mockgateway.New(mockgateway.Options{Identity: gwID, Secret: secret, Logger: zaptest.NewLogger(t)})
	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)
	c := gateway.New(gateway.Config{BaseURL: srv.URL, Identity: gwID, Secret: secret, Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() { _ = c.Close() })
	return m, c
}

func statusServer(t *testing.T, status int) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	c := gateway.New(gateway.Config{BaseURL: srv.URL, Identity: gwID, Secret: secret})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLookupPublicKey(t *testing.T) {
	m, c := newMock(t)
	_, pub, _ := crypto.GenerateKeyPair(rand.Reader)
	m.AddIdentity("ECHOECHO", pub)

	got, err := c.LookupPublicKey(context.Background(), "ECHOECHO")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != pub {
		t.Fatal("key mismatch")
	}
	if _, err := c.LookupPublicKey(context.Background(), "NOBODY00"); !errors.Is(err, domain.ErrUnknownIdentity) {
		t.Fatalf("unknown: %v", err)
	}
}

func TestWrongSecret_SubmissionFailed(t *testing.T) {
	m := mockgateway.New(mockgateway.Options{Identity: gwID, Secret: secret})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	c := gateway.New(gateway.Config{BaseURL: srv.URL, Identity: gwID, Secret: "nope"})
	defer c.Close()

	_, err := c.Credits(context.Background())
	var gerr *domain.Error
	if !errors.As(err, &gerr) || gerr.Status != http.StatusUnauthorized || !errors.Is(err, domain.ErrSubmissionFailed) {
		t.Fatalf("want 401 SubmissionFailed, got %v", err)
	}
}

func TestSendE2E_And_Credits(t *testing.T) {
	m, c := newMock(t)
	_, pub, _ := crypto.GenerateKeyPair(rand.Reader)
	m.AddIdentity("ECHOECHO", pub)
	m.SetCredits(1)

	env := domain.Envelope{To: "ECHOECHO", Nonce: [24]byte{1}, Box: []byte{1, 2, 3}}
	id, err := c.SendE2E(context.Background(), env)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(id) != 16 {
		t.Fatalf("message id %q", id)
	}
	sent := m.Sent()
	if len(sent) != 1 || sent[0].Envelope.Nonce != env.Nonce || string(sent[0].Envelope.Box) != string(env.Box) {
		t.Fatalf("recorded %+v", sent)
	}

	n, err := c.Credits(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("credits: %d %v", n, err)
	}
	if _, err := c.SendE2E(context.Background(), env); !errors.Is(err, domain.ErrSubmissionFailed) {
		t.Fatalf("no credits: %v", err)
	}
}

func TestUploadBlob(t *testing.T) {
	m, c := newMock(t)
	id, err := c.UploadBlob(context.Background(), []byte("encrypted"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	b, ok := m.Blob(id)
	if !ok || string(b) != "encrypted" {
		t.Fatalf("stored blob %q %v", b, ok)
	}
}

func TestCapabilities(t *testing.T) {
	m, c := newMock(t)
	m.AddIdentity("ECHOECHO", domain.PublicKey{1}, "text", "file")
	caps, err := c.Capabilities(context.Background(), "ECHOECHO")
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	if !caps.Has("file") || caps.Has("video") {
		t.Fatalf("caps %v", caps)
	}
}

func TestStatusMapping(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		status int
		call   func(*gateway.Client) error
		want   error
	}{
		{400, func(c *gateway.Client) error { _, err := c.SendE2E(ctx, domain.Envelope{To: "ECHOECHO"}); return err }, domain.ErrSubmissionFailed},
		{401, func(c *gateway.Client) error { _, err := c.SendE2E(ctx, domain.Envelope{To: "ECHOECHO"}); return err }, domain.ErrSubmissionFailed},
		{402, func(c *gateway.Client) error { _, err := c.SendE2E(ctx, domain.Envelope{To: "ECHOECHO"}); return err }, domain.ErrSubmissionFailed},
		{413, func(c *gateway.Client) error { _, err := c.SendE2E(ctx, domain.Envelope{To: "ECHOECHO"}); return err }, domain.ErrPayloadTooLarge},
		{500, func(c *gateway.Client) error { _, err := c.SendE2E(ctx, domain.Envelope{To: "ECHOECHO"}); return err }, domain.ErrSubmissionFailed},
		{413, func(c *gateway.Client) error { _, err := c.UploadBlob(ctx, []byte{1}); return err }, domain.ErrBlobTooLarge},
		{500, func(c *gateway.Client) error { _, err := c.UploadBlob(ctx, []byte{1}); return err }, domain.ErrUploadFailed},
		{404, func(c *gateway.Client) error { _, err := c.LookupPublicKey(ctx, "ECHOECHO"); return err }, domain.ErrUnknownIdentity},
		{500, func(c *gateway.Client) error { _, err := c.LookupPublicKey(ctx, "ECHOECHO"); return err }, domain.ErrSubmissionFailed},
	}
	for _, tc := range cases {
		err := tc.call(statusServer(t, tc.status))
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: want %v, got %v", tc.status, tc.want, err)
		}
		var gerr *domain.Error
		if !errors.As(err, &gerr) || gerr.Status != tc.status {
			t.Fatalf("status %d not recorded: %v", tc.status, err)
		}
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := gateway.New(gateway.Config{BaseURL: url, Identity: gwID, Secret: secret})
	defer c.Close()
	if _, err := c.SendE2E(context.Background(), domain.Envelope{To: "ECHOECHO"}); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("send: %v", err)
	}
	if _, err := c.UploadBlob(context.Background(), []byte{1}); !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("upload: %v", err)
	}
}

func TestClose_CancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := gateway.New(gateway.Config{BaseURL: srv.URL, Identity: gwID, Secret: secret})
	errc := make(chan error, 1)
	go func() {
		_, err := c.SendE2E(context.Background(), domain.Envelope{To: "ECHOECHO"})
		errc <- err
	}()
	<-started
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, domain.ErrTransport) || !errors.Is(err, domain.ErrClosed) {
			t.Fatalf("in-flight: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight call not cancelled")
	}

	if _, err := c.Credits(context.Background()); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("after close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
