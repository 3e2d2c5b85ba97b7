package gateway

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

const (
	DefaultBaseURL = "https://msgapi.threema.ch"
	DefaultTimeout = 30 * time.Second
	UserAgent      = "e2egateway-go/1"

	maxResponse = 1 << 16
)

// Config configures a Client.
type Config struct {
	BaseURL  string // defaults to DefaultBaseURL
	Identity domain.Identity
	Secret   string
	HTTP     *http.Client // optional; a client with DefaultTimeout is created
	Logger   *zap.Logger  // optional
}

// Client talks to the gateway on behalf of one gateway identity.
type Client struct {
	base   string
	from   domain.Identity
	secret string
	http   *http.Client
	log    *zap.Logger

	// session lifetime; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		base:   base,
		from:   cfg.Identity,
		secret: cfg.Secret,
		http:   hc,
		log:    lg.Named("gateway"),
		ctx:    ctx,
		cancel: cancel,
	}
}

var _ domain.Gateway = (*Client)(nil)

// LookupPublicKey fetches the public key of id.
func (c *Client) LookupPublicKey(ctx context.Context, id domain.Identity) (domain.PublicKey, error) {
	const op = "lookup"
	status, body, err := c.do(ctx, op, http.MethodGet, "/pubkeys/"+url.PathEscape(string(id)), nil, "")
	if err != nil {
		return domain.PublicKey{}, domain.E(domain.ErrTransport, op, err).WithID(id)
	}
	if status/100 != 2 {
		return domain.PublicKey{}, lookupError(status).WithID(id)
	}
	pk, err := crypto.DecodeHexKey(string(body))
	if err != nil {
		return domain.PublicKey{}, domain.E(domain.ErrTransport, op, fmt.Errorf("malformed response: %w", err)).WithID(id)
	}
	return pk, nil
}

// SendE2E submits env and returns the gateway's message id.
func (c *Client) SendE2E(ctx context.Context, env domain.Envelope) (string, error) {
	const op = "send"
	form := url.Values{
		"to":    {string(env.To)},
		"nonce": {hex.EncodeToString(env.Nonce[:])},
		"box":   {hex.EncodeToString(env.Box)},
	}
	c.auth(form)
	status, body, err := c.do(ctx, op, http.MethodPost, "/send_e2e",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", domain.E(domain.ErrTransport, op, err).WithID(env.To)
	}
	if status/100 != 2 {
		return "", sendError(status).WithID(env.To)
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", domain.E(domain.ErrTransport, op, errors.New("empty message id")).WithID(env.To)
	}
	return id, nil
}

// Credits returns the remaining message credits of the gateway identity.
func (c *Client) Credits(ctx context.Context) (int, error) {
	const op = "credits"
	status, body, err := c.do(ctx, op, http.MethodGet, "/credits", nil, "")
	if err != nil {
		return 0, domain.E(domain.ErrTransport, op, err)
	}
	if status/100 != 2 {
		return 0, queryError(op, status)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, domain.E(domain.ErrTransport, op, fmt.Errorf("malformed response: %w", err))
	}
	return n, nil
}

// Capabilities returns what id's client can receive.
func (c *Client) Capabilities(ctx context.Context, id domain.Identity) (domain.Capabilities, error) {
	const op = "capabilities"
	status, body, err := c.do(ctx, op, http.MethodGet, "/capabilities/"+url.PathEscape(string(id)), nil, "")
	if err != nil {
		return nil, domain.E(domain.ErrTransport, op, err).WithID(id)
	}
	if status == http.StatusNotFound {
		return nil, domain.E(domain.ErrUnknownIdentity, op, nil).WithID(id).WithStatus(status)
	}
	if status/100 != 2 {
		return nil, queryError(op, status).WithID(id)
	}
	var caps domain.Capabilities
	for _, s := range strings.Split(strings.TrimSpace(string(body)), ",") {
		if s = strings.TrimSpace(s); s != "" {
			caps = append(caps, s)
		}
	}
	return caps, nil
}

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.inflight.Wait()
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) auth(v url.Values) {
	v.Set("from", string(c.from))
	v.Set("secret", c.secret)
}

// begin registers an in-flight call and ties ctx to the session lifetime.
func (c *Client) begin(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, domain.ErrClosed
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
		c.inflight.Done()
	}, nil
}

// do performs one request. GET requests carry the credentials in the query;
// callers of POST put them in the body (form) or the query (multipart).
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (int, []byte, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return 0, nil, err
	}
	defer done()

	u := c.base + path
	if method == http.MethodGet || (contentType != "" && !strings.HasPrefix(contentType, "application/x-www-form-urlencoded")) {
		q := url.Values{}
		c.auth(q)
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// the query carries the secret
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.base + path
		}
		if c.ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", domain.ErrClosed, err)
		}
		c.log.Debug("request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		if c.ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", domain.ErrClosed, err)
		}
		return 0, nil, err
	}
	c.log.Debug("request",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp.StatusCode, b, nil
}
