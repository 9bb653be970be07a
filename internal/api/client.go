package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/locatrova/locatrova-admin/internal/auth"
	"github.com/locatrova/locatrova-admin/internal/config"
)

// Endpoints with special treatment in the transport.
const (
	loginEndpoint   = "/auth/login"
	logoutEndpoint  = "/auth/logout"
	refreshEndpoint = "/auth/refresh-token"
	checkEndpoint   = "/auth/check-auth"
)

// envelope is the backend's uniform response shape.  A call fails when the
// HTTP status is non-2xx or Success is false.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Multipart is a pre-built multipart/form-data payload.  The body is held in
// memory so the transport can replay it on a refresh-driven retry; admin
// uploads are a handful of images, not streams.
type Multipart struct {
	Body        []byte
	ContentType string
	Progress    func(fraction float64)
}

// RequestOptions controls a single transport call.
type RequestOptions struct {
	RequiresAuth bool
}

// inflightRefresh lets concurrent 401 handlers await one shared refresh call
// instead of racing their own.
type inflightRefresh struct {
	done chan struct{}
	ok   bool
}

// Client is the HTTP transport for the LocaTrova backend.  It owns header
// assembly, bearer authentication, envelope decoding and the
// refresh-and-retry handling of 401 responses.  One Client is constructed at
// application start and passed to every resource module.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *auth.TokenStore
	bus     *auth.Bus

	// Defaults consumed by the resilience helpers in resilience.go.
	timeout       time.Duration
	maxRetries    int
	baseDelay     time.Duration
	uploadTimeout time.Duration

	refreshMu sync.Mutex
	refresh   *inflightRefresh
}

// NewClient assembles a Client from the loaded configuration.  The fixed
// "/api" segment is appended to the configured origin here, once.
func NewClient(cfg config.Config, tokens *auth.TokenStore, bus *auth.Bus) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.APIOrigin, "/") + "/api",
		http:          &http.Client{},
		tokens:        tokens,
		bus:           bus,
		timeout:       cfg.RequestTimeout,
		maxRetries:    cfg.MaxRetries,
		baseDelay:     cfg.RetryBaseDelay,
		uploadTimeout: cfg.UploadTimeout,
	}
}

// Request performs one logical call against the backend.  Algorithm:
// assemble headers, fail fast when auth is required but no token exists,
// issue the HTTP call, run at most one refresh-and-retry cycle on 401, then
// decode the envelope.  Errors leave this method already classified.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, opts RequestOptions) (json.RawMessage, error) {
	token := ""
	if opts.RequiresAuth {
		token = c.tokens.AccessToken()
		if token == "" {
			return nil, NewError(KindAuthentication, "not authenticated, please log in")
		}
	}

	resp, err := c.do(ctx, method, endpoint, body, token)
	if err != nil {
		return nil, Classify(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && opts.RequiresAuth && endpoint != loginEndpoint {
		drain(resp)
		if c.refreshTokens(ctx) {
			retried, err := c.do(ctx, method, endpoint, body, c.tokens.AccessToken())
			if err != nil {
				return nil, Classify(err)
			}
			if retried.StatusCode != http.StatusUnauthorized {
				return decodeEnvelope(retried)
			}
			drain(retried)
		}
		_ = c.tokens.ClearTokens()
		c.bus.Publish(auth.EventUnauthenticated)
		return nil, &Error{Kind: KindAuthentication, Message: "session expired, please log in again", StatusCode: http.StatusUnauthorized}
	}

	return decodeEnvelope(resp)
}

// do issues a single HTTP round trip.  It never inspects the response beyond
// transport-level failure; status handling belongs to Request.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, token string) (*http.Response, error) {
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case *Multipart:
		r := io.Reader(bytes.NewReader(b.Body))
		if b.Progress != nil {
			r = &progressReader{r: r, total: int64(len(b.Body)), report: b.Progress}
		}
		reader = r
		contentType = b.ContentType
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// refreshTokens runs the refresh-and-retry cycle's refresh half.  Concurrent
// callers coalesce on a single in-flight refresh and share its outcome, so a
// burst of 401s performs one network call and one token-store write.
func (c *Client) refreshTokens(ctx context.Context) bool {
	c.refreshMu.Lock()
	if r := c.refresh; r != nil {
		c.refreshMu.Unlock()
		select {
		case <-r.done:
			return r.ok
		case <-ctx.Done():
			return false
		}
	}
	r := &inflightRefresh{done: make(chan struct{})}
	c.refresh = r
	c.refreshMu.Unlock()

	r.ok = c.doRefresh(ctx)
	close(r.done)

	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()
	return r.ok
}

// doRefresh posts the refresh token to the refresh endpoint and stores the
// new access token.  The refresh token itself is not rotated by this
// backend, so only the access token is replaced.  Any failure, local or
// remote, reports false; the caller owns the clear/notify consequences.
func (c *Client) doRefresh(ctx context.Context) bool {
	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		return false
	}
	resp, err := c.do(ctx, http.MethodPost, refreshEndpoint, map[string]string{"refreshToken": refresh}, "")
	if err != nil {
		return false
	}
	data, err := decodeEnvelope(resp)
	if err != nil {
		return false
	}
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.AccessToken == "" {
		return false
	}
	return c.tokens.SetAccessToken(payload.AccessToken) == nil
}

// Login authenticates with email/password credentials.  On success the
// returned token pair is stored and a login event is published; the full
// response payload is propagated to the caller either way, so the shell can
// show server-side messages verbatim.
func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.Request(ctx, http.MethodPost, loginEndpoint, body, RequestOptions{})
	if err != nil {
		return nil, err
	}
	var pair auth.TokenPair
	if err := json.Unmarshal(data, &pair); err == nil && pair.AccessToken != "" {
		if err := c.tokens.SetTokens(pair); err != nil {
			return data, Classify(err)
		}
		c.bus.Publish(auth.EventLogin)
	}
	return data, nil
}

// Logout posts a best-effort logout to the backend, then unconditionally
// clears the local tokens and publishes a logout event.  A failing network
// call must not keep a user logged in locally.
func (c *Client) Logout(ctx context.Context) error {
	_, _ = c.Request(ctx, http.MethodPost, logoutEndpoint, nil, RequestOptions{RequiresAuth: true})
	err := c.tokens.ClearTokens()
	c.bus.Publish(auth.EventLogout)
	return err
}

// CheckAuth asks the backend whether the current session is valid and
// returns the server's view of the authenticated user.
func (c *Client) CheckAuth(ctx context.Context) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, checkEndpoint, nil, RequestOptions{RequiresAuth: true})
}

// decodeEnvelope parses the uniform response envelope, converting non-2xx
// statuses and success:false bodies into classified errors that carry the
// server-provided message.
func decodeEnvelope(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(fmt.Errorf("read response body: %w", err))
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return nil, fromStatus(resp.StatusCode, "")
			}
			return nil, Classify(fmt.Errorf("decode response: %w", err))
		}
	}
	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, fromStatus(resp.StatusCode, msg)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "the server reported a failure"
		}
		return nil, NewError(KindUnknown, msg)
	}
	return env.Data, nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// progressReader reports upload progress as the fraction of bytes consumed
// by the HTTP transport.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(float64(p.read) / float64(p.total))
	}
	return n, err
}
