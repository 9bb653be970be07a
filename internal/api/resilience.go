package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// Resilience defaults, applied when the configuration leaves them unset.
const (
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	defaultBaseDelay = time.Second
	uploadRetries    = 1
	maxJitter        = time.Second
)

// Call is an asynchronous operation producing a raw payload.  The resilience
// wrappers compose over this shape, so anything from a transport round trip
// to a test stub can be wrapped.
type Call func(ctx context.Context) (json.RawMessage, error)

// WithTimeout races call against a timer.  Whichever settles first wins; the
// loser's eventual result is discarded.  The inner context carries the
// deadline so the underlying I/O winds down on its own, but the wrapper does
// not wait for it.
func WithTimeout(call Call, timeout time.Duration) Call {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return func(ctx context.Context) (json.RawMessage, error) {
		inner, cancel := context.WithTimeout(ctx, timeout)

		type result struct {
			data json.RawMessage
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			defer cancel()
			data, err := call(inner)
			ch <- result{data, err}
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case r := <-ch:
			return r.data, r.err
		case <-timer.C:
			return nil, &Error{Kind: KindTimeout, Message: fmt.Sprintf("operation timed out after %s", timeout)}
		case <-ctx.Done():
			return nil, Classify(ctx.Err())
		}
	}
}

// WithRetry runs call up to maxRetries times with exponential backoff and
// jitter between attempts.  Attempts are strictly sequential.  An error that
// is terminal (a 4xx, structurally or by message heuristic) aborts the loop
// immediately; exhaustion surfaces the last error wrapped with the attempt
// count.
func WithRetry(call Call, maxRetries int, baseDelay time.Duration) Call {
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return func(ctx context.Context) (json.RawMessage, error) {
		var lastErr error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			data, err := call(ctx)
			if err == nil {
				return data, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				return nil, Classify(ctx.Err())
			}
			if !retryable(err) {
				return nil, err
			}
			if attempt == maxRetries {
				break
			}
			delay := baseDelay*(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(maxJitter)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, Classify(ctx.Err())
			}
		}
		return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
	}
}

// Execute composes the two wrappers in the order the dashboard relies on:
// the timeout spans the whole bounded-retry sequence, not each attempt.
func Execute(ctx context.Context, call Call, timeout time.Duration, maxRetries int, baseDelay time.Duration) (json.RawMessage, error) {
	return WithTimeout(WithRetry(call, maxRetries, baseDelay), timeout)(ctx)
}

// call wraps one authenticated transport request as a Call.
func (c *Client) call(method, endpoint string, body any) Call {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.Request(ctx, method, endpoint, body, RequestOptions{RequiresAuth: true})
	}
}

// Get performs a resilient authenticated GET.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return Execute(ctx, c.call(http.MethodGet, endpoint, nil), c.timeout, c.maxRetries, c.baseDelay)
}

// GetPaged performs a resilient GET with params serialized into the query
// string.  Nil and empty-string values are dropped rather than sent.
func (c *Client) GetPaged(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	if q := BuildQuery(params); q != "" {
		endpoint += "?" + q
	}
	return c.Get(ctx, endpoint)
}

// Post performs a resilient authenticated POST.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return Execute(ctx, c.call(http.MethodPost, endpoint, body), c.timeout, c.maxRetries, c.baseDelay)
}

// Put performs a resilient authenticated PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return Execute(ctx, c.call(http.MethodPut, endpoint, body), c.timeout, c.maxRetries, c.baseDelay)
}

// Delete performs a resilient authenticated DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return Execute(ctx, c.call(http.MethodDelete, endpoint, nil), c.timeout, c.maxRetries, c.baseDelay)
}

// Upload posts a multipart payload with a widened timeout and a single
// attempt: uploads are not safe to retry aggressively.
func (c *Client) Upload(ctx context.Context, endpoint string, payload *Multipart) (json.RawMessage, error) {
	timeout := c.uploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Execute(ctx, c.call(http.MethodPost, endpoint, payload), timeout, uploadRetries, c.baseDelay)
}

// BuildQuery serializes a parameter map into a URL query string.  Nil values
// and empty strings are dropped; everything else is rendered with fmt.  Keys
// come out sorted, which keeps request logs and tests stable.
func BuildQuery(params map[string]any) string {
	values := url.Values{}
	for key, v := range params {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
			values.Set(key, t)
		default:
			values.Set(key, fmt.Sprint(t))
		}
	}
	return values.Encode()
}
