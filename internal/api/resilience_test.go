package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryGatingOnClientErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"structured 404", fromStatus(404, "user not found")},
		{"structured validation", NewValidationError("userId", "bad id")},
		{"foreign 4xx message", errors.New("request failed: 404 not found")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			op := func(ctx context.Context) (json.RawMessage, error) {
				calls++
				return nil, tc.err
			}
			_, err := WithRetry(op, 3, time.Millisecond)(context.Background())
			require.Error(t, err)
			require.Equal(t, 1, calls, "client errors must never be retried")
		})
	}
}

func TestRetryBackoffBounds(t *testing.T) {
	base := 100 * time.Millisecond
	var stamps []time.Time
	op := func(ctx context.Context) (json.RawMessage, error) {
		stamps = append(stamps, time.Now())
		return nil, fromStatus(500, "boom")
	}

	_, err := WithRetry(op, 3, base)(context.Background())
	require.Error(t, err)
	require.Len(t, stamps, 3, "a server error is retried up to the attempt bound")
	require.Contains(t, err.Error(), "failed after 3 attempts")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr, "the wrapped error keeps its classification")
	require.Equal(t, KindServer, apiErr.Kind)

	for k := 1; k < len(stamps); k++ {
		gap := stamps[k].Sub(stamps[k-1])
		lower := base * (1 << (k - 1))
		upper := lower + maxJitter + 200*time.Millisecond // scheduling slack
		require.GreaterOrEqual(t, gap, lower, "delay before attempt %d below backoff floor", k+1)
		require.Less(t, gap, upper, "delay before attempt %d above backoff ceiling", k+1)
	}
}

func TestTimeoutPrecedence(t *testing.T) {
	op := func(ctx context.Context) (json.RawMessage, error) {
		<-ctx.Done() // never resolves on its own
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := WithTimeout(WithRetry(op, 5, time.Millisecond), 100*time.Millisecond)(context.Background())
	elapsed := time.Since(start)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindTimeout, apiErr.Kind)
	require.Less(t, elapsed, time.Second, "timeout must win regardless of retry configuration")
}

func TestTimeoutSpansWholeRetrySequence(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (json.RawMessage, error) {
		calls++
		return nil, fromStatus(500, "boom")
	}

	// Backoff alone would exceed the window, so the timeout fires first.
	_, err := Execute(context.Background(), op, 50*time.Millisecond, 10, 80*time.Millisecond)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindTimeout, apiErr.Kind)
	require.LessOrEqual(t, calls, 2)
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (json.RawMessage, error) {
		calls++
		if calls < 3 {
			return nil, fromStatus(500, "internal server error")
		}
		return json.RawMessage(`{"ok":true}`), nil
	}

	data, err := WithRetry(op, 3, time.Millisecond)(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(data))
	require.Equal(t, 3, calls)
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(ctx context.Context) (json.RawMessage, error) {
		calls++
		cancel()
		return nil, fromStatus(500, "boom")
	}

	_, err := WithRetry(op, 3, 50*time.Millisecond)(ctx)
	require.Error(t, err)
	require.Equal(t, 1, calls, "backoff sleep must observe cancellation")
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(map[string]any{
		"page":   2,
		"limit":  25,
		"search": "studio",
		"city":   "",  // dropped
		"owner":  nil, // dropped
	})
	require.Equal(t, "limit=25&page=2&search=studio", q)

	require.Empty(t, BuildQuery(nil))
	require.Empty(t, BuildQuery(map[string]any{"a": "", "b": nil}))
}
