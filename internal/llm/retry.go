package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"bidsflow-backend/internal/shared/telemetry"
)

// RetryBaseDelay is the wait before the single retry of a transient failure.
var RetryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base      Client
	requestID string
	jobID     string
}

// NewRetryingClient wraps base so transient provider failures are retried once.
func NewRetryingClient(base Client, jobID, requestID string) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, jobID: jobID, requestID: requestID}
}

func (r retryingClient) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := r.base.CompleteJSON(ctx, req)
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}

	telemetry.Info("llm.retry", map[string]any{
		"attempt":    1,
		"task":       req.Task,
		"job_id":     r.jobID,
		"request_id": r.requestID,
		"error":      truncate(err.Error(), 300),
	})
	select {
	case <-time.After(RetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.base.CompleteJSON(ctx, req)
}

// ShouldRetry reports whether err looks like a transient provider failure:
// timeouts, rate limiting, overload, 5xx responses or dropped connections.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotImplemented) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "http status 429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
