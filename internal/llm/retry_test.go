package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "5xx", err: errors.New("openai http status 503"), want: true},
		{name: "429", err: errors.New("openai http status 429"), want: true},
		{name: "overloaded", err: errors.New("model is overloaded"), want: true},
		{name: "400", err: errors.New("openai http status 400"), want: false},
		{name: "placeholder", err: ErrNotImplemented, want: false},
		{name: "reset", err: errors.New("read: connection reset by peer"), want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryingClientRetriesOnce(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { RetryBaseDelay = old })

	base := &scriptedClient{errs: []error{errors.New("openai http status 502")}}
	client := NewRetryingClient(base, "job-1", "req-1")
	out, err := client.CompleteJSON(context.Background(), Request{Task: "tags"})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if base.calls != 2 || string(out) != `{"ok":true}` {
		t.Fatalf("expected one retry, calls=%d out=%s", base.calls, out)
	}

	base = &scriptedClient{errs: []error{errors.New("openai http status 400")}}
	client = NewRetryingClient(base, "job-1", "req-1")
	if _, err := client.CompleteJSON(context.Background(), Request{}); err == nil {
		t.Fatalf("expected permanent error")
	}
	if base.calls != 1 {
		t.Fatalf("expected no retry for permanent error, calls=%d", base.calls)
	}
}
