package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bidsflow-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestServer(t *testing.T, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, resp := handler(payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)
	apiURL = server.URL
	return server
}

func TestCompleteJSONOmitsTemperatureForGPT5(t *testing.T) {
	var mu sync.Mutex
	var last map[string]any
	newTestServer(t, func(body map[string]any) (int, string) {
		mu.Lock()
		last = body
		mu.Unlock()
		return http.StatusOK, `{"choices":[{"message":{"content":"{\"tags\":[]}"}}]}`
	})

	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.CompleteJSON(context.Background(), llm.Request{Task: "tags", System: "sys", Prompt: "hello"})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if string(out) != `{"tags":[]}` {
		t.Fatalf("unexpected output %s", out)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, ok := last["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted")
	}
	format, _ := last["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", last["response_format"])
	}
}

func TestCompleteJSONRepairsInvalidOutput(t *testing.T) {
	calls := 0
	newTestServer(t, func(body map[string]any) (int, string) {
		calls++
		if calls == 1 {
			return http.StatusOK, `{"choices":[{"message":{"content":"{not json"}}]}`
		}
		return http.StatusOK, `{"choices":[{"message":{"content":"` + "```json\\n{\\\"ok\\\":true}\\n```" + `"}}]}`
	})

	client, _ := NewClient("k", "gpt-4o-mini")
	out, err := client.CompleteJSON(context.Background(), llm.Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if calls != 2 || string(out) != `{"ok":true}` {
		t.Fatalf("expected repaired output after 2 calls, got %d %s", calls, out)
	}
}

func TestCompleteJSONReportsHTTPStatus(t *testing.T) {
	newTestServer(t, func(body map[string]any) (int, string) {
		return http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`
	})

	client, _ := NewClient("k", "gpt-4o-mini")
	_, err := client.CompleteJSON(context.Background(), llm.Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "openai http status 429") {
		t.Fatalf("expected status error, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 429 to be retryable")
	}
}
