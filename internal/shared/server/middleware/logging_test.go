package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/telemetry"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(prev) })
	return &buf
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &payload); err != nil {
		t.Fatalf("decode log json: %v (%s)", err, buf.String())
	}
	return payload
}

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestID(), Auth(), Logging())
	router.POST("/api/v1/bids/:id/advance", func(c *gin.Context) {
		c.Set("jobId", "job-1")
		c.Set("statusTransition", "Intake->Qualification")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids/bid-1/advance", nil)
	req.Header.Set("X-Guest-Id", "guest1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	payload := lastLogLine(t, buf)
	want := map[string]any{
		"level":             "info",
		"user_id":           "guest:guest1",
		"is_guest":          true,
		"bid_id":            "bid-1",
		"job_id":            "job-1",
		"route":             "/api/v1/bids/:id/advance",
		"status_transition": "Intake->Qualification",
	}
	for key, val := range want {
		if payload[key] != val {
			t.Fatalf("log field %s = %v, want %v", key, payload[key], val)
		}
	}
	for _, key := range []string{"request_id", "duration_ms", "status"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusConflict, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLogs(t)
			router := gin.New()
			router.Use(Logging())
			router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			if got := lastLogLine(t, buf)["level"]; got != tt.level {
				t.Fatalf("expected level %s, got %v", tt.level, got)
			}
		})
	}
}
