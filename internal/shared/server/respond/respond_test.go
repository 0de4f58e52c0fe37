package respond

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

func TestErrorEnvelopeAndLogLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	prev := telemetry.SetOutput(&logs)
	defer telemetry.SetOutput(prev)

	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"client fault", http.StatusConflict, `"level":"warn"`},
		{"server fault", http.StatusInternalServerError, `"level":"error"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			r := gin.New()
			r.POST("/api/v1/bids/:id/advance", func(c *gin.Context) {
				c.Set("bidId", c.Param("id"))
				Error(c, tt.status, "invalid_transition", "cannot advance", nil)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bids/bid-9/advance", nil))

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != "invalid_transition" || body.Error.Message != "cannot advance" {
				t.Fatalf("unexpected body: %+v", body)
			}
			line := logs.String()
			if !strings.Contains(line, tt.level) || !strings.Contains(line, `"bid_id":"bid-9"`) {
				t.Fatalf("unexpected log line: %s", line)
			}
		})
	}
}

func TestItemsNeverNull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items", func(c *gin.Context) {
		var none []string
		Items(c, none)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	if strings.TrimSpace(w.Body.String()) != `{"items":[]}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
