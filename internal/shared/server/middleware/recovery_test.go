package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/telemetry"
)

func TestRecoveryWritesEnvelopeAndLogsBid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.POST("/api/v1/bids/:id/advance", func(c *gin.Context) {
		panic("stage table corrupted")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bids/bid-9/advance", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	logged := buf.String()
	if !strings.Contains(logged, "http.panic") || !strings.Contains(logged, "bid-9") {
		t.Fatalf("expected panic log with bid id, got %s", logged)
	}
}

func TestRecoveryKeepsStartedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := telemetry.SetOutput(&bytes.Buffer{})
	defer telemetry.SetOutput(prev)

	r := gin.New()
	r.Use(Recovery())
	r.GET("/api/v1/bids", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late failure")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil))
	if w.Code != http.StatusOK || w.Body.String() != "partial" {
		t.Fatalf("response should be left as written, got %d %q", w.Code, w.Body.String())
	}
}

func TestRecoveryReraisesAbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	t.Fatalf("expected panic")
}
