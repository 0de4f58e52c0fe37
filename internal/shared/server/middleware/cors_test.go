package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.POST("/api/v1/bids/:id/advance", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"listed origin", []string{"http://localhost:5173"}, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
		{"trailing slash in config", []string{"https://bids.example.com/"}, "https://bids.example.com", http.StatusNoContent, "https://bids.example.com"},
		{"wildcard", []string{"*"}, "https://other.example.com", http.StatusNoContent, "https://other.example.com"},
		{"unlisted origin", []string{"http://localhost:5173"}, "https://evil.example.com", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/bids/bid-1/advance", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp := httptest.NewRecorder()
			newCORSRouter(tt.origins...).ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			if got := resp.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Fatalf("expected Allow-Origin %q, got %q", tt.wantAllow, got)
			}
			if tt.wantAllow != "" {
				assertCORSHeaders(t, resp)
			}
		})
	}
}

func TestCORSHeadersOnPost(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids/bid-1/advance", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	newCORSRouter("http://localhost:5173").ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func TestCORSSkipsRequestsWithoutOrigin(t *testing.T) {
	resp := httptest.NewRecorder()
	newCORSRouter("http://localhost:5173").ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/bids/bid-1/advance", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers, got %q", got)
	}
}

func assertCORSHeaders(t *testing.T, resp *httptest.ResponseRecorder) {
	t.Helper()
	if got := resp.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatalf("expected Allow-Methods header")
	}
	if got := resp.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Fatalf("expected Allow-Headers header")
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected Max-Age 600, got %q", got)
	}
}
