package uploads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/bids"
)

func TestPresignSignedHeadersExcludeContentLength(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	client := s3.NewFromConfig(cfg)
	presigner := s3.NewPresignClient(client)

	input := presignInput("bucket", "bids_bid-1_uploads/file.pdf")
	out, err := presigner.PresignPutObject(context.Background(), input)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(out.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	if signed == "" {
		t.Fatalf("expected X-Amz-SignedHeaders")
	}
	if strings.Contains(signed, "content-length") {
		t.Fatalf("unexpected content-length in signed headers: %s", signed)
	}
	if !strings.Contains(signed, "host") {
		t.Fatalf("expected host in signed headers: %s", signed)
	}
}

type bidLookupStub struct {
	known map[string]bool
}

func (s bidLookupStub) Get(ctx context.Context, bidID string) (bids.Bid, error) {
	if !s.known[bidID] {
		return bids.Bid{}, bids.ErrNotFound
	}
	return bids.Bid{ID: bidID}, nil
}

func newPresignRouter(t *testing.T, presign *s3.PresignClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(presign, "bids-bucket", "/stage/", bidLookupStub{known: map[string]bool{"bid-1": true}}).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func testPresignClient() *s3.PresignClient {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	return s3.NewPresignClient(s3.NewFromConfig(cfg))
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPresignReturnsStorageKeyUnderBid(t *testing.T) {
	r := newPresignRouter(t, testPresignClient())
	w := postJSON(r, "/api/v1/bids/bid-1/uploads/presign", `{"fileName":"tender pack.zip","contentType":"application/zip","sizeBytes":2048}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp presignResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.StorageKey, "bids_bid-1_uploads/") || !strings.HasSuffix(resp.StorageKey, "_tender pack.zip") {
		t.Fatalf("unexpected storage key: %s", resp.StorageKey)
	}
	parsed, err := url.Parse(resp.UploadURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.Contains(parsed.Path, "/stage/bids_bid-1_uploads/") {
		t.Fatalf("object key should carry the store prefix: %s", parsed.Path)
	}
	if resp.ExpiresInSeconds != 900 {
		t.Fatalf("unexpected expiry: %d", resp.ExpiresInSeconds)
	}
}

func TestPresignErrors(t *testing.T) {
	tests := []struct {
		name    string
		presign *s3.PresignClient
		path    string
		body    string
		status  int
	}{
		{"disabled", nil, "/api/v1/bids/bid-1/uploads/presign", `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":1}`, http.StatusServiceUnavailable},
		{"bad json", testPresignClient(), "/api/v1/bids/bid-1/uploads/presign", `{`, http.StatusBadRequest},
		{"content type", testPresignClient(), "/api/v1/bids/bid-1/uploads/presign", `{"fileName":"a.exe","contentType":"application/x-msdownload","sizeBytes":1}`, http.StatusBadRequest},
		{"too large", testPresignClient(), "/api/v1/bids/bid-1/uploads/presign", `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":209715200}`, http.StatusBadRequest},
		{"traversal", testPresignClient(), "/api/v1/bids/bid-1/uploads/presign", `{"fileName":"../a.pdf","contentType":"application/pdf","sizeBytes":1}`, http.StatusBadRequest},
		{"unknown bid", testPresignClient(), "/api/v1/bids/bid-9/uploads/presign", `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(newPresignRouter(t, tt.presign), tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}
