package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bidsflow-backend/internal/queue"
	"bidsflow-backend/internal/shared/config"
)

func TestBuildDevUsesInMemoryDependencies(t *testing.T) {
	t.Setenv(queue.QueueURLEnv, "")
	app, err := Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "placeholder",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil || app.Queue != nil || app.UploadsPresign != nil {
		t.Fatalf("dev build should not open external connections: %+v", app)
	}
	if app.JobProcessor != app.IngestionService {
		t.Fatalf("job processor should be the ingestion service")
	}
	if app.IngestionService.Pipeline.Bids != app.BidsService {
		t.Fatalf("pipeline should write through the bids service")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	t.Setenv(queue.QueueURLEnv, "")
	if _, err := Build(config.Config{Env: "production", LocalStoreDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildOpenAIRequiresKey(t *testing.T) {
	t.Setenv(queue.QueueURLEnv, "")
	_, err := Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir(), LLMProvider: "openai", LLMModel: "gpt-4o-mini"})
	if err == nil {
		t.Fatalf("expected error without OPENAI_API_KEY")
	}
}
