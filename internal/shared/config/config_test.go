package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "OBJECT_STORE", "AWS_REGION", "S3_BUCKET", "BF_UPLOADS_BUCKET", "LLM_PROVIDER", "BF_INGEST_RATE_PER_MIN", "BF_INGEST_BURST", "S3_USE_PATH_STYLE", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Env != "dev" || cfg.Port != "8080" || cfg.ObjectStoreType != "local" || cfg.AWSRegion != "us-east-1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LLMProvider != "placeholder" || cfg.IngestRatePerMin != 30 || cfg.IngestBurst != 10 || cfg.S3UsePathStyle {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, []string{"http://localhost:5173"}) {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("S3_BUCKET", "bids")
	t.Setenv("BF_UPLOADS_BUCKET", "")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("BF_INGEST_RATE_PER_MIN", "12.5")
	t.Setenv("BF_INGEST_BURST", "-1")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	if cfg.Env != "production" || cfg.ObjectStoreType != "s3" || cfg.LLMProvider != "openai" {
		t.Fatalf("unexpected normalized values: %+v", cfg)
	}
	if cfg.UploadsBucket != "bids" {
		t.Fatalf("uploads bucket should default to the store bucket, got %q", cfg.UploadsBucket)
	}
	if !cfg.S3UsePathStyle || cfg.IngestRatePerMin != 12.5 || cfg.IngestBurst != 10 {
		t.Fatalf("unexpected numeric values: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
}
