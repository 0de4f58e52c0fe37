package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"bidsflow-backend/internal/shared/telemetry"
)

func TestServeStopsOnCancel(t *testing.T) {
	prev := telemetry.SetOutput(&bytes.Buffer{})
	defer telemetry.SetOutput(prev)

	srv := newServer("127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	prev := telemetry.SetOutput(&bytes.Buffer{})
	defer telemetry.SetOutput(prev)

	srv := newServer("256.0.0.1:bad", http.NotFoundHandler())
	if err := serve(context.Background(), srv); err == nil {
		t.Fatalf("expected listen error")
	}
}
