// Package main contains integration tests for the API server lifecycle.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// startTestServer serves mux on an ephemeral port and returns the server,
// its address, and a channel closed once Serve returns.
func startTestServer(t *testing.T, mux http.Handler) (*http.Server, string, chan struct{}) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	server := &http.Server{
		Addr:         listener.Addr().String(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			t.Errorf("server error: %v", err)
		}
		close(stopped)
	}()

	return server, server.Addr, stopped
}

func TestGracefulShutdown_LogOrder(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server, addr, stopped := startTestServer(t, mux)
	logger.Info("starting server", "addr", addr)

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	logger.Info("server stopped")

	select {
	case <-stopped:
	case <-time.After(15 * time.Second):
		t.Fatal("server failed to stop in time")
	}

	logs := logBuf.String()
	startIdx := strings.Index(logs, "starting server")
	shutdownIdx := strings.Index(logs, "shutting down server")
	stoppedIdx := strings.Index(logs, "server stopped")
	if startIdx == -1 || shutdownIdx == -1 || stoppedIdx == -1 {
		t.Fatalf("missing lifecycle log entries, got: %s", logs)
	}
	if !(startIdx < shutdownIdx && shutdownIdx < stoppedIdx) {
		t.Errorf("lifecycle logs out of order: %s", logs)
	}
}

func TestGracefulShutdown_InFlightRequestCompletes(t *testing.T) {
	handlerStarted := make(chan struct{})
	handlerCanContinue := make(chan struct{})

	// A scoring call that is mid-flight when shutdown begins.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matching", func(w http.ResponseWriter, r *http.Request) {
		close(handlerStarted)
		<-handlerCanContinue

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"quests":[],"count":0}`))
	})

	server, addr, stopped := startTestServer(t, mux)

	requestDone := make(chan struct{})
	var response *http.Response
	go func() {
		resp, err := http.Get("http://" + addr + "/api/matching?user_id=adv-1")
		if err != nil {
			t.Errorf("request error: %v", err)
		}
		response = resp
		close(requestDone)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("handler failed to start in time")
	}

	// Begin shutdown while the request is still being served.
	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		close(shutdownDone)
	}()

	time.Sleep(50 * time.Millisecond)
	close(handlerCanContinue)

	select {
	case <-requestDone:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request failed to complete")
	}
	select {
	case <-shutdownDone:
	case <-time.After(15 * time.Second):
		t.Fatal("shutdown failed to complete")
	}
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("server goroutine did not exit")
	}

	if response == nil {
		t.Fatal("no response received")
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", response.StatusCode)
	}
	body, _ := io.ReadAll(response.Body)
	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !result.Success {
		t.Error("expected in-flight response to carry success=true")
	}
}
