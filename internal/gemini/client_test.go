package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := New(Config{APIKey: "test-key", BaseURL: serverURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	client, err := New(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if client.Model() != "gemini-2.5-flash" {
		t.Errorf("Model = %q, want gemini-2.5-flash", client.Model())
	}
	if !strings.HasPrefix(client.baseURL, "https://generativelanguage.googleapis.com") {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("Expected key query parameter")
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Decoding request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("Expected 1 content with 2 parts, got %+v", req.Contents)
		}
		if req.Contents[0].Parts[0].Text != "Describe this" {
			t.Errorf("Prompt part = %q", req.Contents[0].Parts[0].Text)
		}
		inline := req.Contents[0].Parts[1].InlineData
		if inline == nil || inline.MIMEType != "image/png" || inline.Data != "aW1n" {
			t.Errorf("Inline data part = %+v", inline)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "A "}, {"text": "cat."}]}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Generate(context.Background(), "Describe this", &Image{MIMEType: "image/png", Data: "aW1n"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "A cat." {
		t.Errorf("text = %q, want %q", text, "A cat.")
	}
}

func TestGenerate_NoImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents[0].Parts) != 1 {
			t.Errorf("Expected a single text part, got %d", len(req.Contents[0].Parts))
		}
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Generate(context.Background(), "hello", nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("error = %q, want server message included", err)
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Generate(context.Background(), "hello", nil); err == nil {
		t.Fatal("Expected error for empty candidates")
	}
}

func sseChunk(text string) string {
	return fmt.Sprintf("data: {\"candidates\": [{\"content\": {\"parts\": [{\"text\": %q}]}}]}\n\n", text)
}

func TestGenerateStream_DeliversChunksInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Error("Expected alt=sse")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseChunk("Once")))
		w.Write([]byte(sseChunk("upon")))
		w.Write([]byte(sseChunk("a time")))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chunks, errs := client.GenerateStream(context.Background(), "go", nil)

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	want := []string{"Once", "upon", "a time"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if joined := strings.Join(got, ""); joined != "Onceupona time" {
		t.Errorf("concatenation = %q, want %q", joined, "Onceupona time")
	}
}

func TestGenerateStream_SkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseChunk("good")))
		w.Write([]byte("data: {not json}\n\n"))
		w.Write([]byte(": comment line\n\n"))
		w.Write([]byte(sseChunk("still good")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chunks, errs := client.GenerateStream(context.Background(), "go", nil)

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(got) != 2 || got[0] != "good" || got[1] != "still good" {
		t.Errorf("chunks = %v", got)
	}
}

func TestGenerateStream_ErrorChunkEndsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseChunk("partial")))
		w.Write([]byte(`data: {"error": {"code": 500, "message": "model overloaded", "status": "UNAVAILABLE"}}` + "\n\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chunks, errs := client.GenerateStream(context.Background(), "go", nil)

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	err := <-errs
	if err == nil {
		t.Fatal("Expected error from error chunk")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error = %q", err)
	}
	if len(got) != 1 || got[0] != "partial" {
		t.Errorf("chunks before error = %v", got)
	}
}

func TestGenerateStream_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chunks, errs := client.GenerateStream(context.Background(), "go", nil)

	for range chunks {
		t.Error("Expected no chunks")
	}
	err := <-errs
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error = %v", err)
	}
}

func TestGenerateStream_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseChunk("first")))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, server.URL)
	chunks, errs := client.GenerateStream(ctx, "go", nil)

	select {
	case chunk := <-chunks:
		if chunk != "first" {
			t.Errorf("chunk = %q", chunk)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for first chunk")
	}

	cancel()

	// Both channels must close promptly, and the cancellation must be
	// reported as an error rather than a clean end of stream.
	var streamErr error
	deadline := time.After(5 * time.Second)
	for chunks != nil || errs != nil {
		select {
		case _, ok := <-chunks:
			if !ok {
				chunks = nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				break
			}
			streamErr = err
		case <-deadline:
			t.Fatal("Channels did not close after cancel")
		}
	}
	if !errors.Is(streamErr, context.Canceled) {
		t.Errorf("stream error = %v, want context.Canceled", streamErr)
	}
}
