// Package gemini implements a minimal client for the Gemini REST API:
// one-shot and streaming text generation over a prompt plus an optional
// inline image. Streaming uses the SSE endpoint and delivers fragments
// over a channel in arrival order.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

// Config holds Gemini client configuration.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
}

// DefaultConfig returns sensible defaults for the given key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-2.5-flash",
		Timeout:         2 * time.Minute,
		MaxOutputTokens: 8192,
	}
}

// Client talks to the Gemini REST API.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
}

// New creates a Gemini client. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	def := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// buildRequest assembles one user turn from the prompt and optional image.
func (c *Client) buildRequest(prompt string, img *Image) request {
	parts := []part{{Text: prompt}}
	if img != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: img.MIMEType,
			Data:     img.Data,
		}})
	}
	return request{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			MaxOutputTokens: c.maxOutputTokens,
		},
	}
}

// Generate sends one generation request and returns the complete text.
func (c *Client) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	// Ensure a deadline so a stuck request cannot hang the caller forever
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(c.buildRequest(prompt, img))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.ModelDebug("generate: model=%s prompt=%d bytes image=%v", c.model, len(prompt), img != nil)
	timer := logging.StartTimer(logging.CategoryModel, "generate")
	resp, err := c.httpClient.Do(req)
	timer.Stop()
	if err != nil {
		return "", fmt.Errorf("calling gemini api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiErrorFromBody(resp.StatusCode, respBody)
	}

	var r response
	if err := json.Unmarshal(respBody, &r); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if r.Error != nil {
		return "", fmt.Errorf("gemini api: %s (%s)", r.Error.Message, r.Error.Status)
	}
	if len(r.Candidates) == 0 {
		return "", fmt.Errorf("gemini api returned no candidates")
	}

	var text strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// GenerateStream sends one streaming generation request. Text fragments are
// delivered on the first channel in arrival order; at most one error is
// delivered on the second. Both channels close when the stream ends.
func (c *Client) GenerateStream(ctx context.Context, prompt string, img *Image) (<-chan string, <-chan error) {
	out := make(chan string, 100)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		body, err := json.Marshal(c.buildRequest(prompt, img))
		if err != nil {
			errc <- fmt.Errorf("marshaling request: %w", err)
			return
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.model, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			errc <- fmt.Errorf("creating request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		logging.ModelDebug("stream: model=%s prompt=%d bytes image=%v", c.model, len(prompt), img != nil)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			errc <- fmt.Errorf("calling gemini api: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			errc <- apiErrorFromBody(resp.StatusCode, respBody)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		// SSE lines can carry whole chunks; allow up to 1MB per line
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}

			var chunk response
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logging.ModelDebug("stream: skipping malformed chunk: %v", err)
				continue
			}
			if chunk.Error != nil {
				errc <- fmt.Errorf("gemini api: %s (%s)", chunk.Error.Message, chunk.Error.Status)
				return
			}
			for _, cand := range chunk.Candidates {
				for _, p := range cand.Content.Parts {
					if p.Text == "" {
						continue
					}
					select {
					case out <- p.Text:
					case <-ctx.Done():
						errc <- ctx.Err()
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				errc <- ctx.Err()
				return
			}
			errc <- fmt.Errorf("reading stream: %w", err)
		}
	}()

	return out, errc
}

// apiErrorFromBody turns a non-200 response into an error, preferring the
// server's own message when the body parses.
func apiErrorFromBody(status int, body []byte) error {
	var r response
	if err := json.Unmarshal(body, &r); err == nil && r.Error != nil {
		return fmt.Errorf("gemini api: %s (status %d)", r.Error.Message, status)
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Errorf("gemini api returned status %d", status)
	}
	return fmt.Errorf("gemini api returned status %d: %s", status, msg)
}
