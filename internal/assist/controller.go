// Package assist implements the AI assist controller: it owns the selected
// image, a lazily fetched and cached base64 encoding of it, and the running
// chat transcript, and drives one-shot or streaming generation requests
// whose output lands in caller-supplied panes.
package assist

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Allknowingroger/Commons-Explorer/internal/gemini"
	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

// ErrNoSelection is returned by Generate and Chat when no image is selected.
var ErrNoSelection = errors.New("no image selected")

// maxImageBytes bounds the downloaded image; inline request payloads are
// size-limited server-side anyway.
const maxImageBytes = 16 << 20

const imageFetchUserAgent = "commons-explorer/1.0 (github.com/Allknowingroger/Commons-Explorer)"

// Generator issues generation requests. *gemini.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string, img *gemini.Image) (string, error)
	GenerateStream(ctx context.Context, prompt string, img *gemini.Image) (<-chan string, <-chan error)
}

// Output receives generated text for one pane.
type Output interface {
	// Reset returns the pane to its placeholder state.
	Reset()
	// SetText replaces the pane content with a complete result.
	SetText(s string)
	// Append adds one streamed fragment; fragments are concatenated in
	// arrival order with nothing inserted between them.
	Append(s string)
	// Fail renders an inline error indicator.
	Fail(msg string)
}

// Panes groups the three output panes that reset on selection change.
// Nil members are skipped, so one-shot callers can leave them unset.
type Panes struct {
	Story    Output
	Analysis Output
	Chat     Output
}

// selection is the active image reference plus its cached encoding.
type selection struct {
	id    string
	url   string
	title string
	enc   *gemini.Image // nil until the first generation encodes it
}

// Controller drives AI generation over the selected image. Methods are safe
// for concurrent use.
type Controller struct {
	mu         sync.Mutex
	model      Generator
	panes      Panes
	httpClient *http.Client
	sel        *selection
	transcript []ChatTurn
	encode     singleflight.Group
}

// NewController creates an assist controller over the given generator.
func NewController(model Generator, panes Panes) *Controller {
	return &Controller{
		model: model,
		panes: panes,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SelectImage installs a new selection and returns its session ID. The
// cached encoding and chat transcript of any previous selection are
// discarded, and all panes reset to their placeholder state.
func (c *Controller) SelectImage(url, title string) string {
	id := uuid.NewString()

	c.mu.Lock()
	c.sel = &selection{id: id, url: url, title: title}
	c.transcript = nil
	c.mu.Unlock()

	logging.Assist("selected %q session=%s", title, id)
	c.resetPanes()
	return id
}

// ClearSelection discards the selection, its cached encoding, and the
// chat transcript.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.sel = nil
	c.transcript = nil
	c.mu.Unlock()
	logging.AssistDebug("selection cleared")
}

// Selected returns the active selection's URL and title.
func (c *Controller) Selected() (url, title string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel == nil {
		return "", "", false
	}
	return c.sel.url, c.sel.title, true
}

// Transcript returns a copy of the running chat transcript.
func (c *Controller) Transcript() []ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatTurn(nil), c.transcript...)
}

// Generate runs one generation request for the active selection and routes
// the result into out. The image encoding is computed on first use and
// reused by every later call for the same selection. In streaming mode
// fragments are appended to out as they arrive; otherwise the complete
// result is written once. The full text is returned either way.
func (c *Controller) Generate(ctx context.Context, prompt string, out Output, streaming bool) (string, error) {
	c.mu.Lock()
	sel := c.sel
	c.mu.Unlock()
	if sel == nil {
		return "", ErrNoSelection
	}

	img, err := c.ensureEncoded(ctx, sel)
	if err != nil {
		logging.AssistError("image encode failed for %q: %v", sel.title, err)
		out.Fail(fmt.Sprintf("image unavailable: %v", err))
		return "", err
	}

	if !streaming {
		text, err := c.model.Generate(ctx, prompt, img)
		if err != nil {
			logging.AssistError("generation failed for %q: %v", sel.title, err)
			out.Fail(fmt.Sprintf("generation failed: %v", err))
			return "", err
		}
		out.SetText(text)
		return text, nil
	}

	chunks, errs := c.model.GenerateStream(ctx, prompt, img)
	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
		out.Append(chunk)
	}
	if err := <-errs; err != nil {
		logging.AssistError("streaming generation failed for %q: %v", sel.title, err)
		out.Fail(fmt.Sprintf("generation failed: %v", err))
		return full.String(), err
	}
	return full.String(), nil
}

// Chat sends one user message about the selected image and, on success,
// appends the exchange to the transcript. Empty messages are ignored.
func (c *Controller) Chat(ctx context.Context, userText string, out Output, streaming bool) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", nil
	}

	c.mu.Lock()
	sel := c.sel
	transcript := append([]ChatTurn(nil), c.transcript...)
	c.mu.Unlock()
	if sel == nil {
		return "", ErrNoSelection
	}

	reply, err := c.Generate(ctx, ChatPrompt(sel.title, transcript, userText), out, streaming)
	if err != nil {
		return reply, err
	}

	c.mu.Lock()
	// Append only if the same selection is still active
	if c.sel != nil && c.sel.id == sel.id {
		c.transcript = append(c.transcript,
			ChatTurn{Role: RoleUser, Text: userText},
			ChatTurn{Role: RoleModel, Text: reply},
		)
	}
	c.mu.Unlock()
	return reply, nil
}

// ensureEncoded returns the cached encoding for the selection, fetching and
// encoding the image on first use. Concurrent first uses share one fetch.
func (c *Controller) ensureEncoded(ctx context.Context, sel *selection) (*gemini.Image, error) {
	c.mu.Lock()
	if sel.enc != nil {
		img := sel.enc
		c.mu.Unlock()
		logging.AssistDebug("encoding cache hit for session=%s", sel.id)
		return img, nil
	}
	c.mu.Unlock()

	v, err, _ := c.encode.Do(sel.id, func() (interface{}, error) {
		img, err := c.fetchImage(ctx, sel.url)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.sel != nil && c.sel.id == sel.id {
			c.sel.enc = img
		}
		c.mu.Unlock()
		logging.AssistDebug("encoded %s (%d base64 bytes) session=%s", img.MIMEType, len(img.Data), sel.id)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gemini.Image), nil
}

// fetchImage downloads the image and base64-encodes it.
func (c *Controller) fetchImage(ctx context.Context, rawURL string) (*gemini.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", imageFetchUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}

	return &gemini.Image{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (c *Controller) resetPanes() {
	if c.panes.Story != nil {
		c.panes.Story.Reset()
	}
	if c.panes.Analysis != nil {
		c.panes.Analysis.Reset()
	}
	if c.panes.Chat != nil {
		c.panes.Chat.Reset()
	}
}
