package fiscal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxPageSize caps how much of a verification page is read.
const maxPageSize = 2 << 20

// Renderer fetches the fully rendered HTML of a verification page.
// Implementations are responsible for waiting until a single page
// application has settled.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, url string) (string, error)

func (f RenderFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// HTTPRenderer fetches a page with a plain GET. It suits server-rendered
// mirrors of the portal; a browser-backed renderer plugs in behind the
// same interface for the live single page application.
type HTTPRenderer struct {
	client    *http.Client
	userAgent string
}

// NewHTTPRenderer creates a renderer whose requests give up after timeout.
func NewHTTPRenderer(timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		client:    &http.Client{Timeout: timeout},
		userAgent: "stockscan/1.0",
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(body), nil
}
