package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shrike/internal/support"
)

// FetchSource retrieves one plain-text source with a direct GET.
func FetchSource(ctx context.Context, sourceURL string, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", support.RandomUserAgent())

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("source fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// RenderSource retrieves one source through the headless browser, for
// pages that only materialize their list in JS. The browser launches
// lazily on the first call.
func RenderSource(sourceURL string, timeout time.Duration) (string, error) {
	p, err := borrowPage(timeout)
	if err != nil {
		return "", err
	}
	defer recyclePage(p)

	p = p.Timeout(timeout)
	if err := p.Navigate(sourceURL); err != nil {
		return "", err
	}
	if err := p.WaitLoad(); err != nil {
		return "", err
	}

	return p.HTML()
}

// ParseSourceText splits a source body into raw candidate strings. Lists
// routinely append metadata after the endpoint, so only the first token
// of each line counts; blank lines and #-comments are skipped.
func ParseSourceText(body string) []string {
	lines := strings.Split(body, "\n")
	candidates := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		candidates = append(candidates, strings.Fields(line)[0])
	}

	return candidates
}
