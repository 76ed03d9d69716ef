package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"shrike/internal/domain"
	"shrike/internal/judge"
	"shrike/internal/support"
)

// ProxyCheckRequest makes one request to the judge tunneled through the
// candidate. Returns the response body and status code.
func ProxyCheckRequest(ctx context.Context, proxyToCheck domain.Proxy, j *judge.Judge, timeout time.Duration) (string, int, error) {
	transport, err := support.CreateTransport(proxyToCheck, j.GetHostname(), timeout)
	if err != nil {
		return "", 0, err
	}
	defer transport.CloseIdleConnections() // Release resources immediately

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.GetFullString(), nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Connection", "close")
	req.Header.Set("User-Agent", support.RandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}

	return string(body), resp.StatusCode, nil
}

// DefaultRequest makes one direct, unproxied request.
func DefaultRequest(ctx context.Context, siteURL string, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, siteURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", support.RandomUserAgent())

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("request to %s returned status %d", siteURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
