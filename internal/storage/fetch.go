package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxFetchBytes caps downloads of remote images.
const MaxFetchBytes = 20 << 20

// Fetch downloads url and returns its body and Content-Type. Non-200 responses are errors.
func Fetch(ctx context.Context, hc *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
