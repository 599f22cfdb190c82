package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/japaniel/userdict/pkg/document"
)

// Read content with size limit to prevent OOM from untrusted URLs
const maxBodySize = 10 * 1024 * 1024 // 10 MB limit for HTML content

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// fetchArticle downloads pageURL and extracts its readable text.
func fetchArticle(ctx context.Context, pageURL string) (document.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return document.Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	// Some sites block clients without a browser User-Agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := fetchClient.Do(req)
	if err != nil {
		return document.Article{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return document.Article{}, fmt.Errorf("got status code %d", resp.StatusCode)
	}
	if resp.ContentLength > int64(maxBodySize) {
		return document.Article{}, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}

	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return document.Article{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return document.Article{}, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}
	return document.FromHTML(bytes.NewReader(body), pageURL)
}
