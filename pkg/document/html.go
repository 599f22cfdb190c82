package document

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"

	"github.com/go-shiori/go-readability"
)

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content, so furigana is not typed twice ("漢字" instead of "漢字かんじ").
// It is byte based and safe for Shift_JIS, where '<' is never a trailing byte.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// Article is the readable part of an HTML page.
type Article struct {
	Title string
	Text  string
}

// FromHTML extracts the main article text of an HTML page. pageURL may be empty.
func FromHTML(r io.Reader, pageURL string) (Article, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Article{}, fmt.Errorf("read html: %w", err)
	}
	var u *url.URL
	if pageURL != "" {
		if u, err = url.Parse(pageURL); err != nil {
			return Article{}, fmt.Errorf("parse page url: %w", err)
		}
	} else {
		u = &url.URL{Scheme: "http", Host: "localhost"}
	}
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(raw)), u)
	if err != nil {
		return Article{}, fmt.Errorf("readability extraction failed: %w", err)
	}
	return Article{Title: article.Title, Text: article.TextContent}, nil
}
