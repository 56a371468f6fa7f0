package linkmeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// TitleExtractionFailed is the sentinel title recorded when a page can be
// fetched but no usable title is found.
const TitleExtractionFailed = "title extraction failed"

// maxBodyChars caps the amount of page text handed to downstream analysis.
const maxBodyChars = 100_000

// WebClient fetches and scrapes webpages.
type WebClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewWebClient creates a webpage client with the given request timeout.
func NewWebClient(timeout time.Duration) *WebClient {
	return &WebClient{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "Mozilla/5.0 (compatible; LumenBot/1.0)",
	}
}

// IsAccessible probes the URL with a HEAD request, falling back to GET for
// servers that reject HEAD. Any 2xx or 3xx response counts as accessible.
func (c *WebClient) IsAccessible(ctx context.Context, rawURL string) bool {
	log := logger.FromContext(ctx)

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return false
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Debug("accessibility probe failed", "url", rawURL, "method", method, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode < 400 {
			return true
		}
		if method == http.MethodHead && resp.StatusCode == http.StatusMethodNotAllowed {
			continue
		}
		return false
	}
	return false
}

// PageTitle fetches the page and returns its <title> text. Any failure,
// whether fetching, parsing, or a page without a usable title, yields the
// TitleExtractionFailed sentinel. A bad title never blocks processing.
func (c *WebClient) PageTitle(ctx context.Context, rawURL string) string {
	doc, err := c.fetchDocument(ctx, rawURL)
	if err != nil {
		logger.FromContext(ctx).Debug("title fetch failed", "url", rawURL, "error", err)
		return TitleExtractionFailed
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return TitleExtractionFailed
	}
	return title
}

// PageText fetches the page and returns its visible body text with scripts
// and styles stripped, capped at maxBodyChars.
func (c *WebClient) PageText(ctx context.Context, rawURL string) (string, error) {
	doc, err := c.fetchDocument(ctx, rawURL)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()
	text := normalizeWhitespace(doc.Find("body").Text())
	if text == "" {
		// Pages without an explicit body tag still have text nodes.
		text = normalizeWhitespace(doc.Text())
	}
	if len(text) > maxBodyChars {
		text = text[:maxBodyChars]
	}
	return text, nil
}

func (c *WebClient) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// normalizeWhitespace collapses runs of whitespace into single spaces and
// trims the result.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
