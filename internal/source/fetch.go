package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxPageBytes caps how much of a search results page is read. Listing pages
// are a few hundred KB; anything bigger is not a page we can use.
const maxPageBytes = 4 << 20

// pageFetcher issues the HTTP GET for a search results page and parses the
// body into a document. Shared by all source adapters.
type pageFetcher struct {
	client    *http.Client
	userAgent string
}

func newPageFetcher(userAgent string, timeout time.Duration) *pageFetcher {
	return &pageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// fetchDocument GETs the URL with a browser user-agent and parses the body.
// Non-2xx statuses, anti-bot interstitials, and unparseable bodies are all
// errors; the adapter translates any of them into an empty contribution.
func (f *pageFetcher) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	if blocked, kind := detectBlock(resp, body); blocked {
		return nil, fmt.Errorf("fetch page: blocked (%s)", kind)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// detectBlock checks a response for signs of anti-bot protection. Listing
// sites serve challenge pages with a 200 status, which would otherwise look
// like a page with zero cards.
func detectBlock(resp *http.Response, body []byte) (bool, string) {
	if resp.Header.Get("cf-ray") != "" && resp.StatusCode != http.StatusOK {
		return true, "cloudflare"
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return true, "cloudflare"
	}
	if strings.Contains(lower, "recaptcha") || strings.Contains(lower, "hcaptcha") {
		return true, "captcha"
	}

	return false, ""
}
