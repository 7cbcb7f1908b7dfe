// Package docfetch retrieves filing documents. Filing links frequently land
// on an HTML viewer page instead of the PDF itself, so the fetcher sniffs the
// payload and follows at most one embedded PDF link.
package docfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultMaxBytes caps a single document download.
	DefaultMaxBytes = 100 << 20 // 100 MB

	// DefaultTimeout bounds a single download.
	DefaultTimeout = 60 * time.Second

	// maxPDFHops bounds HTML -> PDF link following. Viewer pages link the
	// PDF directly; anything deeper is a navigation maze, not a document.
	maxPDFHops = 1
)

var pdfMagic = []byte("%PDF-")

// Kind classifies the retrieved payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindHTML
)

// Document is a retrieved filing document.
type Document struct {
	Body        []byte
	ContentType string
	Kind        Kind
	SourceURL   string
}

// Result reports one fetch attempt. A failed download is not an error: the
// document is marked missing with a reason and the caller moves on.
type Result struct {
	Doc     *Document
	Missing bool
	Reason  string
}

// Fetcher downloads filing documents with injected credentials.
type Fetcher struct {
	httpClient *http.Client
	Username   string
	APIKey     string
	MaxBytes   int64
}

// NewFetcher creates a Fetcher with the default size and time budgets.
func NewFetcher(username, apiKey string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Username: username,
		APIKey:   apiKey,
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch retrieves the document behind link. HTML payloads are scanned for a
// PDF link, which is followed at most once.
func (f *Fetcher) Fetch(ctx context.Context, link string) Result {
	return f.fetch(ctx, link, 0)
}

func (f *Fetcher) fetch(ctx context.Context, link string, hops int) Result {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return missing(fmt.Sprintf("bad document link: %v", err))
	}
	req.SetBasicAuth(f.Username, f.APIKey)
	req.Header.Set("Accept", "application/pdf,application/octet-stream,text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return missing(fmt.Sprintf("download failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return missing(fmt.Sprintf("download returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return missing(fmt.Sprintf("download read failed: %v", err))
	}
	if int64(len(body)) > f.MaxBytes {
		return missing(fmt.Sprintf("document exceeds %d byte limit", f.MaxBytes))
	}

	contentType := resp.Header.Get("Content-Type")
	doc := &Document{
		Body:        body,
		ContentType: contentType,
		Kind:        classify(contentType, body),
		SourceURL:   link,
	}

	if doc.Kind == KindHTML {
		if pdfLink, ok := findPDFLink(body, link); ok && hops < maxPDFHops {
			inner := f.fetch(ctx, pdfLink, hops+1)
			if !inner.Missing {
				return inner
			}
			// The embedded link was a dead end; fall back to the HTML we have.
		}
	}

	return Result{Doc: doc}
}

func missing(reason string) Result {
	return Result{Missing: true, Reason: reason}
}

// classify uses the Content-Type header first and the payload's magic bytes
// as a tiebreaker.
func classify(contentType string, body []byte) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"), strings.Contains(ct, "octet-stream"):
		return KindPDF
	case strings.Contains(ct, "html"):
		return KindHTML
	}
	if bytes.HasPrefix(body, pdfMagic) {
		return KindPDF
	}
	if bytes.Contains(body[:min(len(body), 1024)], []byte("<html")) ||
		bytes.Contains(body[:min(len(body), 1024)], []byte("<!DOCTYPE")) {
		return KindHTML
	}
	return KindUnknown
}

// findPDFLink scans an HTML viewer page for the first anchor pointing at a
// PDF and resolves it against the page URL.
func findPDFLink(body []byte, pageURL string) (string, bool) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	var found string
	page.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(strings.ToLower(href), ".pdf") {
			found = href
			return false
		}
		return true
	})
	if found == "" {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return found, true
	}
	ref, err := url.Parse(found)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
