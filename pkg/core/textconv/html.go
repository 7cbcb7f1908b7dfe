package textconv

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mining_intel/pkg/core/docfetch"
)

// HTMLTextConverter extracts readable text from HTML filings. Script, style
// and navigation noise is stripped before the text is flattened.
type HTMLTextConverter struct{}

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

func (h *HTMLTextConverter) Convert(ctx context.Context, doc *docfetch.Document) (*Extracted, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page.Find("script, style, noscript, nav, header, footer").Remove()

	root := page.Find("body")
	if root.Length() == 0 {
		root = page.Selection
	}

	text := root.Text()
	text = horizontalWS.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return &Extracted{
		Text:     text,
		Pages:    1,
		Complete: text != "",
	}, nil
}
