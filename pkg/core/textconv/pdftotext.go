package textconv

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"mining_intel/pkg/core/docfetch"
)

// PDFTextAdapter converts PDF bytes to text using the pdftotext CLI
// (poppler-utils). Shelling out beats any in-process parser on the scanned,
// table-heavy PDFs technical reports ship as.
type PDFTextAdapter struct {
	// Binary is the pdftotext executable (default: "pdftotext").
	Binary string
	// Timeout for one conversion (default: 60s).
	Timeout time.Duration
}

// NewPDFTextAdapter creates a PDFTextAdapter with default settings.
func NewPDFTextAdapter() *PDFTextAdapter {
	return &PDFTextAdapter{
		Binary:  "pdftotext",
		Timeout: 60 * time.Second,
	}
}

// IsAvailable checks whether the pdftotext binary is installed.
func (p *PDFTextAdapter) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary(), "-v")
	return cmd.Run() == nil
}

// Convert extracts text from the PDF. Pages arrive separated by form feeds.
// When the binary fails on a damaged or scanned document, Convert degrades
// to a page count scan over the raw bytes instead of failing the document.
func (p *PDFTextAdapter) Convert(ctx context.Context, doc *docfetch.Document) (*Extracted, error) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// pdftotext command:
	//   -layout     : keep table columns aligned
	//   -enc UTF-8  : normalize output encoding
	//   - -         : read stdin, write stdout
	cmd := exec.CommandContext(ctx, p.binary(),
		"-layout",
		"-enc", "UTF-8",
		"-", "-",
	)
	cmd.Stdin = bytes.NewReader(doc.Body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pdftotext timeout after %v", timeout)
		}
		if pages := CountPDFPages(doc.Body); pages > 0 {
			return &Extracted{Pages: pages}, nil
		}
		return nil, fmt.Errorf("pdftotext failed: %v, stderr: %s", err, stderr.String())
	}

	text := stdout.String()
	return &Extracted{
		Text:     text,
		Pages:    strings.Count(text, "\f") + 1,
		Complete: strings.TrimSpace(text) != "",
	}, nil
}

func (p *PDFTextAdapter) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "pdftotext"
}

// pageObjPattern matches page object declarations in the raw PDF stream.
// The \b keeps /Type /Pages (the page tree root) from counting.
var pageObjPattern = regexp.MustCompile(`/Type\s*/Page\b`)

// CountPDFPages estimates the page count by scanning the raw bytes for page
// objects. Works on linearized and damaged files that defeat full parsing.
func CountPDFPages(raw []byte) int {
	return len(pageObjPattern.FindAllIndex(raw, -1))
}
