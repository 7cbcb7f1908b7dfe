// Package textconv turns retrieved filing documents into plain text for the
// extraction pass. PDF conversion shells out to pdftotext; HTML is handled
// in-process.
package textconv

import (
	"bytes"
	"context"
	"fmt"

	"mining_intel/pkg/core/docfetch"
)

// Extracted is the text form of a document. Pages are separated by form
// feeds in Text; Pages is always populated when it can be determined, even
// when full text extraction failed.
type Extracted struct {
	Text  string
	Pages int
	// Complete is false when only degraded information (page count, no text)
	// could be recovered.
	Complete bool
}

// Converter turns a document into text.
type Converter interface {
	Convert(ctx context.Context, doc *docfetch.Document) (*Extracted, error)
}

// AutoConverter routes documents to the right converter by kind. Unknown
// payloads are routed by magic bytes.
type AutoConverter struct {
	PDF  Converter
	HTML Converter
}

// NewAutoConverter wires the default PDF and HTML converters.
func NewAutoConverter() *AutoConverter {
	return &AutoConverter{
		PDF:  NewPDFTextAdapter(),
		HTML: &HTMLTextConverter{},
	}
}

func (a *AutoConverter) Convert(ctx context.Context, doc *docfetch.Document) (*Extracted, error) {
	switch doc.Kind {
	case docfetch.KindPDF:
		return a.PDF.Convert(ctx, doc)
	case docfetch.KindHTML:
		return a.HTML.Convert(ctx, doc)
	default:
		if bytes.HasPrefix(doc.Body, []byte("%PDF-")) {
			return a.PDF.Convert(ctx, doc)
		}
		return nil, fmt.Errorf("cannot convert document of unknown kind from %s", doc.SourceURL)
	}
}
