package textconv

import (
	"context"
	"strings"
	"testing"

	"mining_intel/pkg/core/docfetch"
)

func TestHTMLTextConverter(t *testing.T) {
	doc := &docfetch.Document{
		Kind: docfetch.KindHTML,
		Body: []byte(`<html><head><style>body { color: red }</style>
<script>alert("nope")</script></head>
<body>
<h1>Coyote Gold Project</h1>
<p>The post-tax NPV is    $450 million.</p>
</body></html>`),
	}

	out, err := (&HTMLTextConverter{}).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !out.Complete {
		t.Error("conversion not marked complete")
	}
	if !strings.Contains(out.Text, "post-tax NPV is $450 million") {
		t.Errorf("text missing or whitespace not collapsed: %q", out.Text)
	}
	if strings.Contains(out.Text, "alert") || strings.Contains(out.Text, "color: red") {
		t.Errorf("script/style leaked into text: %q", out.Text)
	}
	if out.Pages != 1 {
		t.Errorf("pages = %d, want 1", out.Pages)
	}
}

func TestCountPDFPages(t *testing.T) {
	raw := []byte(`%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R 4 0 R 5 0 R] /Count 3 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R >> endobj
4 0 obj << /Type /Page /Parent 2 0 R >> endobj
5 0 obj << /Type /Page /Parent 2 0 R >> endobj
%%EOF`)

	if got := CountPDFPages(raw); got != 3 {
		t.Errorf("pages = %d, want 3 (the /Type /Pages root must not count)", got)
	}
	if got := CountPDFPages([]byte("not a pdf")); got != 0 {
		t.Errorf("pages = %d for junk input, want 0", got)
	}
}

func TestAutoConverterRouting(t *testing.T) {
	recorderPDF := &recordingConverter{}
	recorderHTML := &recordingConverter{}
	auto := &AutoConverter{PDF: recorderPDF, HTML: recorderHTML}
	ctx := context.Background()

	auto.Convert(ctx, &docfetch.Document{Kind: docfetch.KindPDF})
	if recorderPDF.calls != 1 {
		t.Error("PDF document not routed to the PDF converter")
	}

	auto.Convert(ctx, &docfetch.Document{Kind: docfetch.KindHTML})
	if recorderHTML.calls != 1 {
		t.Error("HTML document not routed to the HTML converter")
	}

	// Unknown kind with PDF magic bytes routes to the PDF converter.
	auto.Convert(ctx, &docfetch.Document{Kind: docfetch.KindUnknown, Body: []byte("%PDF-1.7")})
	if recorderPDF.calls != 2 {
		t.Error("unknown document with PDF magic not routed to the PDF converter")
	}

	if _, err := auto.Convert(ctx, &docfetch.Document{Kind: docfetch.KindUnknown, Body: []byte{0x01}}); err == nil {
		t.Error("expected an error for an unclassifiable document")
	}
}

type recordingConverter struct {
	calls int
}

func (r *recordingConverter) Convert(ctx context.Context, doc *docfetch.Document) (*Extracted, error) {
	r.calls++
	return &Extracted{Text: "ok", Pages: 1, Complete: true}, nil
}
