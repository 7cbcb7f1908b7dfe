package docfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const fakePDF = "%PDF-1.7 fake pdf body"

func newTestFetcher() *Fetcher {
	return NewFetcher("user", "key")
}

func TestFetchDirectPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "user" || pass != "key" {
			t.Errorf("missing or wrong basic auth: %s/%s", user, pass)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	}))
	defer srv.Close()

	res := newTestFetcher().Fetch(context.Background(), srv.URL+"/report.pdf")
	if res.Missing {
		t.Fatalf("fetch missing: %s", res.Reason)
	}
	if res.Doc.Kind != KindPDF {
		t.Errorf("kind = %v, want KindPDF", res.Doc.Kind)
	}
	if string(res.Doc.Body) != fakePDF {
		t.Errorf("unexpected body %q", res.Doc.Body)
	}
}

func TestFetchFollowsViewerPageToPDF(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/viewer", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<a href="/help">help</a>
			<a href="report.pdf">Download the report</a>
		</body></html>`))
	})
	mux.HandleFunc("/report.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	})

	res := newTestFetcher().Fetch(context.Background(), srv.URL+"/viewer")
	if res.Missing {
		t.Fatalf("fetch missing: %s", res.Reason)
	}
	if res.Doc.Kind != KindPDF {
		t.Fatalf("kind = %v, want KindPDF after following viewer link", res.Doc.Kind)
	}
	if !strings.HasSuffix(res.Doc.SourceURL, "/report.pdf") {
		t.Errorf("source url = %s", res.Doc.SourceURL)
	}
}

func TestFetchStopsAfterOneHop(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Each viewer page links a ".pdf" URL that serves yet another HTML page.
	viewer := func(next string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><a href="` + next + `">continue</a></body></html>`))
		}
	}
	mux.HandleFunc("/viewer", viewer("/hop1.pdf"))
	mux.HandleFunc("/hop1.pdf", viewer("/hop2.pdf"))
	mux.HandleFunc("/hop2.pdf", func(w http.ResponseWriter, r *http.Request) {
		t.Error("second hop followed; redirect depth not bounded")
	})

	res := newTestFetcher().Fetch(context.Background(), srv.URL+"/viewer")
	if res.Missing {
		t.Fatalf("fetch missing: %s", res.Reason)
	}
	if res.Doc.Kind != KindHTML {
		t.Errorf("kind = %v, want KindHTML (the first hop's payload)", res.Doc.Kind)
	}
}

func TestFetchRejectsOversizeDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	f := newTestFetcher()
	f.MaxBytes = 1024
	res := f.Fetch(context.Background(), srv.URL)
	if !res.Missing {
		t.Fatal("oversize document was not rejected")
	}
	if !strings.Contains(res.Reason, "limit") {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestFetchMissingOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	res := newTestFetcher().Fetch(context.Background(), srv.URL)
	if !res.Missing {
		t.Fatal("HTTP error should mark the document missing")
	}
}

func TestClassifyByMagicBytes(t *testing.T) {
	if classify("", []byte("%PDF-1.4 ...")) != KindPDF {
		t.Error("PDF magic bytes not recognized without a content type")
	}
	if classify("", []byte("<!DOCTYPE html><html></html>")) != KindHTML {
		t.Error("HTML payload not recognized without a content type")
	}
	if classify("", []byte{0x00, 0x01}) != KindUnknown {
		t.Error("binary junk should classify as unknown")
	}
}
