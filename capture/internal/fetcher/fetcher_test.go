package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/article", http.StatusFound)
		case "/article":
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(article))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(WithUserAgent("outline-test"))
	res, err := f.Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != "outline-test" {
		t.Fatalf("user agent: got %q", gotUA)
	}
	if res.URL != srv.URL+"/article" {
		t.Fatalf("final url: got %q", res.URL)
	}
	if !res.Sufficient || res.Truncated || string(res.HTML) != article {
		t.Fatalf("result: sufficient=%v truncated=%v size=%d", res.Sufficient, res.Truncated, len(res.HTML))
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("missing page: got %v", err)
	}
}

func TestFetch_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	res, err := New(WithMaxBytes(10)).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.HTML) != 10 || !res.Truncated {
		t.Fatalf("got %d bytes, truncated=%v", len(res.HTML), res.Truncated)
	}
}
