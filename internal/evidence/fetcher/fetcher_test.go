package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"veritas/internal/config"
	"veritas/internal/domain"
)

func TestFetch_ExtractsReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Hello</title><style>.x{color:red}</style></head>
			<body><nav>skip me</nav><p>Real content here.</p><footer>skip me too</footer></body></html>`))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Title != "Hello" {
		t.Errorf("want title %q, got %q", "Hello", result.Title)
	}
	if strings.Contains(result.RawText, "skip me") {
		t.Errorf("expected nav/footer to be stripped, got %q", result.RawText)
	}
	if !strings.Contains(result.RawText, "Real content here.") {
		t.Errorf("expected body text to survive extraction, got %q", result.RawText)
	}
	if result.Status != http.StatusOK {
		t.Errorf("want status 200, got %d", result.Status)
	}
}

func TestFetch_RejectsUnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for an unsupported content type")
	}
	if domain.KindOf(err) != domain.KindFetchBlocked {
		t.Errorf("want KindFetchBlocked, got %s", domain.KindOf(err))
	}
}

func TestFetch_RejectsHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	if domain.KindOf(err) != domain.KindFetchBlocked {
		t.Errorf("want KindFetchBlocked, got %s", domain.KindOf(err))
	}
}

func TestFetch_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write(make([]byte, config.FetchMaxBodyBytes+1024))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for an oversized response")
	}
	if domain.KindOf(err) != domain.KindTooLarge {
		t.Errorf("want KindTooLarge, got %s", domain.KindOf(err))
	}
}

func TestFetch_TooManyRedirectsIsBlocked(t *testing.T) {
	var redirectTarget string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, redirectTarget, http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	redirectTarget = srv.URL + "/start" // infinite redirect loop

	f := New(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/start")
	if err == nil {
		t.Fatal("expected an error once the redirect cap is exceeded")
	}
}
