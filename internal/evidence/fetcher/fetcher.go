// Package fetcher implements the Web Fetcher (C3): HTTP GET with a
// bounded redirect chain, timeout, and response-size cap, followed by
// readable-text extraction. Adapted from the teacher's web-content
// extraction stack (goquery/bluemonday/html-to-markdown, indirect
// dependencies of haowjy-meridian's go.mod used here directly) and from
// the http-client shape of tools/external/tavily_client.go.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"veritas/internal/config"
	"veritas/internal/domain"
)

var allowedContentTypes = []string{"text/html", "text/plain", "application/xhtml+xml"}

// Result is the fetched-and-extracted payload spec §4.3 names.
type Result struct {
	RawText   string
	FinalURL  string
	Title     string
	FetchedAt time.Time
	Status    int
}

// Fetcher performs the bounded HTTP GET + extraction pipeline.
type Fetcher struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
}

// New builds a Fetcher with the given per-request timeout. Redirects
// beyond config.FetchMaxRedirects are refused, matching the teacher's
// pattern of an explicit CheckRedirect guard rather than relying on the
// stdlib default of 10.
func New(timeout time.Duration) *Fetcher {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.FetchMaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.FetchMaxRedirects)
			}
			return nil
		},
	}
	// UGCPolicy retains paragraph/heading/list structure so
	// html-to-markdown has something to work with; StrictPolicy alone
	// would strip everything to bare text before conversion runs.
	return &Fetcher{client: client, sanitizer: bluemonday.UGCPolicy()}
}

// Fetch retrieves url and extracts its readable text. Errors are always
// a *domain.KindError classified per spec §4.3: fetch_timeout,
// fetch_blocked (unsupported_type/http_error, and any other transport
// error, including exceeding the redirect cap), too_large, or
// parse_error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, domain.WithKind(domain.KindParseError, err)
	}
	req.Header.Set("User-Agent", "veritas-evidence-fetcher/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeoutErr(err) {
			return Result{}, domain.WithKind(domain.KindFetchTimeout, err)
		}
		return Result{}, domain.WithKind(domain.KindFetchBlocked, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, domain.WithKind(domain.KindFetchBlocked, fmt.Errorf("http_error(%d)", resp.StatusCode))
	}

	ct := resp.Header.Get("Content-Type")
	if !contentTypeAllowed(ct) {
		return Result{}, domain.WithKind(domain.KindFetchBlocked, fmt.Errorf("unsupported_type: %s", ct))
	}

	limited := io.LimitReader(resp.Body, config.FetchMaxBodyBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return Result{}, domain.WithKind(domain.KindFetchTimeout, err)
	}
	if len(raw) > config.FetchMaxBodyBytes {
		return Result{}, domain.WithKind(domain.KindTooLarge, fmt.Errorf("response exceeded %d bytes", config.FetchMaxBodyBytes))
	}

	text, title, err := f.extractReadableText(raw)
	if err != nil {
		return Result{}, domain.WithKind(domain.KindParseError, err)
	}

	return Result{
		RawText:   text,
		FinalURL:  resp.Request.URL.String(),
		Title:     title,
		FetchedAt: time.Now(),
		Status:    resp.StatusCode,
	}, nil
}

func contentTypeAllowed(ct string) bool {
	ct = strings.ToLower(ct)
	for _, allowed := range allowedContentTypes {
		if strings.Contains(ct, allowed) {
			return true
		}
	}
	return false
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	for e := err; e != nil; {
		if t, ok := e.(timeouter); ok {
			te = t
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return te != nil && te.Timeout()
}

// extractReadableText strips script/style/nav/footer/header/aside via
// goquery, runs the remainder through bluemonday as a defense-in-depth
// sanitizer, then flattens to markdown-ish plain text via
// html-to-markdown and collapses whitespace (spec §4.3).
func (f *Fetcher) extractReadableText(raw []byte) (text string, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, nav, footer, header, aside").Remove()

	cleanedHTML, err := doc.Html()
	if err != nil {
		return "", "", err
	}
	sanitized := f.sanitizer.Sanitize(cleanedHTML)

	converted, err := htmltomarkdown.NewConverter("", true, nil).ConvertString(sanitized)
	if err != nil {
		return "", "", err
	}

	return collapseWhitespace(converted), title, nil
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
