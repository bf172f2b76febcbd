// Package fetch retrieves web pages and reduces them to the visible text the
// visibility engine evaluates.
package fetch

import (
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
	defaultUserAgent = "brandlens/1.0 (+https://github.com/otherjamesbrown/brandlens)"
	defaultMaxBytes  = 5 << 20
	// DefaultMaxChars bounds the text handed to scoring.
	DefaultMaxChars = 5000
)

// Page is the extracted content of one URL.
type Page struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Config configures a Fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	// MaxBytes caps how much of a response body is read.
	MaxBytes int64
	// MaxChars truncates extracted text; zero means DefaultMaxChars.
	MaxChars int
}

// Fetcher downloads pages over HTTP.
type Fetcher struct {
	client *http.Client
	cfg    Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	return &Fetcher{client: &http.Client{Timeout: cfg.Timeout}, cfg: cfg}
}

// Fetch downloads rawURL and extracts its visible text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: want an absolute http(s) URL", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.cfg.MaxBytes)
	page := &Page{URL: rawURL, FetchedAt: time.Now().UTC()}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rawURL, err)
		}
		page.Text = Truncate(collapseSpace(string(data)), f.cfg.MaxChars)
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", rawURL, err)
	}
	page.Title = extractTitle(doc)
	page.Text = Truncate(visibleText(doc), f.cfg.MaxChars)
	return page, nil
}

// ExtractText returns the title and visible text of an HTML document.
func ExtractText(html string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	return extractTitle(doc), visibleText(doc), nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		return collapseSpace(title)
	}
	if og, _ := doc.Find("meta[property='og:title']").Attr("content"); strings.TrimSpace(og) != "" {
		return collapseSpace(og)
	}
	return collapseSpace(doc.Find("h1").First().Text())
}

// blockSelector lists elements whose boundaries separate words.
const blockSelector = "p, div, br, li, ul, ol, tr, td, th, h1, h2, h3, h4, h5, h6, " +
	"section, article, header, footer, nav, aside, main, blockquote, pre, dt, dd"

func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, svg, template, head").Remove()
	doc.Find(blockSelector).AppendHtml(" ")

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return collapseSpace(root.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
