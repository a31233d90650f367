package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxBytes     = 2 << 20
	defaultMaxChars     = 4000
	defaultUserAgent    = "agentpatterns-fetch/1.0"
)

// Page is a fetched web page.
type Page struct {
	URL      string
	Status   int
	Title    string
	Markdown string
}

// FetchPage performs one anonymous GET and converts the page to Markdown.
type FetchPage struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	maxChars  int
	userAgent string
}

var _ Tool = (*FetchPage)(nil)

type FetchOption func(*FetchPage)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *FetchPage) {
		f.client = c
	}
}

// WithFetchTimeout bounds each request.
func WithFetchTimeout(d time.Duration) FetchOption {
	return func(f *FetchPage) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBytes caps the response body read.
func WithMaxBytes(n int64) FetchOption {
	return func(f *FetchPage) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithMaxChars truncates the Markdown handed back to a model.
func WithMaxChars(n int) FetchOption {
	return func(f *FetchPage) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

// NewFetchPage creates the fetch_page tool.
func NewFetchPage(opts ...FetchOption) *FetchPage {
	f := &FetchPage{
		client:    http.DefaultClient,
		timeout:   defaultFetchTimeout,
		maxBytes:  defaultMaxBytes,
		maxChars:  defaultMaxChars,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FetchPage) Name() string { return "fetch_page" }

func (f *FetchPage) Description() string {
	return "Fetches a public web page with a single GET request and returns its title and content as Markdown."
}

func (f *FetchPage) Parameters() map[string]any {
	return Object(map[string]any{
		"url": Property("string", "The absolute http or https URL to fetch"),
	}, "url")
}

// Call fetches the url argument and renders the page for a model.
func (f *FetchPage) Call(ctx context.Context, arguments string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	page, err := f.Fetch(ctx, args.URL)
	if err != nil {
		return "", err
	}

	md := page.Markdown
	if r := []rune(md); len(r) > f.maxChars {
		md = string(r[:f.maxChars]) + "\n..."
	}
	return fmt.Sprintf("# %s\nURL: %s\n\n%s", page.Title, page.URL, md), nil
}

// Fetch retrieves rawURL.
func (f *FetchPage) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("%w: url must start with http:// or https://: %q", ErrInvalidArguments, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status: %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(content) == "" {
		content = string(body)
	}

	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to convert html: %w", err)
	}

	return &Page{
		URL:      resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Title:    title,
		Markdown: strings.TrimSpace(md),
	}, nil
}
