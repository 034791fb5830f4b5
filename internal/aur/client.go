package aur

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/obentoo/aurkit/internal/common/logger"
)

var (
	// ErrEmptyBody is returned when a 2xx response carries no content
	ErrEmptyBody = errors.New("empty response body")
	// ErrEmptyQuery is returned for an empty package name or search term
	ErrEmptyQuery = errors.New("empty package name or search term")
)

// FetchError reports a failed page retrieval: a transport error, a non-2xx
// status or an empty body.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFound reports a 404 response.
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// PackageURL returns <base>/packages/<name>.
func PackageURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/packages/" + url.PathEscape(name)
}

// SearchURL returns the name-and-description search URL for term, sorted
// by popularity, descending, 250 results per page.
func SearchURL(base, term string) string {
	// Built by hand: url.Values.Encode would sort the keys.
	return strings.TrimRight(base, "/") + "/packages/?SeB=nd&K=" + url.QueryEscape(term) +
		"&outdated=off&SB=p&SO=d&PP=250&do_Search=Go"
}

// CloneURL returns the default source repository URL for a package.
func CloneURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name + ".git"
}

// Client fetches package and search pages from the repository. It is safe
// for concurrent use.
type Client struct {
	baseURL     string
	http        *RetryableHTTPClient
	searchLimit int
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying retrying client
func WithHTTPClient(h *RetryableHTTPClient) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// WithSearchLimit caps the number of search results returned by Search
func WithSearchLimit(n int) ClientOption {
	return func(c *Client) {
		c.searchLimit = n
	}
}

// NewClient creates a client for the repository at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		searchLimit: 10,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewRetryableHTTPClient(DefaultRetryConfig())
	}
	return c
}

// BaseURL returns the repository root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPackage returns the raw HTML of the package page for name.
func (c *Client) FetchPackage(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyQuery
	}
	return c.fetch(ctx, PackageURL(c.baseURL, name))
}

// FetchSearch returns the raw HTML of the search results page for term.
func (c *Client) FetchSearch(ctx context.Context, term string) (string, error) {
	if strings.TrimSpace(term) == "" {
		return "", ErrEmptyQuery
	}
	return c.fetch(ctx, SearchURL(c.baseURL, term))
}

// fetch performs a single GET and validates status and body. Retries, if
// any are configured, happen inside the HTTP client.
func (c *Client) fetch(ctx context.Context, u string) (string, error) {
	logger.Debug("GET %s", u)

	resp, err := c.http.GetWithContext(ctx, u)
	if err != nil {
		return "", &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: u, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", &FetchError{URL: u, Err: ErrEmptyBody}
	}

	return string(body), nil
}

// RemoteVersion fetches the package page for name and extracts its
// published version.
func (c *Client) RemoteVersion(ctx context.Context, name string) (RemoteVersion, error) {
	html, err := c.FetchPackage(ctx, name)
	if err != nil {
		return RemoteVersion{}, err
	}

	v, err := ExtractVersion(html)
	if err != nil {
		return RemoteVersion{}, fmt.Errorf("%s: %w", name, err)
	}
	return RemoteVersion{Name: name, Version: v}, nil
}

// Details fetches the package page for name and parses version and metadata.
func (c *Client) Details(ctx context.Context, name string) (*Details, error) {
	html, err := c.FetchPackage(ctx, name)
	if err != nil {
		return nil, err
	}

	d, err := ParseDetails(html)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.Name == "" {
		d.Name = name
	}
	if d.CloneURL == "" {
		d.CloneURL = CloneURL(c.baseURL, d.Name)
	}
	return d, nil
}

// Search fetches the search page for term and returns at most the
// configured number of results, most popular first.
func (c *Client) Search(ctx context.Context, term string) ([]Package, error) {
	html, err := c.FetchSearch(ctx, term)
	if err != nil {
		return nil, err
	}

	pkgs, err := ParseSearchResults(html)
	if err != nil {
		return nil, err
	}
	if c.searchLimit > 0 && len(pkgs) > c.searchLimit {
		pkgs = pkgs[:c.searchLimit]
	}
	return pkgs, nil
}
