// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package archive talks to public-inbox HTTP archives: lore.kernel.org
// and compatible instances. It performs exactly one attempt per fetch
// and returns classified errors; retry policy is layered by the caller
// (see RetryPolicy).
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://lore.kernel.org"
	DefaultTimeout = 30 * time.Second

	userAgent = "lkml-mcp/0.1.0"
)

var (
	// ErrMissingInbox: the instance needs an explicit inbox in the URL
	// and none was configured or passed.
	ErrMissingInbox = errors.New("inbox parameter is required for this archive instance")
	// ErrFetchTimeout: the single fetch attempt exceeded its deadline.
	ErrFetchTimeout = errors.New("archive fetch timed out")
	// ErrEmptyQuery: a search was requested with no criteria at all.
	ErrEmptyQuery = errors.New("search query is empty")
)

// FetchError is a transport-level failure: a non-2xx final status after
// redirects, or a network error other than a timeout (Status stays 0).
type FetchError struct {
	Status int
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive fetch failed: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("archive fetch failed: status %d for %s", e.Status, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Instances known to support the universal /r/ redirect endpoint.
// Everything else is assumed to be per-inbox unless configured.
var universalRedirectHosts = map[string]bool{
	"lore.kernel.org": true,
}

// Config describes one archive instance. The zero value targets
// lore.kernel.org with the default timeout.
type Config struct {
	BaseURL string
	Inbox   string
	// RequiresInbox overrides instance detection when set.
	RequiresInbox *bool
	Timeout       time.Duration
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) requiresInbox() bool {
	if c.RequiresInbox != nil {
		return *c.RequiresInbox
	}
	u, err := url.Parse(c.baseURL())
	if err != nil {
		return true
	}
	return !universalRedirectHosts[u.Hostname()]
}

// Client fetches archive resources. Safe for concurrent use; the
// embedded http.Client provides connection pooling.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.timeout()})
}

// NewClientWithHTTP lets the caller supply the transport, e.g. one
// wrapped by RetryPolicy or a test double.
func NewClientWithHTTP(cfg Config, hc *http.Client) *Client {
	if hc.Timeout == 0 {
		hc.Timeout = cfg.timeout()
	}
	return &Client{cfg: cfg, http: hc}
}

// WithInbox returns a client using the given inbox for this request
// scope; an empty inbox returns the client unchanged.
func (c *Client) WithInbox(inbox string) *Client {
	if inbox == "" || inbox == c.cfg.Inbox {
		return c
	}
	cfg := c.cfg
	cfg.Inbox = inbox
	return &Client{cfg: cfg, http: c.http}
}

// FetchThread retrieves the gzipped mbox of the whole thread containing
// the message. The id must be in canonical bracket-free form.
func (c *Client) FetchThread(ctx context.Context, id string) ([]byte, error) {
	u, err := c.messageURL(id, "t.mbox.gz")
	if err != nil {
		return nil, err
	}
	return c.get(ctx, u)
}

// FetchRaw retrieves one message in raw RFC822 form.
func (c *Client) FetchRaw(ctx context.Context, id string) ([]byte, error) {
	u, err := c.messageURL(id, "raw")
	if err != nil {
		return nil, err
	}
	return c.get(ctx, u)
}

// FetchSearch runs a query against the instance's search endpoint and
// returns the Atom results page.
func (c *Client) FetchSearch(ctx context.Context, query string) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	u, err := c.searchURL(query)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, u)
}

func (c *Client) messageURL(id, suffix string) (string, error) {
	if c.cfg.requiresInbox() {
		if c.cfg.Inbox == "" {
			return "", ErrMissingInbox
		}
		return fmt.Sprintf("%s/%s/%s/%s", c.cfg.baseURL(), c.cfg.Inbox, id, suffix), nil
	}
	return fmt.Sprintf("%s/r/%s/%s", c.cfg.baseURL(), id, suffix), nil
}

func (c *Client) searchURL(query string) (string, error) {
	scope := "all"
	if c.cfg.requiresInbox() {
		if c.cfg.Inbox == "" {
			return "", ErrMissingInbox
		}
		scope = c.cfg.Inbox
	}
	return fmt.Sprintf("%s/%s/?q=%s&x=A", c.cfg.baseURL(), scope, url.QueryEscape(query)), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: get %s: %v", ErrFetchTimeout, u, err)
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Status: resp.StatusCode, URL: u}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: read %s: %v", ErrFetchTimeout, u, err)
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
