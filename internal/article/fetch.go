package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 4 << 20

// Waiter rate-limits requests by URL.
type Waiter interface {
	WaitWithDelay(ctx context.Context, rawURL string, delay time.Duration) error
}

// Fetcher downloads article pages, honouring robots.txt.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   Waiter
	log       zerolog.Logger

	mu     sync.RWMutex
	robots map[string]*robotstxt.RobotsData
}

// NewFetcher creates a fetcher. limiter may be nil.
func NewFetcher(timeout time.Duration, userAgent string, limiter Waiter, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   limiter,
		log:       log,
		robots:    make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch downloads rawURL and extracts its article.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Article{}, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	allowed, delay := f.checkRobots(ctx, parsed)
	if !allowed {
		return Article{}, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, delay); err != nil {
			return Article{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	a, err := ParseHTML(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Article{}, err
	}
	a.ID = rawURL
	a.URL = rawURL
	f.log.Debug().Str("url", rawURL).Int("body_bytes", len(a.Body)).Msg("article fetched")
	return a, nil
}

// checkRobots reports whether the page may be fetched and the crawl delay
// to observe. An unreachable robots.txt allows the fetch.
func (f *Fetcher) checkRobots(ctx context.Context, u *url.URL) (bool, time.Duration) {
	data, err := f.robotsFor(ctx, u)
	if err != nil {
		f.log.Warn().Err(err).Str("host", u.Host).Msg("robots.txt unavailable, allowing fetch")
		return true, 0
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	allowed := data.TestAgent(path, f.userAgent)
	var delay time.Duration
	if group := data.FindGroup(f.userAgent); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay
}

func (f *Fetcher) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	f.mu.RLock()
	data, ok := f.robots[u.Host]
	f.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	f.mu.Lock()
	f.robots[u.Host] = data
	f.mu.Unlock()
	return data, nil
}
