// Package feed pulls RSS and Atom feeds and tags their items.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/article"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Waiter rate-limits requests by URL.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Detector detects Kentucky geography in one article.
type Detector interface {
	Detect(headline, body string) kygeo.Result
}

// Item is one feed entry reduced to an article.
type Item struct {
	Feed      string          `json:"feed"`
	Title     string          `json:"title"`
	Link      string          `json:"link,omitempty"`
	Published *time.Time      `json:"published,omitempty"`
	Article   article.Article `json:"-"`
}

// Tagged is a feed item with its detection result.
type Tagged struct {
	Item
	Result kygeo.Result `json:"result"`
	Tag    string       `json:"tag"`
}

// Reader fetches and parses feeds.
type Reader struct {
	client    *http.Client
	userAgent string
	limiter   Waiter
	log       zerolog.Logger
}

// NewReader creates a feed reader. limiter may be nil.
func NewReader(timeout time.Duration, userAgent string, limiter Waiter, log zerolog.Logger) *Reader {
	return &Reader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   limiter,
		log:       log,
	}
}

// Read fetches feedURL and returns its items.
func (r *Reader) Read(ctx context.Context, feedURL string) ([]Item, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, feedURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %d", feedURL, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		source = feedURL
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, toItem(source, it))
	}
	r.log.Info().Str("feed", feedURL).Int("items", len(items)).Msg("feed parsed")
	return items, nil
}

func toItem(source string, it *gofeed.Item) Item {
	body := it.Content
	if strings.TrimSpace(body) == "" {
		body = it.Description
	}

	item := Item{
		Feed:  source,
		Title: strings.TrimSpace(it.Title),
		Link:  strings.TrimSpace(it.Link),
	}
	switch {
	case it.PublishedParsed != nil:
		item.Published = it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.Published = it.UpdatedParsed
	}

	id := strings.TrimSpace(it.GUID)
	if id == "" {
		id = item.Link
	}
	item.Article = article.Article{
		ID:       id,
		URL:      item.Link,
		Headline: article.StripHTML(item.Title),
		Body:     article.StripHTML(body),
	}
	return item
}

// Tag reads every feed and detects over each item. A feed that fails is
// logged and skipped; the error returned covers only ctx cancellation.
func (r *Reader) Tag(ctx context.Context, d Detector, feedURLs []string, emit func(Tagged) error) error {
	for _, u := range feedURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, err := r.Read(ctx, u)
		if err != nil {
			r.log.Warn().Err(err).Str("feed", u).Msg("skipping feed")
			continue
		}
		for _, it := range items {
			res := d.Detect(it.Article.Headline, it.Article.Body)
			if err := emit(Tagged{Item: it, Result: res, Tag: res.PrimaryTag()}); err != nil {
				return err
			}
		}
	}
	return nil
}
