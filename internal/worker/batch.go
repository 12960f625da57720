package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/article"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Detector detects Kentucky geography in one article.
type Detector interface {
	Detect(headline, body string) kygeo.Result
}

// DetectJob runs detection for one article.
type DetectJob struct {
	Index    int
	Article  article.Article
	Detector Detector
}

// Execute executes the detection job
func (j *DetectJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &DetectResult{Index: j.Index, Article: j.Article, Error: err}
	}
	res := j.Detector.Detect(j.Article.Headline, j.Article.Body)
	return &DetectResult{Index: j.Index, Article: j.Article, Result: res}
}

// DetectResult is the outcome of a DetectJob.
type DetectResult struct {
	Index   int
	Article article.Article
	Result  kygeo.Result
	Error   error
}

// GetError returns the error from the detection result
func (r *DetectResult) GetError() error {
	return r.Error
}

// BatchProcessor detects over many articles concurrently.
type BatchProcessor struct {
	detector    Detector
	concurrency int
	log         zerolog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(d Detector, concurrency int, log zerolog.Logger) *BatchProcessor {
	return &BatchProcessor{
		detector:    d,
		concurrency: concurrency,
		log:         log,
	}
}

// Process detects over articles and returns one result per article, in
// input order. Articles not processed before ctx is done carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, articles []article.Article) []*DetectResult {
	out := make([]*DetectResult, len(articles))
	if len(articles) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, a := range articles {
			if !pool.Submit(&DetectJob{Index: i, Article: a, Detector: b.detector}) {
				return
			}
		}
	}()

	for r := range pool.Results() {
		dr := r.(*DetectResult)
		out[dr.Index] = dr
	}

	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &DetectResult{Index: i, Article: articles[i], Error: err}
		}
	}
	b.log.Debug().Int("articles", len(articles)).Int("workers", b.concurrency).Msg("batch processed")
	return out
}

// Errors combines the errors of results into one error, or nil.
func Errors(results []*DetectResult) error {
	var errs error
	for _, r := range results {
		if r.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("article %q: %w", r.Article.ID, r.Error))
		}
	}
	return errs
}

// ReadArticles reads JSON Lines of articles. Blank lines and lines starting
// with "#" are skipped; articles without an id get their line number.
func ReadArticles(r io.Reader) ([]article.Article, error) {
	var articles []article.Article

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var a article.Article
		if err := json.Unmarshal([]byte(line), &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("line-%d", lineNo)
		}
		articles = append(articles, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}
	return articles, nil
}

// WriteResults writes one JSON object per result: the article id, its
// result, and an error string for failed articles.
func WriteResults(w io.Writer, results []*DetectResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		rec := struct {
			ID     string        `json:"id"`
			URL    string        `json:"url,omitempty"`
			Result *kygeo.Result `json:"result,omitempty"`
			Tag    string        `json:"tag,omitempty"`
			Error  string        `json:"error,omitempty"`
		}{ID: r.Article.ID, URL: r.Article.URL}
		if r.Error != nil {
			rec.Error = r.Error.Error()
		} else {
			res := r.Result
			rec.Result = &res
			rec.Tag = res.PrimaryTag()
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write result %q: %w", r.Article.ID, err)
		}
	}
	return nil
}
