// Package watch tags article files dropped into an inbox directory.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/article"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ResultSuffix is appended to an article's file name for its result file.
const ResultSuffix = ".geo.json"

// DefaultSettle is how long a file must go without events before it is
// tagged. Writers usually create a file and then fill it in several writes.
const DefaultSettle = 250 * time.Millisecond

// Detector detects Kentucky geography in one article.
type Detector interface {
	Detect(headline, body string) kygeo.Result
}

// Watcher monitors a directory for new article files and writes a result
// file beside each one.
type Watcher struct {
	dir        string
	extensions map[string]bool
	detector   Detector
	log        zerolog.Logger
	settle     time.Duration
}

// New creates a watcher for dir. Files whose extension is not listed are
// ignored.
func New(dir string, extensions []string, d Detector, log zerolog.Logger) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &Watcher{dir: dir, extensions: exts, detector: d, log: log, settle: DefaultSettle}
}

// Run backfills existing files and then tags new ones until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if err := w.Backfill(); err != nil {
		return err
	}
	w.log.Info().Str("dir", w.dir).Msg("watching inbox")

	// Each path is tagged once its events have been quiet for w.settle.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.accepts(evt.Name) {
				continue
			}
			if t, ok := pending[evt.Name]; ok {
				t.Reset(w.settle)
				continue
			}
			name := evt.Name
			pending[name] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- name:
				case <-done:
				}
			})
		case name := <-ready:
			delete(pending, name)
			if _, err := w.Process(name); err != nil {
				w.log.Warn().Err(err).Str("file", name).Msg("tagging failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// Backfill tags every accepted file in the directory that has no result
// file yet.
func (w *Watcher) Backfill() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.IsDir() || !w.accepts(path) {
			continue
		}
		if _, err := os.Stat(path + ResultSuffix); err == nil {
			continue
		}
		if _, err := w.Process(path); err != nil {
			w.log.Warn().Err(err).Str("file", path).Msg("tagging failed")
		}
	}
	return nil
}

func (w *Watcher) accepts(path string) bool {
	if strings.HasSuffix(path, ResultSuffix) {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// Process tags one file and writes its result file.
func (w *Watcher) Process(path string) (kygeo.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kygeo.Result{}, fmt.Errorf("read article: %w", err)
	}

	a, err := article.Load(path, data)
	if err != nil {
		return kygeo.Result{}, err
	}
	res := w.detector.Detect(a.Headline, a.Body)

	out, err := json.MarshalIndent(struct {
		File   string       `json:"file"`
		Result kygeo.Result `json:"result"`
		Tag    string       `json:"tag"`
	}{filepath.Base(path), res, res.PrimaryTag()}, "", "  ")
	if err != nil {
		return kygeo.Result{}, fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path+ResultSuffix, append(out, '\n'), 0644); err != nil {
		return kygeo.Result{}, fmt.Errorf("write result: %w", err)
	}
	w.log.Info().Str("file", path).Strs("counties", res.Counties).Str("city", res.City).Msg("article tagged")
	return res, nil
}
