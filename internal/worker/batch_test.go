package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/article"
	"github.com/bluegrass-news/kygeo/internal/logging"
	"go.uber.org/multierr"
)

// echoDetector reports the headline as the city.
type echoDetector struct{}

func (echoDetector) Detect(headline, body string) kygeo.Result {
	return kygeo.Result{Counties: []string{}, City: headline}
}

func TestBatchProcessorKeepsOrder(t *testing.T) {
	var articles []article.Article
	for i := 0; i < 100; i++ {
		articles = append(articles, article.Article{ID: fmt.Sprint(i), Headline: fmt.Sprintf("city-%d", i)})
	}

	bp := NewBatchProcessor(echoDetector{}, 4, logging.Nop())
	results := bp.Process(context.Background(), articles)
	if len(results) != len(articles) {
		t.Fatalf("Process() returned %d results, want %d", len(results), len(articles))
	}
	for i, r := range results {
		if r.Error != nil {
			t.Errorf("result %d error = %v", i, r.Error)
			continue
		}
		if want := fmt.Sprintf("city-%d", i); r.Result.City != want || r.Index != i {
			t.Errorf("result %d = %+v, want city %q", i, r, want)
		}
	}
	if err := Errors(results); err != nil {
		t.Errorf("Errors() = %v, want nil", err)
	}
}

func TestBatchProcessorWithGazetteer(t *testing.T) {
	g, err := kygeo.GetDefaultGazetteer()
	if err != nil {
		t.Fatal(err)
	}
	articles := []article.Article{
		{ID: "a", Body: "Police in Corbin responded to a call"},
		{ID: "b", Headline: "Fayette County schools delay start"},
		{ID: "c", Body: "Nothing to see here"},
	}
	results := NewBatchProcessor(g, 2, logging.Nop()).Process(context.Background(), articles)
	if results[0].Result.City != "corbin" {
		t.Errorf("article a City = %q, want corbin", results[0].Result.City)
	}
	if got := results[1].Result.Counties; len(got) != 1 || got[0] != "Fayette" {
		t.Errorf("article b Counties = %v, want [Fayette]", got)
	}
	if !results[2].Result.IsEmpty() {
		t.Errorf("article c = %+v, want empty result", results[2].Result)
	}
}

func TestBatchProcessorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	articles := make([]article.Article, 20)
	for i := range articles {
		articles[i].ID = fmt.Sprint(i)
	}
	results := NewBatchProcessor(echoDetector{}, 2, logging.Nop()).Process(ctx, articles)
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d is nil", i)
		}
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("result %d error = %v, want context.Canceled", i, r.Error)
		}
	}
	if got := len(multierr.Errors(Errors(results))); got != len(articles) {
		t.Errorf("Errors() combined %d errors, want %d", got, len(articles))
	}
}

func TestBatchProcessorEmpty(t *testing.T) {
	results := NewBatchProcessor(echoDetector{}, 2, logging.Nop()).Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Process(nil) = %v, want empty", results)
	}
}

func TestReadArticles(t *testing.T) {
	input := `# exported from the CMS
{"id":"x1","headline":"Storms","body":"Police in Corbin"}

{"headline":"No id","body":"text"}
`
	articles, err := ReadArticles(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadArticles() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("ReadArticles() returned %d articles, want 2", len(articles))
	}
	if articles[0].ID != "x1" || articles[0].Body != "Police in Corbin" {
		t.Errorf("article 0 = %+v", articles[0])
	}
	if articles[1].ID != "line-4" {
		t.Errorf("article 1 ID = %q, want line-4", articles[1].ID)
	}

	_, err = ReadArticles(strings.NewReader("{\"id\":\"ok\"}\n{broken\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ReadArticles(broken) error = %v, want line 2", err)
	}
}

func TestWriteResults(t *testing.T) {
	results := []*DetectResult{
		{Article: article.Article{ID: "a", URL: "https://example.com/a"}, Result: kygeo.Result{Counties: []string{"Knox"}}},
		{Article: article.Article{ID: "b"}, Error: errors.New("boom")},
	}
	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("WriteResults() wrote %d lines, want 2", len(lines))
	}
	var first struct {
		ID     string        `json:"id"`
		Result *kygeo.Result `json:"result"`
		Tag    string        `json:"tag"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	if first.ID != "a" || first.Result == nil || first.Tag != kygeo.TagKentucky {
		t.Errorf("line 0 = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"error":"boom"`) || strings.Contains(lines[1], `"result"`) {
		t.Errorf("line 1 = %s, want error only", lines[1])
	}
}
