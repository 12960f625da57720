package article

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Storms hit Corbin | Tri-County News</title>
  <script>var tracking = "Knox County";</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/pike">Pike County</a></nav>
  <article>
    <h1>Storms hit Corbin</h1>
    <p>Crews in <b>Corbin</b> worked overnight.</p>
    <p>Whitley County officials said power would return Tuesday.</p>
  </article>
  <footer>Copyright Tri-County News</footer>
</body>
</html>`

func TestParseHTML(t *testing.T) {
	a, err := ParseHTML(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if a.Headline != "Storms hit Corbin" {
		t.Errorf("Headline = %q, want %q", a.Headline, "Storms hit Corbin")
	}
	if !strings.Contains(a.Body, "Crews in Corbin worked overnight.") {
		t.Errorf("Body = %q, want paragraph text", a.Body)
	}
	if !strings.Contains(a.Body, "Whitley County officials") {
		t.Errorf("Body = %q, want second paragraph", a.Body)
	}
	for _, unwanted := range []string{"tracking", "Pike County", "Copyright", "Storms hit Corbin"} {
		if strings.Contains(a.Body, unwanted) {
			t.Errorf("Body contains %q: %q", unwanted, a.Body)
		}
	}
}

func TestParseHTMLTitleFallback(t *testing.T) {
	page := `<html><head><title> Laurel County budget </title></head><body><p>The fiscal court met.</p></body></html>`
	a, err := ParseHTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if a.Headline != "Laurel County budget" {
		t.Errorf("Headline = %q, want title text", a.Headline)
	}
	if a.Body != "The fiscal court met." {
		t.Errorf("Body = %q", a.Body)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "  Police in Corbin  ", "Police in Corbin"},
		{"markup", "<p>Police in <a href=\"#\">Corbin</a></p>", "Police in Corbin"},
		{"entity", "Knox &amp; Laurel", "Knox & Laurel"},
		{"script dropped", "<script>x()</script><p>Text</p>", "Text"},
		{"link target dropped", `<p>Police in <a href="https://example.com/ky/texas/">Paris</a> said</p>`, "Police in Paris said"},
		{"block elements", "<p>Storms hit.</p><p>Crews worked.</p>", "Storms hit. Crews worked."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.input); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromText(t *testing.T) {
	a := FromText("story.txt", "\n\nStorms hit Corbin\nCrews worked overnight.\nPower returns Tuesday.\n")
	if a.ID != "story.txt" || a.Headline != "Storms hit Corbin" {
		t.Errorf("FromText() = %+v", a)
	}
	if a.Body != "Crews worked overnight.\nPower returns Tuesday." {
		t.Errorf("Body = %q", a.Body)
	}

	single := FromText("x", "Only a headline")
	if single.Headline != "Only a headline" || single.Body != "" {
		t.Errorf("FromText(single line) = %+v", single)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		data         string
		wantHeadline string
		wantBody     string
	}{
		{"plain text", "story.txt", "Title\nText", "Title", "Text"},
		{"html by extension", "story.html", "<h1>Title</h1><p>Text</p>", "Title", "Text"},
		{"html by content", "story.txt", "  <html><body><h1>Title</h1><p>Text</p></body></html>", "Title", "Text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Load("/inbox/"+tt.path, []byte(tt.data))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if a.Headline != tt.wantHeadline || a.Body != tt.wantBody || a.ID != tt.path {
				t.Errorf("Load() = %+v", a)
			}
		})
	}
}
