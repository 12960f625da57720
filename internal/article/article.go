// Package article turns article pages and plain text into the headline and
// body that detection runs on.
package article

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Article is one piece of news text.
type Article struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

// skipped elements never contribute visible text.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"template": true,
	"svg":      true,
	"nav":      true,
	"footer":   true,
	"head":     true,
}

// ParseHTML extracts an article from an HTML page. The headline is the
// first <h1>, falling back to <title>. The body is the visible text of
// <article> when the page has one, otherwise of <body>.
func ParseHTML(r io.Reader) (Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Article{}, fmt.Errorf("parse html: %w", err)
	}

	var a Article
	if h1 := findFirst(doc, "h1"); h1 != nil {
		a.Headline = collapse(VisibleText(h1))
	}
	if a.Headline == "" {
		if t := findFirst(doc, "title"); t != nil {
			a.Headline = collapse(textContent(t))
		}
	}

	root := findFirst(doc, "article")
	if root == nil {
		root = findFirst(doc, "body")
	}
	if root == nil {
		root = doc
	}
	a.Body = VisibleText(root)

	// The <h1> usually sits inside <article>; don't count it twice.
	if a.Headline != "" {
		a.Body = strings.TrimSpace(strings.Replace(a.Body, a.Headline, "", 1))
	}
	return a, nil
}

// StripHTML returns the visible text of an HTML fragment such as a feed
// item description. Input that fails to parse is returned unchanged.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return fragment
	}
	var parts []string
	for _, n := range nodes {
		if t := VisibleText(n); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// VisibleText extracts text nodes under n, skipping scripts, styles and
// navigation chrome. Block elements are separated by newlines.
func VisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
	}

	walk(n)
	return cleanLines(buf.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr", "blockquote", "section", "article":
		return true
	}
	return false
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// textContent returns all text under n, including normally skipped
// elements such as <title> inside <head>.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(textContent(c))
	}
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = collapse(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// FromText splits plain text into an article: the first non-empty line is
// the headline and the rest is the body.
func FromText(id, text string) Article {
	text = strings.TrimSpace(text)
	headline, body, _ := strings.Cut(text, "\n")
	return Article{
		ID:       id,
		Headline: strings.TrimSpace(headline),
		Body:     strings.TrimSpace(body),
	}
}

// Load turns file contents into an article, parsing HTML when the file
// name or contents say it is HTML. The file's base name becomes the ID.
func Load(path string, data []byte) (Article, error) {
	ext := strings.ToLower(filepath.Ext(path))
	trimmed := bytes.TrimSpace(data)
	if ext == ".html" || ext == ".htm" || bytes.HasPrefix(trimmed, []byte("<")) {
		a, err := ParseHTML(bytes.NewReader(data))
		if err != nil {
			return Article{}, err
		}
		a.ID = filepath.Base(path)
		return a, nil
	}
	return FromText(filepath.Base(path), string(data)), nil
}
