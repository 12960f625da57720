package kygeo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownCounty is returned by LookupCountyE when no county matches.
var ErrUnknownCounty = errors.New("unknown county")

// countySuffixes end a county mention.
var countySuffixes = map[string]bool{
	"county":   true,
	"counties": true,
	"cnty":     true,
	"co":       true,
}

// listSeparators may stand between two counties of an enumeration. Commas,
// slashes, hyphens and ampersands are already spaces after normalization.
var listSeparators = map[string]bool{
	"and": true,
	"or":  true,
}

// MatchKind tells how a county mention was written.
type MatchKind int

const (
	// Single is one county name directly followed by a suffix ("Knox County").
	Single MatchKind = iota
	// Enumerated is a run of two or more counties sharing one suffix
	// ("Knox, Laurel and Clay counties").
	Enumerated
)

func (k MatchKind) String() string {
	switch k {
	case Single:
		return "single"
	case Enumerated:
		return "enumerated"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CountyMention is an accepted county mention.
type CountyMention struct {
	Kind     MatchKind `json:"kind"`
	Counties []string  `json:"counties"`
	Span     Range     `json:"span"`
}

// countyRun is one suffix token together with the counties that precede it.
type countyRun struct {
	counties []string // in text order; the last one touches the suffix
	last     Range    // span of the last county and the suffix
	span     Range    // span of the whole run and the suffix
}

// analysis is the per-call view of one normalized text.
type analysis struct {
	text     string
	tokens   []token
	kentucky bool
	states   []Range
	index    map[string][]int // token text → token positions, built on demand
}

func (g *Gazetteer) analyze(text string) *analysis {
	n := Normalize(text)
	a := &analysis{text: n, tokens: tokenize(n)}
	a.kentucky = hasKentuckyToken(a.tokens)
	a.states = g.states.find(n)
	return a
}

// KentuckyContext reports whether text mentions "Kentucky" or "KY" as a
// word.
func KentuckyContext(text string) bool {
	return hasKentuckyToken(tokenize(Normalize(text)))
}

func hasKentuckyToken(tokens []token) bool {
	for _, t := range tokens {
		if t.text == "kentucky" || t.text == "ky" {
			return true
		}
	}
	return false
}

// outOfStateNear reports whether an out-of-state name lies in the window
// centred on r. Names inside r itself are ignored: "Ohio County" is not
// disqualified by its own name.
func (a *analysis) outOfStateNear(r Range) bool {
	if len(a.states) == 0 {
		return false
	}
	w := r.window(len(a.text))
	for _, hit := range a.states {
		if hit.Overlaps(r) {
			continue
		}
		if hit.Overlaps(w) {
			return true
		}
	}
	return false
}

// countyEndingAt returns the longest county name whose tokens end right
// before position end, and its length in tokens.
func (g *Gazetteer) countyEndingAt(tokens []token, end int) (string, int) {
	for n := min(g.maxCountyTokens, end); n >= 1; n-- {
		if name, ok := g.countyByKey[joinTokens(tokens[end-n:end])]; ok {
			return name, n
		}
	}
	return "", 0
}

// countyRuns scans for suffix tokens and extends each one leftwards over as
// many county names as possible, allowing a single "and"/"or" between two
// names.
func (g *Gazetteer) countyRuns(a *analysis) []countyRun {
	var runs []countyRun
	for i, tok := range a.tokens {
		if !countySuffixes[tok.text] {
			continue
		}
		name, n := g.countyEndingAt(a.tokens, i)
		if n == 0 {
			continue
		}
		run := countyRun{
			counties: []string{name},
			last:     Range{Start: a.tokens[i-n].start, End: tok.end},
		}
		first := i - n
		for {
			k := first
			if k > 0 && listSeparators[a.tokens[k-1].text] {
				k--
			}
			prev, m := g.countyEndingAt(a.tokens, k)
			if m == 0 {
				break
			}
			run.counties = append(run.counties, prev)
			first = k - m
		}
		slices.Reverse(run.counties)
		run.span = Range{Start: a.tokens[first].start, End: tok.end}
		runs = append(runs, run)
	}
	return runs
}

// acceptCounty applies the ambiguous-name gate to county mentioned at r.
func (g *Gazetteer) acceptCounty(a *analysis, county string, r Range) bool {
	if !g.ambiguous[county] {
		return true
	}
	return a.kentucky && !a.outOfStateNear(r)
}

// mentions gates every run. Each run yields a Single mention for the county
// touching the suffix and, when it holds more than one county, an
// Enumerated mention whose counties share the run's window.
func (g *Gazetteer) mentions(a *analysis, runs []countyRun) []CountyMention {
	var out []CountyMention
	for _, run := range runs {
		last := run.counties[len(run.counties)-1]
		if g.acceptCounty(a, last, run.last) {
			out = append(out, CountyMention{Kind: Single, Counties: []string{last}, Span: run.last})
		}
		if len(run.counties) < 2 {
			continue
		}
		var accepted []string
		for _, c := range run.counties {
			if g.acceptCounty(a, c, run.span) {
				accepted = append(accepted, c)
			}
		}
		if len(accepted) > 0 {
			out = append(out, CountyMention{Kind: Enumerated, Counties: accepted, Span: run.span})
		}
	}
	return out
}

// mergeMentions lists Single counties in encounter order, then Enumerated
// counties not seen yet. The result never repeats a county.
func mergeMentions(ms []CountyMention) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, kind := range []MatchKind{Single, Enumerated} {
		for _, m := range ms {
			if m.Kind != kind {
				continue
			}
			for _, c := range m.Counties {
				if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// CountyMentions returns every accepted county mention in text, in
// encounter order.
func (g *Gazetteer) CountyMentions(text string) []CountyMention {
	a := g.analyze(text)
	return g.mentions(a, g.countyRuns(a))
}

// DetectCounties returns the counties explicitly named in text: counties
// written as single mentions first, then the remaining counties from
// enumerations. It returns an empty slice when nothing matches.
func (g *Gazetteer) DetectCounties(text string) []string {
	return mergeMentions(g.CountyMentions(text))
}

// LookupCounty resolves a user-typed county name to its canonical form. An
// exact match (after normalization, with or without a trailing "County")
// wins; otherwise a unique county within edit distance 1 is accepted for
// names of five letters or more. Detection never uses this.
func (g *Gazetteer) LookupCounty(name string) (string, bool) {
	if c, ok := g.canonicalCounty(name); ok {
		return c, true
	}
	key, _ := trimCountySuffix(normalizeKey(name))
	if len(key) < 5 {
		return "", false
	}
	best, matches := "", 0
	for k, c := range g.countyByKey {
		if levenshtein.ComputeDistance(key, k) <= 1 {
			best = c
			matches++
		}
	}
	if matches != 1 {
		return "", false
	}
	return best, true
}

// LookupCountyE is LookupCounty with an error naming the unknown input.
func (g *Gazetteer) LookupCountyE(name string) (string, error) {
	if c, ok := g.LookupCounty(name); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCounty, name)
}
