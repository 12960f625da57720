package kygeo

// SignalTokenWindow is how many tokens on either side of a city occurrence
// are searched for a location signal.
const SignalTokenWindow = 5

// signalTokens are single-word location signals.
var signalTokens = map[string]bool{
	"in":       true,
	"at":       true,
	"from":     true,
	"near":     true,
	"county":   true,
	"ky":       true,
	"kentucky": true,
}

// suppressingToken right after a city name means the name is part of a
// phrase such as "Eastern District of Kentucky".
const suppressingToken = "district"

// occurrence is one place a candidate city appears.
type occurrence struct {
	pos  int // index of the first token
	span Range
}

// tokenIndex maps each token to its positions, built on first use.
func (a *analysis) tokenIndex() map[string][]int {
	if a.index == nil {
		a.index = make(map[string][]int, len(a.tokens))
		for i, t := range a.tokens {
			a.index[t.text] = append(a.index[t.text], i)
		}
	}
	return a.index
}

// occurrences finds every token-aligned occurrence of c.
func (a *analysis) occurrences(c cityCandidate) []occurrence {
	var out []occurrence
	n := len(c.tokens)
	for _, p := range a.tokenIndex()[c.tokens[0]] {
		if p+n > len(a.tokens) {
			break
		}
		match := true
		for j := 1; j < n; j++ {
			if a.tokens[p+j].text != c.tokens[j] {
				match = false
				break
			}
		}
		if match {
			out = append(out, occurrence{pos: p, span: span(a.tokens, p, p+n)})
		}
	}
	return out
}

// hasSignal reports whether a location signal lies within
// SignalTokenWindow tokens of the n-token occurrence at pos.
func (a *analysis) hasSignal(pos, n int) bool {
	before := max(0, pos-SignalTokenWindow)
	after := min(len(a.tokens), pos+n+SignalTokenWindow)
	check := func(lo, hi int) bool {
		for j := lo; j < hi; j++ {
			if signalTokens[a.tokens[j].text] {
				return true
			}
			if a.tokens[j].text == "city" && j+1 < hi && a.tokens[j+1].text == "of" {
				return true
			}
		}
		return false
	}
	return check(before, pos) || check(pos+n, after)
}

// detectCity tries candidates longest first and returns the first one that
// survives the overlap, signal, out-of-state and suppression rules. Ranges
// accepted or suppressed along the way are added to claimed.
func (g *Gazetteer) detectCity(a *analysis, claimed *rangeSet) (City, bool) {
	for _, c := range g.candidates {
		var kept []occurrence
		for _, occ := range a.occurrences(c) {
			if claimed.overlaps(occ.span) {
				continue
			}
			end := occ.pos + len(c.tokens)
			if end < len(a.tokens) && a.tokens[end].text == suppressingToken {
				claimed.claim(Range{Start: occ.span.Start, End: a.tokens[end].end})
				continue
			}
			kept = append(kept, occ)
		}
		if len(kept) == 0 {
			continue
		}

		signal := false
		for _, occ := range kept {
			if a.hasSignal(occ.pos, len(c.tokens)) {
				signal = true
				break
			}
		}
		if !signal && !a.kentucky && len(kept) < 2 {
			continue
		}

		if !a.kentucky {
			inState := kept[:0]
			for _, occ := range kept {
				if !a.outOfStateNear(occ.span) {
					inState = append(inState, occ)
				}
			}
			if len(inState) == 0 {
				continue
			}
			kept = inState
		}

		for _, occ := range kept {
			claimed.claim(occ.span)
		}
		return c.city, true
	}
	return City{}, false
}

// countyClaims returns the spans of every county phrase in runs, accepted or
// not. A county phrase such as "Clay County" names the county, never the
// city of the same name.
func countyClaims(runs []countyRun) rangeSet {
	var claimed rangeSet
	for _, r := range runs {
		claimed.claim(r.span)
	}
	return claimed
}

// DetectCity returns the single city detected in text, if any. Noise cities
// are never returned.
func (g *Gazetteer) DetectCity(text string) (City, bool) {
	a := g.analyze(text)
	claimed := countyClaims(g.countyRuns(a))
	return g.detectCity(a, &claimed)
}
