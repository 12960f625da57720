package kygeo

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// UsStateCodes maps US state abbreviations to full names.
var UsStateCodes = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// homeState is the state whose name never disqualifies a match.
const homeState = "KY"

// OutOfStateNames returns the full names of the 49 states other than
// Kentucky, sorted alphabetically. The slice is a fresh copy.
func OutOfStateNames() []string {
	names := outOfStateNames()
	out := make([]string, len(names))
	copy(out, names)
	return out
}

var outOfStateNames = sync.OnceValue(func() []string {
	names := make([]string, 0, len(UsStateCodes)-1)
	for code, name := range UsStateCodes {
		if code == homeState {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
})

// stateMatcher finds out-of-state names in normalized text in a single pass.
//
// Patterns are normalized the same way as the text, and matching is
// leftmost-longest over whole words, so "west virginia" is reported once
// instead of also reporting "virginia".
type stateMatcher struct {
	ac      ahocorasick.AhoCorasick
	enabled bool
}

func newStateMatcher(names []string) stateMatcher {
	patterns := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := normalizeKey(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		patterns = append(patterns, key)
	}
	if len(patterns) == 0 {
		return stateMatcher{}
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return stateMatcher{ac: builder.Build(patterns), enabled: true}
}

// find returns the ranges of every out-of-state name in normalized.
func (m stateMatcher) find(normalized string) []Range {
	if !m.enabled || strings.TrimSpace(normalized) == "" {
		return nil
	}
	matches := m.ac.FindAll(normalized)
	if len(matches) == 0 {
		return nil
	}
	hits := make([]Range, 0, len(matches))
	for _, hit := range matches {
		hits = append(hits, Range{Start: hit.Start(), End: hit.End()})
	}
	return hits
}
