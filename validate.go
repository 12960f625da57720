package kygeo

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/multierr"
)

// maxSuggestDistance bounds "did you mean" hints in validation errors.
const maxSuggestDistance = 2

// Validate checks the data-integrity preconditions of a gazetteer source:
//   - at least one county, and no duplicate or empty names
//   - every city lists at least one county, each of them a known county
//   - noise names refer to listed cities
//   - ambiguous names refer to listed counties
//
// Every violation is reported; the returned error holds all of them (see
// multierr.Errors).
func (s *Source) Validate() error {
	if s == nil || len(s.Counties) == 0 {
		return ErrEmptySource
	}

	var errs error
	counties := make(map[string]string, len(s.Counties))
	for i, name := range s.Counties {
		key := normalizeKey(name)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("county #%d: empty name", i+1))
			continue
		}
		if prev, dup := counties[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("county %q: duplicate of %q", name, prev))
			continue
		}
		counties[key] = strings.TrimSpace(name)
	}
	countyKeys := sortedKeys(counties)

	cities := make(map[string]bool, len(s.Cities))
	for i, c := range s.Cities {
		key := normalizeKey(c.Name)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("city #%d: empty name", i+1))
			continue
		}
		if cities[key] {
			errs = multierr.Append(errs, fmt.Errorf("city %q: duplicate entry", c.Name))
			continue
		}
		cities[key] = true

		if len(c.Counties) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("city %q: no counties", c.Name))
			continue
		}
		seen := make(map[string]bool, len(c.Counties))
		for _, county := range c.Counties {
			ck := normalizeKey(county)
			if _, ok := counties[ck]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("city %q: unknown county %q%s", c.Name, county, suggest(ck, countyKeys, counties)))
				continue
			}
			if seen[ck] {
				errs = multierr.Append(errs, fmt.Errorf("city %q: county %q listed twice", c.Name, county))
			}
			seen[ck] = true
		}
	}

	for _, n := range s.Noise {
		if !cities[normalizeKey(n)] {
			errs = multierr.Append(errs, fmt.Errorf("noise name %q: not a listed city", n))
		}
	}
	for _, n := range s.Ambiguous {
		key := normalizeKey(n)
		if _, ok := counties[key]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("ambiguous name %q: not a listed county%s", n, suggest(key, countyKeys, counties)))
		}
	}
	return errs
}

// suggest returns a " (did you mean ...)" hint naming the closest known
// county, or "" when nothing is close enough.
func suggest(key string, keys []string, names map[string]string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range keys {
		if d := levenshtein.ComputeDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", names[best])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// knownDetection is a functional check run against a freshly built gazetteer.
type knownDetection struct {
	headline, body string
	wantCounties   []string
	wantCity       string
}

// knownDetections are chosen to be unambiguous for any complete Kentucky
// gazetteer.
var knownDetections = []knownDetection{
	{"Fayette County schools delay start", "", []string{"Fayette"}, ""},
	{"Storms hit Knox, Laurel and Whitley counties", "", []string{"Whitley", "Knox", "Laurel"}, ""},
	{"", "Police in Corbin responded to a call.", []string{"Whitley", "Knox", "Laurel"}, "corbin"},
	{"Court ruling", "A judge in the Eastern District of Kentucky ruled Tuesday.", []string{}, ""},
}

// ValidateGazetteer builds a gazetteer from opts and performs integrity and
// functional checks, writing progress to w.
func ValidateGazetteer(w io.Writer, opts ...Option) error {
	g, err := NewGazetteer(opts...)
	if err != nil {
		return fmt.Errorf("failed to load gazetteer: %w", err)
	}

	st := g.Stats()
	if st.Counties != ExpectedCountyCount {
		return fmt.Errorf("county count: got %d, want %d", st.Counties, ExpectedCountyCount)
	}
	fmt.Fprintf(w, "      County count: %d (OK)\n", st.Counties)
	fmt.Fprintf(w, "      Cities: %d (%d multi-county, %d noise)\n", st.Cities, st.MultiCountyCities, st.Noise)

	fmt.Fprintf(w, "      Detection: ")
	for _, tc := range knownDetections {
		res := g.Detect(tc.headline, tc.body)
		if !equalStrings(res.Counties, tc.wantCounties) {
			return fmt.Errorf("detect(%q, %q) counties = %v, want %v", tc.headline, tc.body, res.Counties, tc.wantCounties)
		}
		if res.City != tc.wantCity {
			return fmt.Errorf("detect(%q, %q) city = %q, want %q", tc.headline, tc.body, res.City, tc.wantCity)
		}
	}
	fmt.Fprintf(w, "%d texts OK\n", len(knownDetections))
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
