package kygeo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptySource is returned when a gazetteer source lists no counties.
var ErrEmptySource = errors.New("gazetteer source has no counties")

// Source is the serialized form of a gazetteer, as stored in
// gazetteer-data/kentucky.yaml.
type Source struct {
	Counties  []string     `yaml:"counties"`
	Cities    []SourceCity `yaml:"cities"`
	Noise     []string     `yaml:"noise,omitempty"`
	Ambiguous []string     `yaml:"ambiguous,omitempty"`
}

// SourceCity is one city entry. The first county is the primary county.
type SourceCity struct {
	Name     string   `yaml:"name"`
	Counties []string `yaml:"counties,flow"`
}

// LoadSource decodes a YAML gazetteer. Unknown keys are rejected so that a
// misspelled section fails loudly instead of loading an empty table.
func LoadSource(r io.Reader) (*Source, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var src Source
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySource
		}
		return nil, fmt.Errorf("decoding gazetteer: %w", err)
	}
	return &src, nil
}

// WriteYAML writes s in canonical form: counties, cities, noise and
// ambiguous names are each sorted.
func (s *Source) WriteYAML(w io.Writer) error {
	out := s.canonical()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding gazetteer: %w", err)
	}
	return enc.Close()
}

func (s *Source) canonical() *Source {
	out := &Source{
		Counties:  append([]string(nil), s.Counties...),
		Cities:    make([]SourceCity, len(s.Cities)),
		Noise:     append([]string(nil), s.Noise...),
		Ambiguous: append([]string(nil), s.Ambiguous...),
	}
	for i, c := range s.Cities {
		out.Cities[i] = SourceCity{
			Name:     strings.ToLower(strings.TrimSpace(c.Name)),
			Counties: append([]string(nil), c.Counties...),
		}
	}
	sort.Strings(out.Counties)
	sort.Slice(out.Cities, func(i, j int) bool { return out.Cities[i].Name < out.Cities[j].Name })
	sort.Strings(out.Noise)
	sort.Strings(out.Ambiguous)
	return out
}

// markdown section kinds
const (
	sectionNone = iota
	sectionCounty
	sectionNoise
	sectionAmbiguous
)

// ParseMarkdown reads the markdown gazetteer document.
//
// The document lists one "## <Name> County" heading per county with the
// county's cities as bullets beneath it:
//
//	## Whitley County
//	- Williamsburg
//	- Corbin (also Knox, Laurel)
//
// The heading county is the city's primary county; "(also ...)" appends
// secondary counties in order. A city bulleted under several headings
// collects each heading county once. Optional "## Noise" and "## Ambiguous"
// sections list noise city names and ambiguous county names. Level-one
// headings and prose lines are ignored.
func ParseMarkdown(r io.Reader) (*Source, error) {
	src := &Source{}
	cityIdx := make(map[string]int)
	section := sectionNone
	county := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "## "):
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			switch {
			case strings.EqualFold(heading, "noise"):
				section = sectionNoise
			case strings.EqualFold(heading, "ambiguous"):
				section = sectionAmbiguous
			default:
				name, ok := trimCountySuffix(heading)
				if !ok {
					return nil, fmt.Errorf("line %d: unknown section %q", lineNo, heading)
				}
				section = sectionCounty
				county = name
				src.Counties = append(src.Counties, name)
			}

		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			item := strings.TrimSpace(line[2:])
			if item == "" {
				continue
			}
			switch section {
			case sectionNone:
				return nil, fmt.Errorf("line %d: list item %q outside a section", lineNo, item)
			case sectionNoise:
				src.Noise = append(src.Noise, strings.ToLower(item))
			case sectionAmbiguous:
				name, _ := trimCountySuffix(item)
				src.Ambiguous = append(src.Ambiguous, name)
			case sectionCounty:
				name, also, err := parseCityItem(item)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				counties := append([]string{county}, also...)
				key := normalizeKey(name)
				if i, ok := cityIdx[key]; ok {
					src.Cities[i].Counties = appendMissingFold(src.Cities[i].Counties, counties...)
					continue
				}
				cityIdx[key] = len(src.Cities)
				src.Cities = append(src.Cities, SourceCity{
					Name:     strings.ToLower(name),
					Counties: appendMissingFold(nil, counties...),
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading markdown gazetteer: %w", err)
	}
	if len(src.Counties) == 0 {
		return nil, ErrEmptySource
	}
	return src, nil
}

// trimCountySuffix turns "Knox County" into "Knox". ok is false when the
// suffix is missing; name is then the trimmed input.
func trimCountySuffix(s string) (name string, ok bool) {
	s = strings.TrimSpace(s)
	const suffix = " county"
	if len(s) > len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return strings.TrimSpace(s[:len(s)-len(suffix)]), true
	}
	return s, false
}

// parseCityItem splits "Corbin (also Knox, Laurel County)" into the city
// name and its secondary counties.
func parseCityItem(item string) (string, []string, error) {
	open := strings.IndexByte(item, '(')
	if open < 0 {
		return item, nil, nil
	}
	if !strings.HasSuffix(item, ")") {
		return "", nil, fmt.Errorf("city %q: unterminated parenthesis", item)
	}
	name := strings.TrimSpace(item[:open])
	inner := strings.TrimSpace(item[open+1 : len(item)-1])
	if len(inner) < 5 || !strings.EqualFold(inner[:5], "also ") {
		return "", nil, fmt.Errorf("city %q: expected \"(also <county>, ...)\"", name)
	}
	var also []string
	for _, part := range strings.Split(inner[5:], ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimSpace(strings.TrimPrefix(part, "and "))
		if part == "" {
			continue
		}
		c, _ := trimCountySuffix(part)
		also = append(also, c)
	}
	if name == "" {
		return "", nil, fmt.Errorf("city entry %q has no name", item)
	}
	return name, also, nil
}

func appendMissingFold(list []string, names ...string) []string {
	for _, n := range names {
		found := false
		for _, have := range list {
			if strings.EqualFold(have, n) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, n)
		}
	}
	return list
}
