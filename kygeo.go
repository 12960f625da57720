// Package kygeo detects Kentucky county and city references in news text.
//
// A Gazetteer holds the reference tables (the 120 counties, the city to
// county mappings, noise city names, ambiguous county names and out-of-state
// names). It is built once, validated at load, and is safe for concurrent use
// by any number of detection calls afterwards:
//
//	g, err := kygeo.GetDefaultGazetteer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := g.Detect("Storm damage in Corbin", body)
//	fmt.Println(res.Counties, res.City, res.KentuckyContext)
package kygeo

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed gazetteer-data
var gazetteerData embed.FS

// DefaultSourceFile is the path of the gazetteer inside the embedded data,
// and the relative path checked on disk before falling back to it.
const DefaultSourceFile = "gazetteer-data/kentucky.yaml"

// ExpectedCountyCount is the number of counties in Kentucky.
const ExpectedCountyCount = 120

// GazetteerConfig contains configuration options for Gazetteer construction.
type GazetteerConfig struct {
	SourceFile      string   // YAML gazetteer path (default: DefaultSourceFile, embedded fallback)
	Source          *Source  // In-memory source; takes precedence over SourceFile
	OutOfStateNames []string // Names that disqualify nearby matches (default: OutOfStateNames())
}

// Option is a functional option for configuring a Gazetteer.
type Option func(*GazetteerConfig)

// WithSourceFile loads the gazetteer from a YAML file on disk.
func WithSourceFile(path string) Option {
	return func(c *GazetteerConfig) {
		c.SourceFile = path
	}
}

// WithSource builds the gazetteer from an in-memory source.
func WithSource(src *Source) Option {
	return func(c *GazetteerConfig) {
		c.Source = src
	}
}

// WithOutOfStateNames replaces the list of out-of-state names.
func WithOutOfStateNames(names []string) Option {
	return func(c *GazetteerConfig) {
		c.OutOfStateNames = names
	}
}

func defaultConfig() *GazetteerConfig {
	return &GazetteerConfig{
		SourceFile:      DefaultSourceFile,
		OutOfStateNames: OutOfStateNames(),
	}
}

// City is a gazetteer city. Name is the canonical lower-case name and
// Counties is never empty; its first element is the primary county.
type City struct {
	Name     string   `json:"name" yaml:"name"`
	Counties []string `json:"counties" yaml:"counties"`
}

// PrimaryCounty returns the county the city is principally located in.
func (c City) PrimaryCounty() string {
	if len(c.Counties) == 0 {
		return ""
	}
	return c.Counties[0]
}

// DisplayName returns the title-cased city name ("bowling green" becomes
// "Bowling Green").
func (c City) DisplayName() string {
	return cases.Title(language.English).String(c.Name)
}

// cityCandidate is a non-noise city prepared for scanning.
type cityCandidate struct {
	key    string   // normalized name
	tokens []string // key split on spaces
	city   City
}

// Gazetteer is the immutable set of reference tables used by detection.
// Safe for concurrent use after construction.
type Gazetteer struct {
	counties        []string          // canonical county names, sorted
	countyByKey     map[string]string // normalized name → canonical name
	maxCountyTokens int               // longest county name in tokens
	cities          map[string]City   // normalized name → city
	noise           map[string]bool   // normalized city names
	ambiguous       map[string]bool   // canonical county names
	candidates      []cityCandidate   // non-noise cities, longest first
	states          stateMatcher
	config          *GazetteerConfig
}

// Singleton pattern for the default Gazetteer instance.
var (
	defaultGazetteer     *Gazetteer
	defaultGazetteerOnce sync.Once
	defaultGazetteerErr  error
)

// GetDefaultGazetteer returns a shared Gazetteer built from the embedded
// data, initializing it on first call. A corrupt gazetteer is reported by
// every call.
func GetDefaultGazetteer() (*Gazetteer, error) {
	defaultGazetteerOnce.Do(func() {
		defaultGazetteer, defaultGazetteerErr = NewGazetteer()
	})
	return defaultGazetteer, defaultGazetteerErr
}

// NewGazetteer loads, validates and indexes a gazetteer.
//
// Without options the gazetteer comes from DefaultSourceFile, read from disk
// when present and from the embedded copy otherwise:
//
//	g, err := NewGazetteer(WithSourceFile("/etc/kygeo/kentucky.yaml"))
//
// Validation failures are returned, never repaired: a gazetteer with a city
// pointing at an unknown county is corrupt and must not be used.
func NewGazetteer(opts ...Option) (*Gazetteer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	src := cfg.Source
	if src == nil {
		var err error
		src, err = loadSourceFile(cfg.SourceFile)
		if err != nil {
			return nil, err
		}
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gazetteer: %w", err)
	}

	g := build(src)
	g.config = cfg
	g.states = newStateMatcher(cfg.OutOfStateNames)
	return g, nil
}

// loadSourceFile opens path from the filesystem first and falls back to the
// embedded data.
func loadSourceFile(path string) (*Source, error) {
	fh, err := openOptionallyEmbeddedFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	src, err := LoadSource(fh)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return src, nil
}

func openOptionallyEmbeddedFile(file string) (fs.File, error) {
	// WHY FILESYSTEM FIRST: cmd/update-gazetteer writes a fresh
	// gazetteer-data/kentucky.yaml and then validates it. Reading the embedded
	// copy first would validate the data compiled into the binary instead of
	// the file that was just written.
	if fh, err := os.Open(file); err == nil {
		return fh, nil
	}
	return gazetteerData.Open(file)
}

// build indexes a validated source.
func build(src *Source) *Gazetteer {
	g := &Gazetteer{
		countyByKey: make(map[string]string, len(src.Counties)),
		cities:      make(map[string]City, len(src.Cities)),
		noise:       make(map[string]bool, len(src.Noise)),
		ambiguous:   make(map[string]bool, len(src.Ambiguous)),
	}

	for _, name := range src.Counties {
		name = strings.TrimSpace(name)
		key := normalizeKey(name)
		g.countyByKey[key] = name
		g.counties = append(g.counties, name)
		if n := len(strings.Fields(key)); n > g.maxCountyTokens {
			g.maxCountyTokens = n
		}
	}
	sort.Strings(g.counties)

	for _, sc := range src.Cities {
		city := City{Name: strings.ToLower(strings.TrimSpace(sc.Name))}
		for _, county := range sc.Counties {
			city.Counties = append(city.Counties, g.countyByKey[normalizeKey(county)])
		}
		g.cities[normalizeKey(sc.Name)] = city
	}
	for _, n := range src.Noise {
		g.noise[normalizeKey(n)] = true
	}
	for _, n := range src.Ambiguous {
		g.ambiguous[g.countyByKey[normalizeKey(n)]] = true
	}

	for key, city := range g.cities {
		if g.noise[key] {
			continue
		}
		g.candidates = append(g.candidates, cityCandidate{
			key:    key,
			tokens: strings.Fields(key),
			city:   city,
		})
	}
	// Longest names first so "bowling green" is tried before any shorter
	// name inside it. Equal lengths fall back to alphabetical order to keep
	// detection deterministic.
	sort.Slice(g.candidates, func(i, j int) bool {
		a, b := g.candidates[i].key, g.candidates[j].key
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return g
}

// Counties returns the canonical county names, sorted.
func (g *Gazetteer) Counties() []string {
	out := make([]string, len(g.counties))
	copy(out, g.counties)
	return out
}

// City looks up a city by name, case-insensitively. Noise cities are found
// too; they are only excluded from detection.
func (g *Gazetteer) City(name string) (City, bool) {
	c, ok := g.cities[normalizeKey(name)]
	return c, ok
}

// CitiesInCounty returns the cities whose county set includes county,
// sorted by name.
func (g *Gazetteer) CitiesInCounty(county string) []City {
	canonical, ok := g.canonicalCounty(county)
	if !ok {
		return nil
	}
	var out []City
	for _, c := range g.cities {
		for _, cc := range c.Counties {
			if cc == canonical {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsNoise reports whether name is a noise city.
func (g *Gazetteer) IsNoise(name string) bool {
	return g.noise[normalizeKey(name)]
}

// IsAmbiguous reports whether county needs corroborating Kentucky context.
func (g *Gazetteer) IsAmbiguous(county string) bool {
	canonical, ok := g.canonicalCounty(county)
	return ok && g.ambiguous[canonical]
}

// canonicalCounty maps "knox", "Knox County" and the like to "Knox". Unlike
// LookupCounty it never guesses at misspellings.
func (g *Gazetteer) canonicalCounty(name string) (string, bool) {
	key, _ := trimCountySuffix(normalizeKey(name))
	c, ok := g.countyByKey[key]
	return c, ok
}

// Stats summarizes the size of a gazetteer.
type Stats struct {
	Counties          int `json:"counties" yaml:"counties"`
	Cities            int `json:"cities" yaml:"cities"`
	MultiCountyCities int `json:"multi_county_cities" yaml:"multi_county_cities"`
	Noise             int `json:"noise" yaml:"noise"`
	Ambiguous         int `json:"ambiguous" yaml:"ambiguous"`
}

// Stats returns table sizes, mostly useful for validation output.
func (g *Gazetteer) Stats() Stats {
	st := Stats{
		Counties:  len(g.counties),
		Cities:    len(g.cities),
		Noise:     len(g.noise),
		Ambiguous: len(g.ambiguous),
	}
	for _, c := range g.cities {
		if len(c.Counties) > 1 {
			st.MultiCountyCities++
		}
	}
	return st
}
