package kygeo

// Result is the outcome of detection over one article.
//
// Counties is ordered and duplicate-free: counties named explicitly come
// first, then counties implied by the detected city. City is the canonical
// lower-case city name, or "" when no city was detected.
type Result struct {
	Counties        []string `json:"counties" yaml:"counties"`
	City            string   `json:"city,omitempty" yaml:"city,omitempty"`
	KentuckyContext bool     `json:"kentucky_context" yaml:"kentucky_context"`
}

// IsEmpty reports whether neither a county nor a city was detected.
func (r Result) IsEmpty() bool {
	return len(r.Counties) == 0 && r.City == ""
}

// Primary tags assigned by PrimaryTag.
const (
	TagKentucky = "Kentucky"
	TagNational = "National"
)

// PrimaryTag returns TagKentucky when the text mentions Kentucky or any
// Kentucky place was detected, and TagNational otherwise.
func (r Result) PrimaryTag() string {
	if r.KentuckyContext || !r.IsEmpty() {
		return TagKentucky
	}
	return TagNational
}

// Explanation is a Result together with the evidence behind it.
type Explanation struct {
	Result
	Mentions []CountyMention `json:"mentions"`
	CitySpan *Range          `json:"city_span,omitempty"`
	Text     string          `json:"normalized_text"`
}

// Detect runs both detectors over headline and body and merges their
// output. The county and city detectors always both run: a multi-county
// city adds counties even when others were named explicitly.
func (g *Gazetteer) Detect(headline, body string) Result {
	return g.Explain(headline, body).Result
}

// Explain is Detect with the county mentions and city span that produced
// the result.
func (g *Gazetteer) Explain(headline, body string) Explanation {
	a := g.analyze(headline + "\n" + body)
	runs := g.countyRuns(a)
	mentions := g.mentions(a, runs)

	exp := Explanation{
		Result: Result{
			Counties:        mergeMentions(mentions),
			KentuckyContext: a.kentucky,
		},
		Mentions: mentions,
		Text:     a.text,
	}

	claimed := countyClaims(runs)
	before := len(claimed)
	city, ok := g.detectCity(a, &claimed)
	if !ok {
		return exp
	}
	exp.City = city.Name
	// Suppressed phrases are claimed too; the first claim that spells the
	// city name exactly is its first accepted occurrence.
	key := normalizeKey(city.Name)
	for _, r := range claimed[before:] {
		if a.text[r.Start:r.End] == key {
			exp.CitySpan = &r
			break
		}
	}
	exp.Counties = appendMissing(exp.Counties, city.Counties...)
	return exp
}

func appendMissing(list []string, names ...string) []string {
	for _, n := range names {
		found := false
		for _, have := range list {
			if have == n {
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

// DetectKentuckyGeo runs Detect against the default gazetteer.
func DetectKentuckyGeo(headline, body string) (Result, error) {
	g, err := GetDefaultGazetteer()
	if err != nil {
		return Result{}, err
	}
	return g.Detect(headline, body), nil
}
