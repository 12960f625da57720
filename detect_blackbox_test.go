package kygeo_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/bluegrass-news/kygeo"
)

func defaultGazetteer(t *testing.T) *kygeo.Gazetteer {
	t.Helper()
	g, err := kygeo.GetDefaultGazetteer()
	if err != nil {
		t.Fatalf("GetDefaultGazetteer() error = %v, want nil", err)
	}
	return g
}

func TestDetect(t *testing.T) {
	g := defaultGazetteer(t)

	tests := []struct {
		name         string
		headline     string
		body         string
		wantCounties []string
		wantCity     string
		wantKY       bool
	}{
		{
			name:         "empty article",
			wantCounties: []string{},
		},
		{
			name:         "single county in headline",
			headline:     "Fayette County schools delay start",
			wantCounties: []string{"Fayette"},
		},
		{
			name:         "multi-county city",
			body:         "Police in Corbin responded to a call",
			wantCounties: []string{"Whitley", "Knox", "Laurel"},
			wantCity:     "corbin",
		},
		{
			name:         "explicit counties come before city counties",
			headline:     "Fayette County officials",
			body:         "They met police in Corbin.",
			wantCounties: []string{"Fayette", "Whitley", "Knox", "Laurel"},
			wantCity:     "corbin",
		},
		{
			name:         "city counties are not repeated",
			headline:     "Whitley County officials",
			body:         "They met police in Corbin.",
			wantCounties: []string{"Whitley", "Knox", "Laurel"},
			wantCity:     "corbin",
		},
		{
			name:         "ambiguous county through city",
			body:         "Residents of Eastern in Floyd County met Monday",
			wantCounties: []string{"Floyd"},
			wantCity:     "eastern",
		},
		{
			name:         "federal district is not a city",
			headline:     "Court ruling",
			body:         "A judge in the Eastern District of Kentucky ruled Tuesday.",
			wantCounties: []string{},
			wantKY:       true,
		},
		{
			name:         "ambiguous county without context",
			body:         "Todd County fair is coming",
			wantCounties: []string{},
		},
		{
			name:         "ambiguous county with context",
			headline:     "Across Kentucky",
			body:         "Todd County fair is coming",
			wantCounties: []string{"Todd"},
			wantKY:       true,
		},
		{
			name:         "context in headline reaches body",
			headline:     "Kentucky news",
			body:         "Murray said the plan works",
			wantCounties: []string{"Calloway"},
			wantCity:     "murray",
			wantKY:       true,
		},
		{
			name:         "out of state city",
			body:         "Police in Paris, Texas said",
			wantCounties: []string{},
		},
		{
			name:         "enumeration",
			headline:     "Storms hit Knox, Laurel and Whitley counties",
			wantCounties: []string{"Whitley", "Knox", "Laurel"},
		},
		{
			name:         "no substring matches",
			body:         "Leesburg residents gathered",
			wantCounties: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Detect(tt.headline, tt.body)
			if !reflect.DeepEqual(got.Counties, tt.wantCounties) {
				t.Errorf("Detect() Counties = %#v, want %#v", got.Counties, tt.wantCounties)
			}
			if got.City != tt.wantCity {
				t.Errorf("Detect() City = %q, want %q", got.City, tt.wantCity)
			}
			if got.KentuckyContext != tt.wantKY {
				t.Errorf("Detect() KentuckyContext = %v, want %v", got.KentuckyContext, tt.wantKY)
			}
		})
	}
}

func TestDetectNoiseCities(t *testing.T) {
	g := defaultGazetteer(t)
	for _, name := range []string{"Independence", "Liberty", "Providence", "Sandy Hook", "Union"} {
		t.Run(name, func(t *testing.T) {
			if !g.IsNoise(name) {
				t.Fatalf("IsNoise(%q) = false, want true", name)
			}
			got := g.Detect("Officials in "+name+", Kentucky", "In "+name+" today, "+name+" residents voted.")
			if got.City != "" {
				t.Errorf("Detect() City = %q, want none for noise city %q", got.City, name)
			}
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	g := defaultGazetteer(t)
	headline := "Storms hit Knox/Laurel County"
	body := "Power is out in Corbin and London, Ky., officials said."

	first := g.Detect(headline, body)
	for i := 0; i < 5; i++ {
		if got := g.Detect(headline, body); !reflect.DeepEqual(got, first) {
			t.Fatalf("Detect() run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestDetectConcurrent(t *testing.T) {
	g := defaultGazetteer(t)
	texts := []string{
		"Police in Corbin responded to a call",
		"Todd and Logan counties in Kentucky",
		"Flooding in Russell Springs",
		"A judge in the Eastern District of Kentucky ruled.",
		"Café owners in Pádúcah, Ky.",
	}
	want := make([]kygeo.Result, len(texts))
	for i, text := range texts {
		want[i] = g.Detect("", text)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, text := range texts {
				if got := g.Detect("", text); !reflect.DeepEqual(got, want[i]) {
					errs <- text
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for text := range errs {
		t.Errorf("concurrent Detect(%q) differs from sequential result", text)
	}
}

func TestExplain(t *testing.T) {
	g := defaultGazetteer(t)

	exp := g.Explain("Knox and Laurel counties", "Crews in Corbin worked overnight.")
	if exp.City != "corbin" {
		t.Fatalf("Explain() City = %q, want corbin", exp.City)
	}
	if exp.CitySpan == nil {
		t.Fatal("Explain() CitySpan = nil, want the Corbin span")
	}
	if got := exp.Text[exp.CitySpan.Start:exp.CitySpan.End]; got != "corbin" {
		t.Errorf("CitySpan covers %q, want %q", got, "corbin")
	}
	if len(exp.Mentions) != 2 {
		t.Fatalf("Explain() Mentions = %+v, want 2", exp.Mentions)
	}
	if want := []string{"Laurel", "Knox", "Whitley"}; !reflect.DeepEqual(exp.Counties, want) {
		t.Errorf("Explain() Counties = %v, want %v", exp.Counties, want)
	}

	data, err := json.Marshal(exp)
	if err != nil {
		t.Fatalf("json.Marshal(Explanation) error = %v", err)
	}
	for _, key := range []string{`"kind":"single"`, `"kind":"enumerated"`, `"city":"corbin"`, `"city_span"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Explanation JSON %s missing %s", data, key)
		}
	}
}

func TestResultTags(t *testing.T) {
	tests := []struct {
		name string
		res  kygeo.Result
		want string
	}{
		{"empty", kygeo.Result{Counties: []string{}}, kygeo.TagNational},
		{"context only", kygeo.Result{Counties: []string{}, KentuckyContext: true}, kygeo.TagKentucky},
		{"county", kygeo.Result{Counties: []string{"Knox"}}, kygeo.TagKentucky},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.PrimaryTag(); got != tt.want {
				t.Errorf("PrimaryTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectKentuckyGeo(t *testing.T) {
	res, err := kygeo.DetectKentuckyGeo("", "Police in Corbin responded to a call")
	if err != nil {
		t.Fatalf("DetectKentuckyGeo() error = %v, want nil", err)
	}
	if res.City != "corbin" {
		t.Errorf("DetectKentuckyGeo() City = %q, want corbin", res.City)
	}
}

func TestWithOutOfStateNames(t *testing.T) {
	text := "Todd County officials met Tennessee leaders in Kentucky"

	g := defaultGazetteer(t)
	if got := g.DetectCounties(text); len(got) != 0 {
		t.Errorf("default DetectCounties() = %v, want none", got)
	}

	noStates, err := kygeo.NewGazetteer(kygeo.WithOutOfStateNames(nil))
	if err != nil {
		t.Fatalf("NewGazetteer() error = %v", err)
	}
	if got := noStates.DetectCounties(text); !reflect.DeepEqual(got, []string{"Todd"}) {
		t.Errorf("DetectCounties() without state names = %v, want [Todd]", got)
	}

	custom, err := kygeo.NewGazetteer(kygeo.WithOutOfStateNames([]string{"Ontario"}))
	if err != nil {
		t.Fatalf("NewGazetteer() error = %v", err)
	}
	if got := custom.DetectCounties("Todd County officials in Ontario, Kentucky"); len(got) != 0 {
		t.Errorf("DetectCounties() with custom names = %v, want none", got)
	}
}

func TestOutOfStateNames(t *testing.T) {
	names := kygeo.OutOfStateNames()
	if len(names) != 49 {
		t.Fatalf("OutOfStateNames() returned %d names, want 49", len(names))
	}
	for _, n := range names {
		if n == "Kentucky" {
			t.Error("OutOfStateNames() includes Kentucky")
		}
	}
	names[0] = "changed"
	if kygeo.OutOfStateNames()[0] == "changed" {
		t.Error("OutOfStateNames() returned shared storage")
	}
}

func BenchmarkDetect(b *testing.B) {
	g, err := kygeo.GetDefaultGazetteer()
	if err != nil {
		b.Fatal(err)
	}
	body := strings.Repeat("Storm crews from Knox and Laurel counties worked near Corbin on Tuesday. ", 30)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Detect("Storms hit southeastern Kentucky", body)
	}
}
