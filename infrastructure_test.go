package kygeo

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// Infrastructure Tests
//
// These tests exercise gazetteer loading, regeneration and file I/O paths
// that are not covered by the detection tests.
// ============================================================================

// ---------------------------------------------------------------------------
// RegenerateGazetteer()
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestRegenerateGazetteer_WritesValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	md := filepath.Join(tmpDir, "kentucky.md")
	out := filepath.Join(tmpDir, "data", "kentucky.yaml")
	writeFile(t, md, sampleMarkdown)

	if err := RegenerateGazetteer(md, out); err != nil {
		t.Fatalf("RegenerateGazetteer() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading regenerated gazetteer: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Kentucky gazetteer") {
		t.Errorf("regenerated gazetteer is missing its header comment")
	}

	g, err := NewGazetteer(WithSourceFile(out))
	if err != nil {
		t.Fatalf("NewGazetteer(WithSourceFile) error: %v", err)
	}
	if got := g.Counties(); !reflect.DeepEqual(got, []string{"Knox", "Laurel", "Whitley"}) {
		t.Errorf("Counties() = %v, want [Knox Laurel Whitley]", got)
	}
	city, ok := g.DetectCity("Police in Corbin responded")
	if !ok || !reflect.DeepEqual(city.Counties, []string{"Whitley", "Knox", "Laurel"}) {
		t.Errorf("DetectCity() = %+v, %v; want corbin in Whitley, Knox, Laurel", city, ok)
	}
	// london is listed as noise in the sample.
	if _, ok := g.DetectCity("Police in London responded"); ok {
		t.Error("DetectCity() found a noise city")
	}
}

func TestRegenerateGazetteer_CarriesOverLists(t *testing.T) {
	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "kentucky.yaml")
	writeFile(t, out, `counties: [Knox, Laurel]
cities:
  - name: london
    counties: [Laurel]
noise: [london]
ambiguous: [Knox]
`)
	md := filepath.Join(tmpDir, "kentucky.md")
	writeFile(t, md, "## Knox County\n- Barbourville\n\n## Laurel County\n- London\n")

	if err := RegenerateGazetteer(md, out); err != nil {
		t.Fatalf("RegenerateGazetteer() error: %v", err)
	}
	fh, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	src, err := LoadSource(fh)
	if err != nil {
		t.Fatalf("LoadSource() error: %v", err)
	}
	if !reflect.DeepEqual(src.Noise, []string{"london"}) {
		t.Errorf("Noise = %v, want [london]", src.Noise)
	}
	if !reflect.DeepEqual(src.Ambiguous, []string{"Knox"}) {
		t.Errorf("Ambiguous = %v, want [Knox]", src.Ambiguous)
	}
	if len(src.Cities) != 2 {
		t.Errorf("Cities = %v, want barbourville and london", src.Cities)
	}
}

func TestRegenerateGazetteer_InvalidWritesNothing(t *testing.T) {
	tmpDir := t.TempDir()
	md := filepath.Join(tmpDir, "kentucky.md")
	out := filepath.Join(tmpDir, "kentucky.yaml")
	writeFile(t, md, "## Knox County\n- Corbin (also Laurell)\n")

	err := RegenerateGazetteer(md, out)
	if err == nil {
		t.Fatal("RegenerateGazetteer() error = nil, want invalid gazetteer")
	}
	if !strings.Contains(err.Error(), `did you mean`) && !strings.Contains(err.Error(), "unknown county") {
		t.Errorf("RegenerateGazetteer() error = %v, want unknown county", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("RegenerateGazetteer() wrote %s despite validation failure", out)
	}
}

func TestRegenerateGazetteer_MissingMarkdown(t *testing.T) {
	err := RegenerateGazetteer(filepath.Join(t.TempDir(), "nope.md"), filepath.Join(t.TempDir(), "out.yaml"))
	if err == nil {
		t.Fatal("RegenerateGazetteer() error = nil, want error for missing markdown")
	}
}

// ---------------------------------------------------------------------------
// Source loading
// ---------------------------------------------------------------------------

func TestNewGazetteer_MissingSourceFile(t *testing.T) {
	_, err := NewGazetteer(WithSourceFile(filepath.Join(t.TempDir(), "missing.yaml")))
	if err == nil {
		t.Fatal("NewGazetteer() error = nil, want error for missing file")
	}
}

func TestNewGazetteer_CorruptSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.yaml")
	writeFile(t, path, "counties: [Knox\n")
	if _, err := NewGazetteer(WithSourceFile(path)); err == nil {
		t.Fatal("NewGazetteer() error = nil, want decode error")
	}
}

func TestOpenOptionallyEmbeddedFile_FallsBackToEmbedded(t *testing.T) {
	// Tests run from the package directory, so move away from the on-disk copy.
	t.Chdir(t.TempDir())

	fh, err := openOptionallyEmbeddedFile(DefaultSourceFile)
	if err != nil {
		t.Fatalf("openOptionallyEmbeddedFile() error: %v", err)
	}
	defer fh.Close()
	src, err := LoadSource(fh)
	if err != nil {
		t.Fatalf("LoadSource(embedded) error: %v", err)
	}
	if len(src.Counties) != ExpectedCountyCount {
		t.Errorf("embedded gazetteer has %d counties, want %d", len(src.Counties), ExpectedCountyCount)
	}
}
