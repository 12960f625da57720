package kygeo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// RegenerateGazetteer converts the markdown gazetteer document at
// markdownPath into YAML at outPath.
//
// When the document has no "## Noise" or "## Ambiguous" section, the lists
// from the gazetteer currently at outPath (or the embedded one) are carried
// over, since most editors of the markdown document only touch cities.
// The converted source must validate before anything is written.
func RegenerateGazetteer(markdownPath, outPath string) error {
	fh, err := os.Open(markdownPath)
	if err != nil {
		return fmt.Errorf("opening markdown gazetteer: %w", err)
	}
	defer fh.Close()

	src, err := ParseMarkdown(fh)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", markdownPath, err)
	}

	if len(src.Noise) == 0 || len(src.Ambiguous) == 0 {
		if prev, err := loadSourceFile(outPath); err == nil {
			if len(src.Noise) == 0 {
				src.Noise = prev.Noise
			}
			if len(src.Ambiguous) == 0 {
				src.Ambiguous = prev.Ambiguous
			}
		}
	}

	if err := src.Validate(); err != nil {
		return fmt.Errorf("invalid gazetteer: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Kentucky gazetteer: the 120 counties, city to county mappings, noise city\n")
	buf.WriteString("# names and ambiguous county names. Regenerate with:\n#\n")
	buf.WriteString("#\tgo run ./cmd/update-gazetteer <kentucky.md>\n\n")
	if err := src.WriteYAML(&buf); err != nil {
		return err
	}

	// WHY 0755/0644: the gazetteer is embedded into released binaries and
	// must not be world-writable.
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("creating gazetteer directory: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing gazetteer: %w", err)
	}
	return nil
}
