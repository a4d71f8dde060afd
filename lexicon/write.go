package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteTerms writes one term per line, each followed by a newline.
func WriteTerms(w io.Writer, terms []string) error {
	bw := bufio.NewWriter(w)
	for _, t := range terms {
		if _, err := bw.WriteString(t); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTermsFile replaces path with terms, one per line. The file is
// written beside path and renamed into place, so readers never see a
// partial list.
func WriteTermsFile(path string, terms []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("lexicon: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("lexicon: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTerms(tmp, terms); err != nil {
		tmp.Close()
		return fmt.Errorf("lexicon: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("lexicon: close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("lexicon: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("lexicon: rename %s: %w", path, err)
	}
	return nil
}
