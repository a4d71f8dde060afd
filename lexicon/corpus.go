package lexicon

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
	"strings"
	"unicode/utf8"
)

const maxLineBytes = 1 << 20

// Corpus is a finite, restartable source of text lines. Every call to
// Lines reads the source from the start.
type Corpus interface {
	Lines(ctx context.Context) iter.Seq2[string, error]
}

// FileCorpus reads lines from files in order. Lines are trimmed and blank
// lines skipped. The context is checked before each file. A file that is
// not valid UTF-8 is unavailable.
type FileCorpus struct {
	paths []string
}

// Files returns a corpus over paths.
func Files(paths ...string) *FileCorpus {
	return &FileCorpus{paths: paths}
}

func (c *FileCorpus) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range c.paths {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !c.readFile(p, yield) {
				return
			}
		}
	}
}

func (c *FileCorpus) readFile(path string, yield func(string, error) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		yield("", fmt.Errorf("%w: %w", ErrSourceUnavailable, err))
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !utf8.ValidString(line) {
			yield("", fmt.Errorf("%w: %s:%d: invalid UTF-8", ErrSourceUnavailable, path, n))
			return false
		}
		if !yield(line, nil) {
			return false
		}
	}
	if err := sc.Err(); err != nil {
		yield("", fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, path, err))
		return false
	}
	return true
}

// StaticCorpus is an in-memory corpus. Lines are trimmed and blank lines
// skipped, as for files.
type StaticCorpus []string

func (c StaticCorpus) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, l := range c {
			l = strings.TrimSpace(l)
			if l == "" {
				continue
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}
