package normalize

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/internal/site"
	"github.com/hazyhaar/scrapeking/lexicon"
)

// Collector extracts the harvested values from category files.
type Collector struct {
	patterns []*regexp.Regexp
	logger   *slog.Logger
}

// NewCollector matches the labels of site.FieldLabels.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{logger: logger}
	for _, l := range site.FieldLabels {
		c.patterns = append(c.patterns, regexp.MustCompile(`^\s*`+regexp.QuoteMeta(l)+`: (.*)$`))
	}
	return c
}

// Value returns the harvested value carried by line, if any. Sentinel
// values do not count.
func (c *Collector) Value(line string) (string, bool) {
	for _, p := range c.patterns {
		m := p.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" || strings.EqualFold(v, harvest.NotFoundText) || v == harvest.FailedText {
			return "", false
		}
		return v, true
	}
	return "", false
}

// Files lists the category files of dir in name order.
func Files(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", lexicon.ErrSourceUnavailable, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out, nil
}

// Collect reads every category file of dir and returns the cleaned words
// of all values, deduplicated, in natural order. A file that cannot be
// read is logged and skipped; a missing dir is an error.
func (c *Collector) Collect(ctx context.Context, dir, prefix string) ([]string, error) {
	files, err := Files(dir, prefix)
	if err != nil {
		return nil, err
	}
	set := lexicon.NewTermSet()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := c.collectFile(f, set)
		if err != nil {
			c.logger.Warn("normalize: skip file", "file", f, "error", err)
			continue
		}
		c.logger.Debug("normalize: file collected", "file", f, "values", n)
	}
	return set.Natural(), nil
}

func (c *Collector) collectFile(path string, set *lexicon.TermSet) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		v, ok := c.Value(sc.Text())
		if !ok {
			continue
		}
		n++
		set.AddAll(Words(Clean(v))...)
	}
	return n, sc.Err()
}

// CleanFile runs StripASCII over every line of in and writes the distinct
// words to out in natural order. It returns the number of words written.
func CleanFile(ctx context.Context, in, out string) (int, error) {
	set := lexicon.NewTermSet()
	for line, err := range lexicon.Files(in).Lines(ctx) {
		if err != nil {
			return 0, err
		}
		set.AddAll(Words(StripASCII(line))...)
	}
	words := set.Natural()
	if err := lexicon.WriteTermsFile(out, words); err != nil {
		return 0, err
	}
	return len(words), nil
}
