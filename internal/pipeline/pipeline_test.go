package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/scrapeking/idgen"
	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/htmldoc"
	"github.com/hazyhaar/scrapeking/internal/sink"
	"github.com/hazyhaar/scrapeking/internal/site"
	"github.com/hazyhaar/scrapeking/internal/store"
	"github.com/hazyhaar/scrapeking/lexicon"
)

const base = "http://www.example.test/king/tree/first/"

// fakeSession serves the site fixture for every detail URL.
type fakeSession struct {
	html   []byte
	sel    site.Selectors
	links  map[string][]string
	broken map[string]bool
	dumps  []string
	closed bool
	opened []string
	onOpen func()
}

func (s *fakeSession) DetailLinks(_ context.Context, indexURL string) ([]string, error) {
	links, ok := s.links[indexURL]
	if !ok {
		return nil, errors.New("no detail links")
	}
	return links, nil
}

func (s *fakeSession) Open(_ context.Context, pageURL string) (site.Page, error) {
	s.opened = append(s.opened, pageURL)
	if s.onOpen != nil {
		s.onOpen()
	}
	if s.broken[pageURL] {
		return nil, errors.New("navigation failed")
	}
	return htmldoc.Parse(bytes.NewReader(s.html), pageURL, s.sel)
}

func (s *fakeSession) Dump(_ context.Context, label string) { s.dumps = append(s.dumps, label) }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Site.IndexBase = base
	cfg.Site.IndexPages = 2
	cfg.Output.Dir = filepath.Join(dir, "by_x")
	cfg.Output.ValuesFile = filepath.Join(dir, "by_x", "values.txt")
	cfg.Output.CleanFile = filepath.Join(dir, "clean.txt")
	cfg.Lexicon.Dictionary = filepath.Join(dir, "dictionary.json")
	cfg.Lexicon.Inputs = []string{cfg.Output.CleanFile}
	cfg.Lexicon.Untranslated = filepath.Join(dir, "untranslated.txt")
	cfg.Lexicon.Uncovered = filepath.Join(dir, "uncovered.txt")
	return cfg
}

func newSession(t *testing.T, cfg *config.Config) *fakeSession {
	t.Helper()
	html, err := os.ReadFile(filepath.Join("..", "site", "testdata", "detail.html"))
	require.NoError(t, err)
	return &fakeSession{
		html: html,
		sel:  cfg.Selectors,
		links: map[string][]string{
			base + "1": {
				"http://www.example.test/king/home/4/2",
				"http://www.example.test/king/home/4/3",
				"http://www.example.test/king/home/5/1",
			},
		},
		broken: map[string]bool{"http://www.example.test/king/home/4/3": true},
	}
}

func opener(s Session) Opener {
	return func(context.Context) (Session, error) { return s, nil }
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db", "scrapeking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestScrape(t *testing.T) {
	cfg := testConfig(t)
	sess := newSession(t, cfg)
	st := testStore(t)
	var pages []*site.PageRecord
	p := New(cfg,
		WithOpener(opener(sess)),
		WithStore(st),
		WithIDGenerator(idgen.Sequence("run")),
		WithSink(sink.NewCallback(func(_ context.Context, rec *site.PageRecord) error {
			pages = append(pages, rec)
			return nil
		}, nil)),
	)

	rep, err := p.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run1", rep.RunID)
	assert.Equal(t, 2, rep.IndexPages)
	assert.Equal(t, 2, rep.Pages)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 4, rep.Cards)
	assert.Equal(t, 8, rep.Nodes)
	assert.Zero(t, rep.FailedNodes)
	assert.Equal(t, []string{"4", "5"}, rep.Categories)
	assert.True(t, sess.closed)
	assert.Equal(t, []string{
		"failed_http://www.example.test/king/home/4/3",
		"no_links_first_2",
	}, sess.dumps)

	require.Len(t, pages, 2)
	assert.Equal(t, "run1", pages[0].RunID)
	assert.Equal(t, "5", pages[1].X)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "pokeking_icu_home_X_4_data.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "========== Data from page 4/2 ==========")
	assert.Contains(t, string(data), "pokemon_name: 妙蛙种子")

	run, err := st.GetRun(context.Background(), "run1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, run.Status)
	stored, err := st.Pages(context.Background(), "run1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestScrapeWithoutSession(t *testing.T) {
	_, err := New(testConfig(t)).Scrape(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestScrapeLoginFailure(t *testing.T) {
	st := testStore(t)
	loginErr := errors.New("pipeline: login: no confirmation dialog")
	p := New(testConfig(t),
		WithStore(st),
		WithIDGenerator(idgen.Sequence("run")),
		WithOpener(func(context.Context) (Session, error) { return nil, loginErr }),
	)

	_, err := p.Scrape(context.Background())
	require.ErrorIs(t, err, loginErr)

	run, err := st.GetRun(context.Background(), "run1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "no confirmation dialog")
}

func TestScrapeStopsBetweenPages(t *testing.T) {
	cfg := testConfig(t)
	sess := newSession(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.onOpen = cancel

	rep, err := New(cfg, WithOpener(opener(sess))).Scrape(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sess.opened, 1)
	assert.Zero(t, rep.Skipped)
	assert.True(t, sess.closed)
}

func TestReplay(t *testing.T) {
	cfg := testConfig(t)
	rec, err := New(cfg).Replay(context.Background(),
		filepath.Join("..", "site", "testdata", "detail.html"),
		"http://www.example.test/king/home/12/3")
	require.NoError(t, err)

	assert.Equal(t, "12", rec.X)
	assert.Equal(t, "3", rec.Y)
	assert.NotEmpty(t, rec.RunID)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "pokeking_icu_home_X_12_data.txt"))
	assert.NoError(t, err)
}

func TestReplayMissingFile(t *testing.T) {
	_, err := New(testConfig(t)).Replay(context.Background(), "missing.html", "")
	assert.Error(t, err)
}

func TestTextStages(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t)
	lists := map[string]sink.TermList{}
	p := New(cfg,
		WithStore(st),
		WithIDGenerator(idgen.Sequence("run")),
		WithSink(sink.NewCallback(nil, func(_ context.Context, l sink.TermList) error {
			lists[l.Kind] = l
			return nil
		})),
	)
	ctx := context.Background()

	_, err := p.Replay(ctx, filepath.Join("..", "site", "testdata", "detail.html"), "http://www.example.test/king/home/4/2")
	require.NoError(t, err)

	n, err := p.Collect(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)
	values, err := os.ReadFile(cfg.Output.ValuesFile)
	require.NoError(t, err)
	for _, w := range []string{"火焰", "提示", "第二条", "妙蛙种子", "草", "稀有", "技能", "提示一", "藤鞭", "子技能", "注意", "寄生", "无头", "被动"} {
		assert.Contains(t, strings.Split(string(values), "\n"), w)
	}
	assert.Len(t, lists[sink.KindValues].Terms, n)

	cleaned, err := p.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, cleaned)

	require.NoError(t, os.WriteFile(cfg.Lexicon.Dictionary,
		[]byte(`{"妙蛙种子": "Bulbasaur", "提示": "Hint", "技能": "Skill", "火焰": "Flame"}`), 0o644))

	terms, err := p.Extract(ctx)
	require.NoError(t, err)
	assert.Contains(t, terms, "藤")
	assert.Contains(t, terms, "一")
	assert.NotContains(t, terms, "种")
	assert.NotContains(t, terms, "技")
	assert.Equal(t, terms, lists[sink.KindUntranslated].Terms)
	stored, err := st.Terms(ctx, lists[sink.KindUntranslated].RunID, sink.KindUntranslated)
	require.NoError(t, err)
	assert.ElementsMatch(t, terms, stored)

	lines, err := p.Uncovered(ctx)
	require.NoError(t, err)
	assert.Contains(t, lines, "藤鞭")
	assert.NotContains(t, lines, "提示一")
	assert.NotContains(t, lines, "子技能")
	written, err := os.ReadFile(cfg.Lexicon.Uncovered)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lines, "\n")+"\n", string(written))
}

func TestExtractMissingDictionary(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg).Extract(context.Background())
	require.ErrorIs(t, err, lexicon.ErrSourceUnavailable)
	_, err = os.Stat(cfg.Lexicon.Untranslated)
	assert.True(t, os.IsNotExist(err))
}

func TestSinks(t *testing.T) {
	var buf bytes.Buffer
	sinks := Sinks([]config.SinkConfig{
		{Type: "stdout"},
		{Type: "webhook", URL: "http://127.0.0.1:9/hook", Retries: 1},
		{Type: "carrier-pigeon"},
	}, &buf, nil)
	require.Len(t, sinks, 2)
	assert.IsType(t, &sink.Stdout{}, sinks[0])
	assert.IsType(t, &sink.Webhook{}, sinks[1])
}
