package site_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/internal/htmldoc"
	"github.com/hazyhaar/scrapeking/internal/site"
)

const detailURL = "http://www.pokeking.icu/king/tree/home/3/7"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scrapeFixture(t *testing.T) (*site.PageRecord, *htmldoc.Document) {
	t.Helper()
	doc, err := htmldoc.Load("testdata/detail.html", detailURL, site.Selectors{})
	require.NoError(t, err)
	s := site.NewScraper(site.Selectors{}, site.WithClock(func() time.Time { return fixedNow }))
	rec, err := s.ScrapePage(context.Background(), doc)
	require.NoError(t, err)
	return rec, doc
}

func TestScrapePage(t *testing.T) {
	rec, doc := scrapeFixture(t)

	assert.Equal(t, detailURL, rec.URL)
	assert.Equal(t, "3", rec.X)
	assert.Equal(t, "7", rec.Y)
	assert.Equal(t, "3", rec.Category())
	assert.Equal(t, fixedNow, rec.HarvestedAt)
	assert.Equal(t, []string{"火焰 提示", "第二条"}, rec.Alerts)
	require.Len(t, rec.Cards, 2)
	assert.Equal(t, 1, doc.Clicks(), "only the collapsed card is clicked")

	c := rec.Cards[0]
	assert.Empty(t, c.Err)
	assert.Equal(t, harvest.PresentField("妙蛙种子"), c.Name)
	assert.Equal(t, harvest.PresentField("草"), c.RedBold)
	assert.Equal(t, harvest.PresentField("稀有"), c.WarningBadge)

	require.Len(t, c.Nodes, 2)
	n := c.Nodes[0]
	assert.Equal(t, "0-1", n.Index)
	assert.Equal(t, harvest.PresentField("技能"), n.HeaderLabel)
	assert.Equal(t, harvest.PresentField("使用"), n.HeaderOperate)
	assert.Equal(t, harvest.PresentField("提示一"), n.Trick)
	assert.Equal(t, harvest.PresentField("藤鞭"), n.BodyLabel)
	assert.Equal(t, harvest.PresentField("攻击"), n.BodyOperate)
	assert.Equal(t, harvest.AbsentField(), n.WarningBadge, "child badge must not leak into parent")

	require.Len(t, n.Children, 2)
	kid := n.Children[0]
	assert.Equal(t, "1-1", kid.Index)
	assert.Equal(t, harvest.PresentField("子技能"), kid.HeaderLabel)
	assert.Equal(t, harvest.AbsentField(), kid.HeaderOperate)
	assert.Equal(t, harvest.PresentField("注意"), kid.WarningBadge)
	assert.Equal(t, harvest.PresentField("寄生"), kid.BodyLabel)

	headless := n.Children[1]
	assert.Equal(t, "1-2", headless.Index)
	assert.Equal(t, harvest.AbsentField(), headless.HeaderLabel)
	assert.Equal(t, harvest.PresentField("无头"), headless.BodyLabel)

	last := c.Nodes[1]
	assert.Equal(t, "0-2", last.Index)
	assert.Equal(t, harvest.PresentField("特性"), last.HeaderLabel)
	assert.Equal(t, harvest.AbsentField(), last.BodyLabel, "header values are not body values")

	broken := rec.Cards[1]
	assert.Equal(t, 2, broken.Index)
	assert.Equal(t, harvest.PresentField("小火龙"), broken.Name)
	assert.Equal(t, harvest.AbsentField(), broken.RedBold)
	assert.Contains(t, broken.Err, "aria-controls")
	assert.Empty(t, broken.Nodes)

	cards, nodes, failed := rec.Stats()
	assert.Equal(t, 2, cards)
	assert.Equal(t, 4, nodes)
	assert.Zero(t, failed)
}

func TestScrapePageDeterministic(t *testing.T) {
	a, _ := scrapeFixture(t)
	b, _ := scrapeFixture(t)
	assert.Equal(t, site.Format(a), site.Format(b))
}

func TestScrapeEmptyPage(t *testing.T) {
	doc, err := htmldoc.Parse(strings.NewReader("<html><body><p>nothing</p></body></html>"),
		"http://www.pokeking.icu/king/about", site.Selectors{})
	require.NoError(t, err)

	rec, err := site.NewScraper(site.Selectors{}).ScrapePage(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, rec.Empty())
	assert.Equal(t, site.UnknownCategory, rec.Category())
}

func TestFormat(t *testing.T) {
	rec, _ := scrapeFixture(t)
	out := site.Format(rec)

	for _, want := range []string{
		"========== Data from page 3/7 ==========\n--- Alert Box Data ---\n  Alert Text: 火焰 提示\n",
		"--- Card Entry (Card 1) ---\npokemon_name: 妙蛙种子\nred_bold_text: 草\nwarning_badge_text: 稀有\n",
		"  --- Nested Items (2) ---\n    Nested Item 0-1:\n      nested_header_label_text (collapsed): 技能\n",
		"        nested_warning_badge_text (expanded): 注意\n",
		"      nested_warning_badge_text (expanded): N/A\n",
		"card_error: toggle has no aria-controls\n",
		strings.Repeat("-", 30) + "\n\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "\n\n"))
}

func TestFormatFailedNode(t *testing.T) {
	rec := &site.PageRecord{X: "1", Y: "2", Cards: []site.Card{{
		Index: 1,
		Name:  harvest.AbsentField(),
		Nodes: []*harvest.Node{{
			Index:     "0-1",
			BodyLabel: harvest.FailedField(),
			Err:       "expand: detached\nnode",
		}},
	}}}
	out := site.Format(rec)
	assert.Contains(t, out, "nested_body_label_text (expanded): "+harvest.FailedText+"\n")
	assert.Contains(t, out, "node_error: expand: detached node\n")
}

func TestParseCoords(t *testing.T) {
	tests := []struct {
		url, x, y string
	}{
		{"http://www.pokeking.icu/king/tree/home/12/4", "12", "4"},
		{"http://www.pokeking.icu/home/5/6/", "5", "6"},
		{"http://www.pokeking.icu/king/tree/first/3", site.NoCoord, site.NoCoord},
		{"http://www.pokeking.icu/home/a/6", site.NoCoord, site.NoCoord},
		{"http://www.pokeking.icu/home/6", site.NoCoord, site.NoCoord},
		{"::bad", site.NoCoord, site.NoCoord},
	}
	for _, tt := range tests {
		x, y := site.ParseCoords(tt.url)
		assert.Equal(t, tt.x, x, tt.url)
		assert.Equal(t, tt.y, y, tt.url)
	}
}

func TestIndexURLs(t *testing.T) {
	got := site.IndexURLs("http://www.pokeking.icu/king/tree/first/", 3)
	assert.Equal(t, []string{
		"http://www.pokeking.icu/king/tree/first/1",
		"http://www.pokeking.icu/king/tree/first/2",
		"http://www.pokeking.icu/king/tree/first/3",
	}, got)
	assert.Equal(t, "pokeking_icu_home_X_7_data.txt", site.CategoryFile("pokeking_icu_home_X_", "7"))
}

func TestSelectorsApplyDefaults(t *testing.T) {
	sel := site.Selectors{Container: "section.node"}
	sel.ApplyDefaults()
	assert.Equal(t, "section.node", sel.Container)
	assert.Equal(t, site.DefaultSelectors().Header, sel.Header)

	l := sel.For(harvest.TargetBodyOperate)
	assert.Equal(t, 1, l.Nth)
	assert.True(t, l.Owned)
	assert.True(t, l.OutsideHeader)
	assert.False(t, sel.For(harvest.TargetHeaderLabel).Owned)
}
