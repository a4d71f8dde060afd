package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrapeking/dbopen"
	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/internal/site"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(Schema))}
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "r1", "scrape"))
	r, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, r.Status)
	assert.Nil(t, r.FinishedAt)

	require.NoError(t, s.FinishRun(ctx, "r1", errors.New("login failed")))
	r, err = s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "login failed", r.Error)
	assert.NotNil(t, r.FinishedAt)

	_, err = s.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.FinishRun(ctx, "nope", nil), ErrNotFound)
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.StartRun(ctx, id, "extract"))
	}
	require.NoError(t, s.FinishRun(ctx, "b", nil))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartRun(ctx, "r1", "scrape"))

	rec := &site.PageRecord{
		RunID:       "r1",
		URL:         "http://www.pokeking.icu/king/tree/home/3/7",
		X:           "3",
		Y:           "7",
		Alerts:      []string{"提示"},
		HarvestedAt: time.UnixMilli(1_700_000_000_000).UTC(),
		Cards: []site.Card{{
			Index: 1,
			Name:  harvest.PresentField("妙蛙种子"),
			Nodes: []*harvest.Node{{Index: "0-1", Trick: harvest.FailedField(), Err: "boom"}},
		}},
	}
	require.NoError(t, s.InsertPage(ctx, "p1", rec))

	got, err := s.Pages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.URL, got[0].URL)
	assert.Equal(t, harvest.PresentField("妙蛙种子"), got[0].Cards[0].Name)
	assert.Equal(t, harvest.Failed, got[0].Cards[0].Nodes[0].Trick.State)
	assert.True(t, rec.HarvestedAt.Equal(got[0].HarvestedAt))

	var failed int
	require.NoError(t, s.DB.QueryRow(`SELECT failed_nodes FROM pages WHERE id = 'p1'`).Scan(&failed))
	assert.Equal(t, 1, failed)

	none, err := s.Pages(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPageNeedsRun(t *testing.T) {
	s := testStore(t)
	err := s.InsertPage(context.Background(), "p1", &site.PageRecord{RunID: "missing"})
	assert.Error(t, err)
}

func TestTermsOrderAndReplace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartRun(ctx, "r1", "extract"))

	require.NoError(t, s.ReplaceTerms(ctx, "r1", "untranslated", []string{"b", "火焰", "a", "水", "a"}))
	got, err := s.Terms(ctx, "r1", "untranslated")
	require.NoError(t, err)
	assert.Equal(t, []string{"火焰", "a", "b", "水"}, got)

	require.NoError(t, s.ReplaceTerms(ctx, "r1", "untranslated", []string{"z"}))
	got, err = s.Terms(ctx, "r1", "untranslated")
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, got)

	other, err := s.Terms(ctx, "r1", "uncovered")
	require.NoError(t, err)
	assert.Empty(t, other)
}
