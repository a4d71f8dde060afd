package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrapeking/dbopen"
	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/idgen"
	"github.com/hazyhaar/scrapeking/internal/site"
	"github.com/hazyhaar/scrapeking/internal/store"
)

func page(x string) *site.PageRecord {
	return &site.PageRecord{
		RunID:  "r1",
		URL:    "http://www.pokeking.icu/king/tree/home/" + x + "/1",
		X:      x,
		Y:      "1",
		Alerts: []string{"提示<b>"},
		Cards:  []site.Card{{Index: 1, Name: harvest.PresentField("皮卡丘")}},
	}
}

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	ctx := context.Background()
	require.NoError(t, s.SendPage(ctx, page("3")))
	require.NoError(t, s.SendTerms(ctx, TermList{RunID: "r1", Kind: KindUntranslated, Terms: []string{"火"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "page", env.Type)
	assert.Contains(t, string(env.Data), "提示<b>", "HTML is not escaped")

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &env))
	assert.Equal(t, "terms", env.Type)
	var list TermList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, []string{"火"}, list.Terms)
}

type failing struct{ err error }

func (f failing) SendPage(context.Context, *site.PageRecord) error { return f.err }
func (f failing) SendTerms(context.Context, TermList) error        { return f.err }
func (f failing) Close() error                                     { return f.err }

func TestRouterDeliversToAll(t *testing.T) {
	var pages, terms int
	cb := NewCallback(
		func(context.Context, *site.PageRecord) error { pages++; return nil },
		func(context.Context, TermList) error { terms++; return nil },
	)
	boom := errors.New("boom")
	r := NewRouter(nil, failing{boom}, cb)
	r.Add(NewCallback(nil, nil))
	assert.Equal(t, 3, r.Len())

	ctx := context.Background()
	assert.ErrorIs(t, r.SendPage(ctx, page("1")), boom)
	assert.ErrorIs(t, r.SendTerms(ctx, TermList{}), boom)
	assert.ErrorIs(t, r.Close(), boom)
	assert.Equal(t, 1, pages)
	assert.Equal(t, 1, terms)
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		lastBody.Store(string(b))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookDelay(time.Millisecond))
	require.NoError(t, w.SendTerms(context.Background(), TermList{RunID: "r1", Kind: KindUncovered, Terms: []string{"草"}}))
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, lastBody.Load(), `"type":"terms"`)
}

func TestWebhookGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookRetries(2), WithWebhookDelay(time.Millisecond))
	err := w.SendPage(context.Background(), page("1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookDelay(time.Millisecond))
	require.Error(t, w.SendPage(context.Background(), page("1")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCategoryAppendsPerX(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCategory(dir, "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.SendPage(ctx, page("3")))
	require.NoError(t, c.SendPage(ctx, page("3")))
	require.NoError(t, c.SendPage(ctx, page("10")))
	require.NoError(t, c.SendPage(ctx, &site.PageRecord{X: "4"}), "empty pages are skipped")

	assert.Equal(t, []string{"10", "3"}, c.Written())

	b, err := os.ReadFile(c.Path("3"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "--- Card Entry (Card 1) ---"))
	assert.Contains(t, c.Path("3"), "pokeking_icu_home_X_3_data.txt")

	_, err = os.Stat(c.Path("4"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreSink(t *testing.T) {
	st := &store.Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))}
	ctx := context.Background()
	require.NoError(t, st.StartRun(ctx, "r1", "scrape"))

	s := NewStore(st, idgen.Sequence("id"))
	require.NoError(t, s.SendPage(ctx, page("3")))
	require.NoError(t, s.SendPage(ctx, page("4")))
	require.NoError(t, s.SendTerms(ctx, TermList{RunID: "r1", Kind: KindUntranslated, Terms: []string{"a", "bb"}}))

	pages, err := st.Pages(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	var id string
	require.NoError(t, st.DB.QueryRow(`SELECT id FROM pages ORDER BY rowid LIMIT 1`).Scan(&id))
	assert.Equal(t, "page_id1", id)

	terms, err := st.Terms(ctx, "r1", KindUntranslated)
	require.NoError(t, err)
	assert.Equal(t, []string{"bb", "a"}, terms)
}
