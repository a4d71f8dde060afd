package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/scrapeking/internal/site"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("headful")
	require.NoError(t, err)
	assert.Equal(t, ModeHeadful, m)
	assert.Equal(t, "headful", m.String())

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHeadless, m)

	_, err = ParseMode("invisible")
	assert.Error(t, err)
}

func TestBlockSet(t *testing.T) {
	set := blockSet([]string{"images", "Fonts", "media", "stylesheets", " ", "XHR", "holograms"})
	assert.Equal(t, map[proto.NetworkResourceType]bool{
		proto.NetworkResourceTypeImage:      true,
		proto.NetworkResourceTypeFont:       true,
		proto.NetworkResourceTypeMedia:      true,
		proto.NetworkResourceTypeStylesheet: true,
		proto.NetworkResourceTypeXHR:        true,
	}, set)
}

func TestDisplaySocket(t *testing.T) {
	sock, err := displaySocket(":99")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(x11SocketDir, "X99"), sock)

	sock, err = displaySocket(":7.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(x11SocketDir, "X7"), sock)

	for _, d := range []string{"", "99", ":", ":x1", "host:0"} {
		_, err := displaySocket(d)
		assert.Error(t, err, "display %q", d)
	}
}

func TestWaitForSocket(t *testing.T) {
	ctx := context.Background()
	sock := filepath.Join(t.TempDir(), "X5")

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(sock, nil, 0o600)
	}()
	require.NoError(t, waitForSocket(ctx, sock, 2*time.Second, nil))

	err := waitForSocket(ctx, sock+"-never", 150*time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	exited := make(chan error, 1)
	exited <- nil
	err = waitForSocket(ctx, sock+"-never", 2*time.Second, exited)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited")
}

func TestStartXvfbReusesServedDisplay(t *testing.T) {
	dir := t.TempDir()
	old := x11SocketDir
	x11SocketDir = dir
	t.Cleanup(func() { x11SocketDir = old })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X42"), nil, 0o600))

	m := NewManager(Config{Mode: ModeHeadful, XvfbDisplay: ":42"})
	require.NoError(t, m.startXvfb(context.Background()))
	assert.Nil(t, m.xvfb, "a served display is not launched again")
	m.stopXvfb()
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "http_www.example.com_home_3_7", fileName("http://www.example.com/home/3/7"))
	assert.Equal(t, "dump", fileName("///"))
	assert.Len(t, fileName(strings.Repeat("a", 300)), 120)
}

func TestDumperWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	d := NewDumper(dir, nil)

	html := `<html><body><h1>Login</h1><script>alert(1)</script>` +
		`<p>See <a href="/help">help</a></p><table><tr><th>k</th></tr><tr><td>v</td></tr></table></body></html>`
	files, err := d.Write("login failed", "http://www.example.com/king/", []byte("\x89PNG"), html)
	require.NoError(t, err)
	require.Len(t, files, 2)

	md, err := os.ReadFile(filepath.Join(dir, "login_failed.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Login")
	assert.Contains(t, string(md), "(http://www.example.com/help)")
	assert.NotContains(t, string(md), "alert(1)")

	png, err := os.ReadFile(filepath.Join(dir, "login_failed.png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png))
}

func TestDumperWriteNothing(t *testing.T) {
	d := NewDumper(t.TempDir(), nil)
	files, err := d.Write("empty", "", nil, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

// Live tests need a local Chrome.
func requireBrowser(t *testing.T) {
	t.Helper()
	if os.Getenv("SCRAPEKING_BROWSER_TESTS") != "1" {
		t.Skip("set SCRAPEKING_BROWSER_TESTS=1 to run browser tests")
	}
}

func startTab(t *testing.T) (*Tab, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	mgr := NewManager(Config{NavTimeout: 20 * time.Second})
	t.Cleanup(func() { _ = mgr.Close() })
	_, err := mgr.Start(ctx)
	require.NoError(t, err)

	tab, err := OpenTab(ctx, mgr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tab.Close() })
	return tab, ctx
}

func TestLiveScrapePage(t *testing.T) {
	requireBrowser(t)

	fixture, err := os.ReadFile(filepath.Join("..", "site", "testdata", "detail.html"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	tab, ctx := startTab(t)
	require.NoError(t, tab.Navigate(ctx, srv.URL+"/king/home/4/2"))

	sel := site.Selectors{}
	sel.ApplyDefaults()
	page := NewPage(tab.Page, sel)
	rec, err := site.NewScraper(sel, site.WithWaits(time.Second, time.Second, time.Second)).ScrapePage(ctx, page)
	require.NoError(t, err)

	assert.Equal(t, "4", rec.X)
	assert.Equal(t, []string{"火焰 提示", "第二条"}, rec.Alerts)
	cards, nodes, failed := rec.Stats()
	assert.Equal(t, 2, cards)
	assert.Equal(t, 4, nodes)
	assert.Zero(t, failed)
	assert.Equal(t, "藤鞭", rec.Cards[0].Nodes[0].BodyLabel.Text)
	assert.False(t, rec.Cards[0].Nodes[0].WarningBadge.IsPresent())
}

func TestLiveDetailLinks(t *testing.T) {
	requireBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<a href="/king/home/1/1"><div class="pet-dev">a</div></a>
<a href="/king/home/1/2"><span><div class="pet-dev">b</div></span></a>
<a href="/king/home/1/1"><div class="pet-dev">dup</div></a>
<div class="pet-dev">no link</div>
</body></html>`))
	}))
	defer srv.Close()

	tab, ctx := startTab(t)
	sel := site.Selectors{}
	page := NewPage(tab.Page, sel)

	urls, err := DetailLinks(ctx, tab, page, srv.URL+"/king/tree/first/1", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/king/home/1/1", srv.URL + "/king/home/1/2"}, urls)
}

func TestLiveExpandOnce(t *testing.T) {
	requireBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><div id="root">
<div class="node-div" id="c">
  <div class="node-title" onclick="toggle()"><b class="node-label">H</b></div>
</div>
</div>
<script>
window.clicks = 0;
function toggle() {
  window.clicks++;
  const c = document.getElementById('c');
  const kid = c.querySelector(':scope > div.node-div');
  if (kid) { kid.remove(); return; }
  const d = document.createElement('div');
  d.className = 'node-div';
  d.innerHTML = '<b class="node-label">child</b>';
  c.appendChild(d);
}
</script></body></html>`))
	}))
	defer srv.Close()

	tab, ctx := startTab(t)
	require.NoError(t, tab.Navigate(ctx, srv.URL+"/king/home/1/1"))
	page := NewPage(tab.Page, site.Selectors{})

	c, ok, err := page.WaitFor(ctx, nil, "#c", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, page.WaitExpanded(ctx, c, 300*time.Millisecond), "a header alone is not expanded content")

	require.NoError(t, page.Expand(ctx, c))
	assert.True(t, page.WaitExpanded(ctx, c, time.Second))
	require.NoError(t, page.Expand(ctx, c))

	res, err := tab.Page.Eval(`() => window.clicks`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Value.Int())

	kids, err := page.FindContainers(ctx, c)
	require.NoError(t, err)
	assert.Len(t, kids, 1)
}
