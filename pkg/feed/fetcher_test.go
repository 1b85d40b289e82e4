package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
	<title>Omroep Test</title>
	<link>http://example.com</link>
	<description>Regionaal nieuws</description>
	<item>
		<title>Brand in centrum Zevenbergen</title>
		<link>http://example.com/brand</link>
		<description><![CDATA[<p>Een grote brand in het <b>centrum</b>.</p><script>evil()</script>]]></description>
		<enclosure url="http://example.com/brand.jpg" type="image/jpeg" length="1000"/>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
		<author>redactie@example.com (Jan de Redacteur)</author>
	</item>
	<item>
		<title>Item zonder inhoud</title>
		<link>http://example.com/leeg</link>
	</item>
	<item>
		<title>Nieuwe fietsbrug geopend</title>
		<link>http://example.com/brug</link>
		<description><![CDATA[De brug is open. <img src="http://example.com/brug.jpg" width="800" height="600">]]></description>
		<pubDate>2006-01-03 10:00:00</pubDate>
	</item>
</channel>
</rss>`

const testAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom Test</title>
	<entry>
		<title>Wegwerkzaamheden N285</title>
		<link href="http://example.com/n285"/>
		<summary>De N285 is dicht. &lt;img src="http://example.com/weg.jpg" width="400" height="300"/&gt;</summary>
		<updated>2006-01-02T15:04:05Z</updated>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
	</entry>
</feed>`

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second})
	src := domain.FeedSource{Name: "Omroep Test", FeedURL: srv.URL}

	articles, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, articles, 2, "incomplete item must be dropped")

	first := articles[0]
	assert.Equal(t, "Brand in centrum Zevenbergen", first.Title)
	assert.Equal(t, "http://example.com/brand", first.URL)
	assert.Equal(t, domain.ArticleID("http://example.com/brand"), first.ID)
	assert.Len(t, first.ID, 32)
	assert.NotContains(t, first.Content, "<script>")
	assert.Contains(t, first.Content, "<b>centrum</b>")
	assert.Equal(t, "Een grote brand in het centrum.", first.Summary)
	assert.Equal(t, "http://example.com/brand.jpg", first.ThumbnailURL, "enclosure image")
	assert.Equal(t, "Jan de Redacteur", first.Author)
	assert.Equal(t, "Omroep Test", first.SourceName)
	assert.Equal(t, "RSS Feed", first.SourceType)
	assert.Equal(t, 2006, first.Published.Year())

	second := articles[1]
	assert.Equal(t, "Nieuwe fietsbrug geopend", second.Title)
	assert.Equal(t, "http://example.com/brug.jpg", second.ThumbnailURL, "img scan fallback")
	assert.Equal(t, 2006, second.Published.Year(), "non-RFC date parsed leniently")
}

func TestFetcher_Fetch_Atom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(testAtom)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second})
	articles, err := f.Fetch(context.Background(), domain.FeedSource{Name: "Atom Test", FeedURL: srv.URL})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Wegwerkzaamheden N285", articles[0].Title)
	assert.Equal(t, "http://example.com/n285", articles[0].URL)
	assert.Equal(t, "Atom Feed", articles[0].SourceType)
}

func TestFetcher_Fetch_Errors(t *testing.T) {
	t.Run("server error after retries", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second, Attempts: 2})
		_, err := f.Fetch(context.Background(), domain.FeedSource{Name: "broken", FeedURL: srv.URL})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code: 500")
		assert.Equal(t, 2, calls, "should retry once")
	})

	t.Run("malformed feed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("this is not a feed")) //nolint:errcheck // test server
		}))
		defer srv.Close()

		f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second})
		_, err := f.Fetch(context.Background(), domain.FeedSource{Name: "garbage", FeedURL: srv.URL})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse feed")
	})

	t.Run("unreachable host", func(t *testing.T) {
		f := NewFetcher(FetcherConfig{Timeout: time.Second, Attempts: 1})
		_, err := f.Fetch(context.Background(), domain.FeedSource{Name: "down", FeedURL: "http://127.0.0.1:1/feed"})
		require.Error(t, err)
	})
}

func TestFetcher_Fetch_Proxy(t *testing.T) {
	feedURL := "http://upstream.example.com/rss"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/raw", r.URL.Path)
		require.Equal(t, feedURL, r.URL.Query().Get("url"), "target URL must ride the proxy query")
		w.Write([]byte(testRSS)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second, ProxyURL: srv.URL + "/raw?url="})
	articles, err := f.Fetch(context.Background(), domain.FeedSource{Name: "proxied", FeedURL: feedURL})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestFetcher_Fetch_ThumbnailBudgetPerItem(t *testing.T) {
	// the feed timeout covers the feed download only; a slow article page
	// during thumbnail resolution must not eat the budget of later items
	page := `<html><head><meta property="og:image" content="https://example.com/og.jpg"></head><body></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/artikel/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(600 * time.Millisecond)
		w.Write([]byte(page)) //nolint:errcheck // test server
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rss := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Trage pagina's</title>
	<item>
		<title>Eerste bericht</title>
		<link>%s/artikel/1</link>
		<description>Tekst zonder afbeelding</description>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
	</item>
	<item>
		<title>Tweede bericht</title>
		<link>%s/artikel/2</link>
		<description>Ook tekst zonder afbeelding</description>
		<pubDate>Mon, 02 Jan 2006 16:04:05 -0700</pubDate>
	</item>
</channel>
</rss>`, srv.URL, srv.URL)
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss)) //nolint:errcheck // test server
	})

	// combined page time (1.2s) exceeds the 1s feed timeout, the resolver's
	// own timeout allows each page comfortably
	f := NewFetcher(FetcherConfig{Timeout: time.Second})
	articles, err := f.Fetch(context.Background(), domain.FeedSource{Name: "traag", FeedURL: srv.URL + "/rss"})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "https://example.com/og.jpg", articles[0].ThumbnailURL)
	assert.Equal(t, "https://example.com/og.jpg", articles[1].ThumbnailURL, "later item keeps its own thumbnail budget")
}

func TestFetcher_Fetch_MediaDescriptionFallback(t *testing.T) {
	mediaRSS := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
	<title>Media RSS</title>
	<item>
		<title>Alleen media beschrijving</title>
		<link>http://example.com/media</link>
		<media:description>Tekst via de media beschrijving</media:description>
		<media:content url="http://example.com/m.jpg" type="image/jpeg"/>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
	</item>
</channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mediaRSS)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second})
	articles, err := f.Fetch(context.Background(), domain.FeedSource{Name: "Media RSS", FeedURL: srv.URL})
	require.NoError(t, err)
	require.Len(t, articles, 1, "item with only a media:description body survives")

	assert.Equal(t, "Tekst via de media beschrijving", articles[0].Summary)
	assert.Equal(t, "Tekst via de media beschrijving", articles[0].Content)
	assert.Equal(t, "http://example.com/m.jpg", articles[0].ThumbnailURL)
}

func TestFeedSourceType(t *testing.T) {
	assert.Equal(t, "RSS Feed", feedSourceType("rss"))
	assert.Equal(t, "Atom Feed", feedSourceType("atom"))
	assert.Equal(t, "JSON Feed", feedSourceType("json"))
	assert.Equal(t, "Feed", feedSourceType("weird"))
}
