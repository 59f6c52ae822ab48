package source

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Product Hunt</title>
  <item>
    <title>Launchpad</title>
    <link>https://www.producthunt.com/posts/launchpad</link>
    <pubDate>Mon, 10 Mar 2025 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Undated</title>
    <link>https://www.producthunt.com/posts/undated</link>
  </item>
</channel>
</rss>`

func TestProductHuntCollect(t *testing.T) {
	srv := serve(t, "application/rss+xml", productFeed)

	ph := NewProductHunt(testHTTP())
	ph.feedURL = srv.URL

	items, err := ph.Collect(t.Context(), CollectOpts{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{
		Source: "Product Hunt",
		Title:  "Launchpad",
		URL:    "https://www.producthunt.com/posts/launchpad",
		Heat:   "Top Product",
		Time:   "Mon, 10 Mar 2025 10:00:00 +0000",
	}, items[0])
	assert.Empty(t, items[1].Time)
}

func TestProductHuntBadFeed(t *testing.T) {
	srv := serve(t, "text/plain", "definitely not a feed")

	ph := NewProductHunt(testHTTP())
	ph.feedURL = srv.URL

	_, err := ph.Collect(t.Context(), CollectOpts{})
	assert.ErrorContains(t, err, "product hunt")
}

func blogFeed(n int) string {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Blog</title>`
	for i := 0; i < n; i++ {
		body += `<item><title>Post ` + string(rune('A'+i)) + `</title><link>https://blog.example.com/` + string(rune('a'+i)) + `</link></item>`
	}
	body += `<item><title></title><link>https://blog.example.com/untitled</link></item>`
	return body + `</channel></rss>`
}

func TestRSSCollect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(blogFeed(5))) })
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(blogFeed(2))) })
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rss := NewRSS([]RSSFeed{
		{Name: "Broken", URL: srv.URL + "/broken"},
		{Name: "One", URL: srv.URL + "/one"},
		{Name: "Two", URL: srv.URL + "/two"},
	}, testHTTP(), zerolog.Nop())

	items, err := rss.Collect(t.Context(), CollectOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 5, "three from the first working feed, two from the second")

	assert.Equal(t, "RSS+ One", items[0].Source)
	assert.Equal(t, "Post A", items[0].Title)
	assert.Equal(t, "https://blog.example.com/a", items[0].URL)
	assert.Equal(t, "Post C", items[2].Title)
	assert.Equal(t, "RSS+ Two", items[3].Source)
}

func TestRSSLimitStopsEarly(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(blogFeed(5)))
	}))
	defer srv.Close()

	rss := NewRSS([]RSSFeed{
		{Name: "A", URL: srv.URL},
		{Name: "B", URL: srv.URL},
		{Name: "C", URL: srv.URL},
	}, testHTTP(), zerolog.Nop())

	items, err := rss.Collect(t.Context(), CollectOpts{Limit: 4})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "RSS+ B", items[3].Source)
}

func TestNewRSSDefaults(t *testing.T) {
	rss := NewRSS(nil, HTTPOptions{}, zerolog.Nop())
	assert.Equal(t, DefaultRSSFeeds, rss.feeds)
	assert.Equal(t, "RSS+", rss.Name())
}
