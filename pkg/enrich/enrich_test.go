package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
<article>
<h1>Test Article Title</h1>
<p>This is the main content of the article. It contains important information that should be extracted.</p>
<p>Second paragraph with more details about the topic.</p>
</article>
</body>
</html>`

func articleServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func item(url string) trend.RankedItem {
	return trend.RankedItem{Item: source.Item{Title: "t", URL: url}}
}

func TestExtract(t *testing.T) {
	srv := articleServer(t, nil)
	e := New(Options{}, zerolog.Nop())

	text, err := e.Extract(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, text, "main content")
}

func TestExtractTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>" + strings.Repeat("新", 5000) + "</p></body></html>"))
	}))
	defer srv.Close()

	e := New(Options{MaxChars: 100}, zerolog.Nop())
	text, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(text)), 100)
}

func TestExtractServerError(t *testing.T) {
	srv := articleServer(t, nil)
	e := New(Options{}, zerolog.Nop())

	_, err := e.Extract(context.Background(), srv.URL+"/broken")
	assert.Error(t, err)
}

func TestEnrich(t *testing.T) {
	var hits atomic.Int32
	srv := articleServer(t, &hits)
	e := New(Options{Workers: 2}, zerolog.Nop())

	items := []trend.RankedItem{
		item(srv.URL + "/a"),
		item("item?id=1"),
		item(srv.URL + "/broken"),
		item(srv.URL + "/b"),
	}

	got := e.Enrich(context.Background(), items, 3)
	require.Len(t, got, 4)
	assert.Contains(t, got[0].Content, "main content")
	assert.Empty(t, got[1].Content, "non-web links are skipped")
	assert.Empty(t, got[2].Content, "failures leave content empty")
	assert.Empty(t, got[3].Content, "beyond n")
	assert.Equal(t, int32(2), hits.Load())

	for _, it := range items {
		assert.Empty(t, it.Content, "input is not modified")
	}
}

func TestEnrichAll(t *testing.T) {
	srv := articleServer(t, nil)
	e := New(Options{}, zerolog.Nop())

	got := e.Enrich(context.Background(), []trend.RankedItem{item(srv.URL), item(srv.URL + "/x")}, 0)
	for _, it := range got {
		assert.NotEmpty(t, it.Content)
	}
}
