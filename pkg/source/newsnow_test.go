package source

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsNowCollect(t *testing.T) {
	updated := time.Date(2025, 3, 10, 8, 30, 0, 0, time.Local)
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"updatedTime": ` + strconv.FormatInt(updated.UnixMilli(), 10) + `, "items": [
			{"title": " 话题一 ", "url": "https://zhihu.com/1", "extra": {"info": "123万热度"}},
			{"title": "话题二", "mobileUrl": "https://m.zhihu.com/2", "extra": {"info": 42}},
			{"title": "话题三", "url": "https://zhihu.com/3", "extra": {"info": false}},
			{"title": "话题四", "url": "https://zhihu.com/4"},
			{"title": "   ", "url": "https://zhihu.com/blank"}
		]}`))
	}))
	defer srv.Close()

	nn := NewNewsNow(srv.URL, NewsNowPlatform{ID: "zhihu", Display: "知乎"}, testHTTP())

	items, err := nn.Collect(t.Context(), CollectOpts{})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "id=zhihu&latest", query.Load())

	assert.Equal(t, Item{
		Source: "NewsNow 知乎",
		Title:  "话题一",
		URL:    "https://zhihu.com/1",
		Heat:   "123万热度",
		Time:   "2025-03-10 08:30",
	}, items[0])
	assert.Equal(t, "https://m.zhihu.com/2", items[1].URL)
	assert.Equal(t, "42", items[1].Heat)
	assert.Empty(t, items[2].Heat)
	assert.Empty(t, items[3].Heat)
}

func TestNewsNowWithoutUpdatedTime(t *testing.T) {
	srv := serve(t, "application/json", `{"items": [{"title": "x", "url": "https://x"}]}`)

	nn := NewNewsNow(srv.URL, NewsNowPlatform{ID: "baidu", Display: "百度热搜"}, testHTTP())
	items, err := nn.Collect(t.Context(), CollectOpts{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Latest", items[0].Time)
}

func TestNewsNowDefaultEndpoint(t *testing.T) {
	nn := NewNewsNow("", NewsNowPlatform{ID: "weibo", Display: "微博"}, HTTPOptions{})
	assert.Equal(t, newsNowAPIURL, nn.apiURL)
}

func TestNewsNowAllSkipsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [{"title": "a"}, {"title": "b"}, {"title": "c"}]}`))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	all := NewNewsNowAll([]*NewsNow{
		NewNewsNow(srv.URL+"/ok", NewsNowPlatform{ID: "p1", Display: "One"}, testHTTP()),
		NewNewsNow(srv.URL+"/down", NewsNowPlatform{ID: "p2", Display: "Two"}, testHTTP()),
		NewNewsNow(srv.URL+"/ok", NewsNowPlatform{ID: "p3", Display: "Three"}, testHTTP()),
	}, zerolog.Nop())

	items, err := all.Collect(t.Context(), CollectOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 4, "limit applies per platform")
	assert.Equal(t, "NewsNow One", items[0].Source)
	assert.Equal(t, "NewsNow Three", items[3].Source)
}

func TestNewsNowEntryInfo(t *testing.T) {
	tests := []struct {
		extra string
		want  string
	}{
		{`{"info": "hot"}`, "hot"},
		{`{"info": 1.5}`, "1.5"},
		{`{"info": null}`, ""},
		{`{"info": false}`, ""},
		{`{}`, ""},
		{`"not an object"`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.extra, func(t *testing.T) {
			e := newsNowEntry{}
			if tt.extra != "" {
				e.Extra = []byte(tt.extra)
			}
			assert.Equal(t, tt.want, e.info())
		})
	}
}
