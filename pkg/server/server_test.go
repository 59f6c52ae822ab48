package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hotdigest/internal/pipeline"
	"github.com/elonfeng/hotdigest/internal/store"
	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

type fakeCollector struct {
	got pipeline.Request
	err error
}

func (f *fakeCollector) Collect(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{
		RunID:      uuid.New(),
		Items:      []trend.RankedItem{{Item: source.Item{Title: "x"}}},
		Highlights: []string{"h"},
	}, nil
}

type namedSource string

func (n namedSource) Name() string { return string(n) }

func (n namedSource) Collect(context.Context, source.CollectOpts) ([]source.Item, error) {
	return nil, nil
}

func newTestServer(t *testing.T, withRun bool) (*Server, *fakeCollector) {
	t.Helper()
	db, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if withRun {
		require.NoError(t, db.SaveRun(context.Background(), &store.Run{
			ID:          "run-1",
			GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			Highlights:  []string{"2 ranked stories collected across 2 active sources."},
			Report:      "# Daily News Digest (2025-03-10 12:00)\n",
			Items: []trend.RankedItem{
				{Item: source.Item{Source: "Hacker News", Title: "a"}, Score: 40, Category: trend.CategoryTechAI},
				{Item: source.Item{Source: "V2EX", Title: "b"}, Score: 20, Category: trend.CategoryOpenSource},
			},
		}))
	}

	reg := source.NewRegistry()
	reg.Register("hackernews", namedSource("Hacker News"))
	reg.Register("v2ex", namedSource("V2EX"))

	collector := &fakeCollector{}
	defaults := pipeline.Request{Sources: "all", Pack: "core", Limit: 10}
	return New(db, reg, collector, defaults, 0, zerolog.Nop()), collector
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s.Handler(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestItems(t *testing.T) {
	s, _ := newTestServer(t, true)
	h := s.Handler()

	var body struct {
		Data  []trend.RankedItem `json:"data"`
		Count int                `json:"count"`
	}

	rec := do(t, h, http.MethodGet, "/api/v1/items")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "a", body.Data[0].Title)

	rec = do(t, h, http.MethodGet, "/api/v1/items?category=Open+Source+%26+Dev")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "b", body.Data[0].Title)

	rec = do(t, h, http.MethodGet, "/api/v1/items?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/items")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestItemsEmptyStore(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"count":0}`, rec.Body.String())
}

func TestDigestAndHighlights(t *testing.T) {
	s, _ := newTestServer(t, true)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/digest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Daily News Digest (2025-03-10 12:00)\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/highlights")
	require.Equal(t, http.StatusOK, rec.Code)
	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 2, run.ItemCount)
	assert.Equal(t, []string{"2 ranked stories collected across 2 active sources."}, run.Highlights)
}

func TestDigestNotFound(t *testing.T) {
	s, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/api/v1/digest").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/api/v1/highlights").Code)
}

func TestSources(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"key":"hackernews","name":"Hacker News"},{"key":"v2ex","name":"V2EX"}],"count":2}`, rec.Body.String())
}

func TestCollect(t *testing.T) {
	s, collector := newTestServer(t, false)
	h := s.Handler()

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/collect").Code)

	rec := do(t, h, http.MethodPost, "/api/v1/collect?keyword=ai&top=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.Request{Sources: "all", Pack: "core", Limit: 10, Keyword: "ai", Top: 5}, collector.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["count"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/collect?top=-1").Code)

	collector.err = pipeline.ErrNoSources
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/collect?source=nope").Code)

	collector.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/api/v1/collect").Code)
}
