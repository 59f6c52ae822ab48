package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/elonfeng/hotdigest/internal/pipeline"
	"github.com/elonfeng/hotdigest/internal/store"
	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

// Collector runs an on-demand digest and stores it.
type Collector interface {
	Collect(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Server provides the HTTP API over the latest stored digest.
type Server struct {
	store     store.Store
	registry  *source.Registry
	collector Collector
	defaults  pipeline.Request
	port      int
	log       zerolog.Logger
}

// New creates a new HTTP server. defaults seeds POST /api/v1/collect requests.
func New(s store.Store, registry *source.Registry, collector Collector, defaults pipeline.Request, port int, log zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:     s,
		registry:  registry,
		collector: collector,
		defaults:  defaults,
		port:      port,
		log:       log.With().Str("component", "server").Logger(),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/items", s.handleItems)
	mux.HandleFunc("/api/v1/digest", s.handleDigest)
	mux.HandleFunc("/api/v1/highlights", s.handleHighlights)
	mux.HandleFunc("/api/v1/sources", s.handleSources)
	mux.HandleFunc("/api/v1/collect", s.handleCollect)
	return mux
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	q := r.URL.Query()
	opts := store.ListOpts{
		Category: trend.Category(q.Get("category")),
		Source:   q.Get("source"),
		Limit:    100,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		opts.Limit = n
	}

	items, err := s.store.ListItems(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if items == nil {
		items = []trend.RankedItem{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	run, ok := s.latestRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(run.Report))
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	run, ok := s.latestRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) latestRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	run, err := s.store.LatestRun(r.Context())
	if errors.Is(err, store.ErrNoRun) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no digest yet, run a collection first"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return run, true
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	type sourceInfo struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}

	infos := []sourceInfo{}
	for _, e := range s.registry.Entries() {
		infos = append(infos, sourceInfo{Key: e.Key, Name: e.Source.Name()})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req := s.defaults
	q := r.URL.Query()
	if v := q.Get("keyword"); v != "" {
		req.Keyword = v
	}
	if v := q.Get("source"); v != "" {
		req.Sources = v
	}
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid top"})
			return
		}
		req.Top = n
	}

	res, err := s.collector.Collect(r.Context(), req)
	if errors.Is(err, pipeline.ErrNoSources) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     res.RunID.String(),
		"count":      len(res.Items),
		"highlights": res.Highlights,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
