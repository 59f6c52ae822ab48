// Package pipeline runs one digest: fetch, dedupe, rank, enrich and render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/hotdigest/pkg/digest"
	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

const defaultConcurrency = 8

// ErrNoSources is returned when a selection resolves to no known fetcher.
var ErrNoSources = errors.New("no sources selected")

// Enricher attaches article text to the first n ranked items.
type Enricher interface {
	Enrich(ctx context.Context, items []trend.RankedItem, n int) []trend.RankedItem
}

// Request describes one digest run.
type Request struct {
	Sources string // "all" or comma-separated registry keys
	Pack    string
	Limit   int
	Keyword string
	Top     int
	Deep    bool
	DeepTop int
}

// Result is the output of a run.
type Result struct {
	RunID       uuid.UUID          `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Keyword     string             `json:"keyword,omitempty"`
	Items       []trend.RankedItem `json:"items"`
	Highlights  []string           `json:"highlights"`
	Report      string             `json:"-"`
}

// Pipeline wires fetchers, the ranking engine and optional enrichment.
type Pipeline struct {
	registry    *source.Registry
	engine      *trend.Engine
	enricher    Enricher
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEnricher enables deep runs.
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithConcurrency bounds the number of fetchers running at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline.
func New(registry *source.Registry, engine *trend.Engine, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:    registry,
		engine:      engine,
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches the selected sources and builds a ranked digest. A failing
// source is logged and contributes nothing.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	entries, unknown, err := p.registry.Resolve(req.Sources, req.Pack)
	if err != nil {
		return nil, fmt.Errorf("resolve sources: %w", err)
	}
	if len(unknown) > 0 {
		p.log.Warn().Strs("keys", unknown).Msg("unknown sources skipped")
	}
	if len(entries) == 0 {
		return nil, ErrNoSources
	}

	raw := p.Fetch(ctx, entries, source.CollectOpts{
		Limit:  req.Limit,
		Filter: source.NewFilter(req.Keyword),
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := p.Rank(raw, req.Keyword, req.Top)
	if req.Deep && p.enricher != nil {
		n := min(max(1, req.DeepTop), len(res.Items))
		p.log.Info().Int("items", n).Msg("deep fetching article content")
		res.Items = p.enricher.Enrich(ctx, res.Items, n)
	}
	return res, nil
}

// Fetch runs the given fetchers concurrently and concatenates their items
// in entry order.
func (p *Pipeline) Fetch(ctx context.Context, entries []source.Entry, opts source.CollectOpts) []source.Item {
	slots := make([][]source.Item, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			start := time.Now()
			items, err := entry.Source.Collect(gctx, opts)
			log := p.log.With().Str("source", entry.Key).Dur("took", time.Since(start)).Logger()
			if err != nil {
				log.Warn().Err(err).Msg("fetch failed")
				return nil
			}
			log.Debug().Int("items", len(items)).Msg("fetched")
			slots[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var all []source.Item
	for _, items := range slots {
		all = append(all, items...)
	}
	p.log.Info().Int("sources", len(entries)).Int("items", len(all)).Msg("fetch complete")
	return all
}

// Rank deduplicates and ranks raw records and renders the digest.
func (p *Pipeline) Rank(raw []source.Item, keyword string, top int) *Result {
	unique := trend.Dedupe(raw)
	ranked := trend.Top(p.engine.Rank(unique, keyword), top)
	now := p.now()

	p.log.Debug().Int("raw", len(raw)).Int("unique", len(unique)).Int("ranked", len(ranked)).Msg("ranked")

	if ranked == nil {
		ranked = []trend.RankedItem{}
	}
	return &Result{
		RunID:       uuid.New(),
		GeneratedAt: now,
		Keyword:     strings.TrimSpace(keyword),
		Items:       ranked,
		Highlights:  digest.Highlights(ranked, keyword),
		Report:      digest.Render(ranked, keyword, now),
	}
}
