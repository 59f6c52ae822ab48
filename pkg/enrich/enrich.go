// Package enrich attaches readable article text to ranked items.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/hotdigest/pkg/trend"
)

const (
	DefaultWorkers  = 10
	DefaultTimeout  = 5 * time.Second
	DefaultMaxChars = 3000
)

// Options configures an Enricher. Zero values use the defaults.
type Options struct {
	Workers   int
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

// Enricher fetches article pages and extracts their main text.
type Enricher struct {
	client    *http.Client
	workers   int
	maxChars  int
	userAgent string
	log       zerolog.Logger
}

// New creates an Enricher.
func New(opts Options, log zerolog.Logger) *Enricher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	return &Enricher{
		client:    &http.Client{Timeout: opts.Timeout},
		workers:   opts.Workers,
		maxChars:  opts.MaxChars,
		userAgent: opts.UserAgent,
		log:       log.With().Str("component", "enrich").Logger(),
	}
}

// Enrich returns a copy of items in which the first n entries with an http(s)
// link carry extracted article text. n <= 0 means all items. A page that
// cannot be fetched or parsed leaves Content empty.
func (e *Enricher) Enrich(ctx context.Context, items []trend.RankedItem, n int) []trend.RankedItem {
	out := make([]trend.RankedItem, len(items))
	copy(out, items)
	if n <= 0 || n > len(out) {
		n = len(out)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if !isWebURL(out[i].URL) {
			continue
		}
		g.Go(func() error {
			text, err := e.Extract(ctx, out[i].URL)
			if err != nil {
				e.log.Debug().Err(err).Str("url", out[i].URL).Msg("enrich failed")
				return nil
			}
			out[i].Content = text
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Extract downloads rawURL and returns its readable text, truncated to the
// configured number of characters.
func (e *Enricher) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}
	return truncate(strings.TrimSpace(article.TextContent), e.maxChars), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func isWebURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
