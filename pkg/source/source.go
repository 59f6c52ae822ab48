package source

import (
	"context"
	"net/http"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Item is the raw record every fetcher produces. Source may later become a
// "|"-joined composite once duplicates from several origins are merged.
type Item struct {
	Source  string `json:"source" db:"source"`
	Title   string `json:"title" db:"title"`
	URL     string `json:"url" db:"url"`
	Heat    string `json:"heat" db:"heat"`
	Time    string `json:"time" db:"time"`
	Content string `json:"content,omitempty" db:"content"`
}

// CollectOpts carries per-invocation fetch settings.
type CollectOpts struct {
	Limit  int
	Filter *Filter
}

func (o CollectOpts) limit() int {
	if o.Limit <= 0 {
		return 10
	}
	return o.Limit
}

// Source is the interface every fetcher must implement.
type Source interface {
	Name() string
	Collect(ctx context.Context, opts CollectOpts) ([]Item, error)
}

// HTTPOptions configures the shared HTTP behavior of fetchers.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
}

func (o HTTPOptions) client() *http.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o HTTPOptions) userAgent() string {
	if o.UserAgent == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}

// limitItems applies the keyword filter and truncates to limit.
func limitItems(items []Item, opts CollectOpts) []Item {
	items = opts.Filter.Apply(items)
	if n := opts.limit(); len(items) > n {
		items = items[:n]
	}
	return items
}
