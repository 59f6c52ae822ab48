package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"
)

// ProductHunt reads the Product Hunt front page feed. The feed carries no vote
// counts, only the fact that a product made the list.
type ProductHunt struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	feedURL   string
}

// NewProductHunt creates a new Product Hunt fetcher.
func NewProductHunt(opts HTTPOptions) *ProductHunt {
	return &ProductHunt{
		client:    opts.client(),
		parser:    gofeed.NewParser(),
		userAgent: opts.userAgent(),
		feedURL:   "https://www.producthunt.com/feed",
	}
}

func (p *ProductHunt) Name() string { return "Product Hunt" }

func (p *ProductHunt) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	feed, err := parseFeed(ctx, p.client, p.parser, p.userAgent, p.feedURL)
	if err != nil {
		return nil, fmt.Errorf("product hunt: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		items = append(items, Item{
			Source: p.Name(),
			Title:  entry.Title,
			URL:    link,
			Heat:   "Top Product",
			Time:   entryTime(entry),
		})
	}

	return limitItems(items, opts), nil
}
