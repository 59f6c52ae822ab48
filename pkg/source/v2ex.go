package source

import (
	"context"
	"fmt"
	"net/http"
)

// V2EX reads the V2EX hot topics API.
type V2EX struct {
	client    *http.Client
	userAgent string
	apiURL    string
}

// NewV2EX creates a new V2EX fetcher.
func NewV2EX(opts HTTPOptions) *V2EX {
	return &V2EX{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		apiURL:    "https://www.v2ex.com/api/topics/hot.json",
	}
}

func (v *V2EX) Name() string { return "V2EX" }

func (v *V2EX) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	var topics []v2exTopic
	if err := fetchJSON(ctx, v.client, v.apiURL, map[string]string{"User-Agent": v.userAgent}, &topics); err != nil {
		return nil, fmt.Errorf("v2ex hot: %w", err)
	}

	items := make([]Item, 0, len(topics))
	for _, t := range topics {
		items = append(items, Item{
			Source: v.Name(),
			Title:  t.Title,
			URL:    t.URL,
			Heat:   fmt.Sprintf("%d replies", t.Replies),
			Time:   "Hot",
		})
	}

	return limitItems(items, opts), nil
}

type v2exTopic struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Replies int    `json:"replies"`
	Created int64  `json:"created"`
}
