package source

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WallStreetCN reads the Wall Street CN global information flow.
type WallStreetCN struct {
	client *http.Client
	apiURL string
}

// NewWallStreetCN creates a new Wall Street CN fetcher.
func NewWallStreetCN(opts HTTPOptions) *WallStreetCN {
	return &WallStreetCN{
		client: opts.client(),
		apiURL: "https://api-one.wallstcn.com/apiv1/content/information-flow?channel=global-channel&accept=article&limit=30",
	}
}

func (w *WallStreetCN) Name() string { return "Wall Street CN" }

func (w *WallStreetCN) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	var resp wscnResponse
	if err := fetchJSON(ctx, w.client, w.apiURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("wall street cn: %w", err)
	}

	var items []Item
	for _, entry := range resp.Data.Items {
		res := entry.Resource
		if res == nil {
			continue
		}
		title := res.Title
		if title == "" {
			title = res.ContentShort
		}
		if title == "" {
			continue
		}
		// The flow only carries same-day items, so HH:MM is enough for the age parser.
		displayed := ""
		if res.DisplayTime > 0 {
			displayed = time.Unix(res.DisplayTime, 0).Format("15:04")
		}
		items = append(items, Item{
			Source: w.Name(),
			Title:  title,
			URL:    res.URI,
			Time:   displayed,
		})
	}

	return limitItems(items, opts), nil
}

type wscnResponse struct {
	Data struct {
		Items []struct {
			Resource *struct {
				Title        string `json:"title"`
				ContentShort string `json:"content_short"`
				URI          string `json:"uri"`
				DisplayTime  int64  `json:"display_time"`
			} `json:"resource"`
		} `json:"items"`
	} `json:"data"`
}
