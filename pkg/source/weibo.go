package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Weibo reads the Weibo hot search list through the PC ajax API.
type Weibo struct {
	client    *http.Client
	userAgent string
	apiURL    string
}

// NewWeibo creates a new Weibo hot search fetcher.
func NewWeibo(opts HTTPOptions) *Weibo {
	return &Weibo{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		apiURL:    "https://weibo.com/ajax/side/hotSearch",
	}
}

func (w *Weibo) Name() string { return "Weibo Hot Search" }

func (w *Weibo) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	var resp weiboResponse
	headers := map[string]string{
		"User-Agent": w.userAgent,
		"Referer":    "https://weibo.com/",
	}
	if err := fetchJSON(ctx, w.client, w.apiURL, headers, &resp); err != nil {
		return nil, fmt.Errorf("weibo hot search: %w", err)
	}

	var items []Item
	for _, entry := range resp.Data.Realtime {
		title := entry.Note
		if title == "" {
			title = entry.Word
		}
		if title == "" {
			continue
		}
		heat := entry.Num.String()
		if heat == "" {
			heat = "0"
		}
		items = append(items, Item{
			Source: w.Name(),
			Title:  title,
			URL:    "https://s.weibo.com/weibo?q=" + url.QueryEscape(title) + "&Refer=top",
			Heat:   heat,
			Time:   "Real-time",
		})
	}

	return limitItems(items, opts), nil
}

type weiboResponse struct {
	Data struct {
		Realtime []struct {
			Note string      `json:"note"`
			Word string      `json:"word"`
			Num  json.Number `json:"num"`
		} `json:"realtime"`
	} `json:"data"`
}
