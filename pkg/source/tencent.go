package source

import (
	"context"
	"fmt"
	"net/http"
)

// Tencent reads the Tencent News hot tab.
type Tencent struct {
	client *http.Client
	apiURL string
}

// NewTencent creates a new Tencent News fetcher.
func NewTencent(opts HTTPOptions) *Tencent {
	return &Tencent{
		client: opts.client(),
		apiURL: "https://i.news.qq.com/web_backend/v2/getTagInfo?tagId=aEWqxLtdgmQ%3D",
	}
}

func (t *Tencent) Name() string { return "Tencent News" }

func (t *Tencent) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	var resp tencentResponse
	if err := fetchJSON(ctx, t.client, t.apiURL, map[string]string{"Referer": "https://news.qq.com/"}, &resp); err != nil {
		return nil, fmt.Errorf("tencent news: %w", err)
	}
	if len(resp.Data.Tabs) == 0 {
		return nil, nil
	}

	var items []Item
	for _, a := range resp.Data.Tabs[0].ArticleList {
		link := a.URL
		if link == "" {
			link = a.LinkInfo.URL
		}
		published := a.PubTime
		if published == "" {
			published = a.PublishTime
		}
		items = append(items, Item{
			Source: t.Name(),
			Title:  a.Title,
			URL:    link,
			Time:   published,
		})
	}

	return limitItems(items, opts), nil
}

type tencentResponse struct {
	Data struct {
		Tabs []struct {
			ArticleList []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				PubTime     string `json:"pub_time"`
				PublishTime string `json:"publish_time"`
				LinkInfo    struct {
					URL string `json:"url"`
				} `json:"link_info"`
			} `json:"articleList"`
		} `json:"tabs"`
	} `json:"data"`
}
