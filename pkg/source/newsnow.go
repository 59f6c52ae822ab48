package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const newsNowAPIURL = "https://newsnow.busiyi.world/api/s"

// NewsNowPlatform is one hot list exposed by the NewsNow aggregator.
type NewsNowPlatform struct {
	ID      string
	Display string
}

// DefaultNewsNowPlatforms lists the platforms of the trend pack.
var DefaultNewsNowPlatforms = []NewsNowPlatform{
	{ID: "toutiao", Display: "今日头条"},
	{ID: "baidu", Display: "百度热搜"},
	{ID: "wallstreetcn-hot", Display: "华尔街见闻"},
	{ID: "thepaper", Display: "澎湃新闻"},
	{ID: "bilibili-hot-search", Display: "bilibili 热搜"},
	{ID: "cls-hot", Display: "财联社热门"},
	{ID: "ifeng", Display: "凤凰网"},
	{ID: "tieba", Display: "贴吧"},
	{ID: "weibo", Display: "微博"},
	{ID: "douyin", Display: "抖音"},
	{ID: "zhihu", Display: "知乎"},
}

// NewsNow reads a single platform from the NewsNow aggregator API.
type NewsNow struct {
	client    *http.Client
	userAgent string
	apiURL    string
	platform  NewsNowPlatform
}

// NewNewsNow creates a fetcher for one NewsNow platform. An empty apiURL uses
// the public endpoint.
func NewNewsNow(apiURL string, platform NewsNowPlatform, opts HTTPOptions) *NewsNow {
	if apiURL == "" {
		apiURL = newsNowAPIURL
	}
	return &NewsNow{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		apiURL:    apiURL,
		platform:  platform,
	}
}

func (n *NewsNow) Name() string { return "NewsNow " + n.platform.Display }

func (n *NewsNow) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	reqURL := fmt.Sprintf("%s?id=%s&latest", n.apiURL, url.QueryEscape(n.platform.ID))
	headers := map[string]string{
		"User-Agent":      n.userAgent,
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Cache-Control":   "no-cache",
	}

	var resp newsNowResponse
	if err := fetchJSON(ctx, n.client, reqURL, headers, &resp); err != nil {
		return nil, fmt.Errorf("newsnow %s: %w", n.platform.ID, err)
	}

	updated := "Latest"
	if resp.UpdatedTime > 0 {
		updated = time.UnixMilli(int64(resp.UpdatedTime)).Format("2006-01-02 15:04")
	}

	var items []Item
	for _, entry := range resp.Items {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		link := entry.URL
		if link == "" {
			link = entry.MobileURL
		}
		items = append(items, Item{
			Source: n.Name(),
			Title:  title,
			URL:    link,
			Heat:   entry.info(),
			Time:   updated,
		})
	}

	return limitItems(items, opts), nil
}

type newsNowResponse struct {
	UpdatedTime float64        `json:"updatedTime"`
	Items       []newsNowEntry `json:"items"`
}

type newsNowEntry struct {
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	MobileURL string          `json:"mobileUrl"`
	Extra     json.RawMessage `json:"extra"`
}

// info returns extra.info as text. Platforms disagree on its type.
func (e newsNowEntry) info() string {
	var extra struct {
		Info json.RawMessage `json:"info"`
	}
	if len(e.Extra) == 0 || json.Unmarshal(e.Extra, &extra) != nil || len(extra.Info) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(extra.Info, &s); err == nil {
		return s
	}
	if string(extra.Info) == "null" || string(extra.Info) == "false" {
		return ""
	}
	return string(extra.Info)
}

// NewsNowAll fans a request out over every configured NewsNow platform in order.
type NewsNowAll struct {
	platforms []*NewsNow
	log       zerolog.Logger
}

// NewNewsNowAll creates the aggregate NewsNow fetcher.
func NewNewsNowAll(platforms []*NewsNow, log zerolog.Logger) *NewsNowAll {
	return &NewsNowAll{platforms: platforms, log: log}
}

func (a *NewsNowAll) Name() string { return "NewsNow" }

// Collect applies the limit per platform, not to the combined result.
func (a *NewsNowAll) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	var all []Item
	for _, p := range a.platforms {
		items, err := p.Collect(ctx, opts)
		if err != nil {
			a.log.Warn().Err(err).Str("platform", p.platform.ID).Msg("newsnow platform failed")
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}
