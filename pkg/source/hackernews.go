package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const hnBaseURL = "https://news.ycombinator.com"

// HackerNews scrapes the Hacker News front pages.
type HackerNews struct {
	client    *http.Client
	userAgent string
	baseURL   string
	maxPages  int
	pageDelay time.Duration
}

// NewHackerNews creates a new HN fetcher.
func NewHackerNews(opts HTTPOptions) *HackerNews {
	return &HackerNews{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		baseURL:   hnBaseURL,
		maxPages:  5,
		pageDelay: 500 * time.Millisecond,
	}
}

func (h *HackerNews) Name() string { return "Hacker News" }

func (h *HackerNews) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	limit := opts.limit()
	var items []Item

	for page := 1; page <= h.maxPages && len(items) < limit; page++ {
		if page > 1 && h.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return items, ctx.Err()
			case <-time.After(h.pageDelay):
			}
		}

		pageItems, err := h.fetchPage(ctx, page)
		if err != nil {
			if len(items) > 0 {
				break
			}
			return nil, err
		}
		if len(pageItems) == 0 {
			break
		}
		items = append(items, opts.Filter.Apply(pageItems)...)
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (h *HackerNews) fetchPage(ctx context.Context, page int) ([]Item, error) {
	doc, err := fetchDocument(ctx, h.client, h.userAgent, fmt.Sprintf("%s/news?p=%d", h.baseURL, page))
	if err != nil {
		return nil, fmt.Errorf("hacker news page %d: %w", page, err)
	}

	var items []Item
	doc.Find(".athing").Each(func(_ int, row *goquery.Selection) {
		id, _ := row.Attr("id")
		link := row.Find(".titleline a").First()
		if link.Length() == 0 {
			return
		}
		title := link.Text()
		href, _ := link.Attr("href")
		if strings.HasPrefix(href, "item?id=") {
			href = h.baseURL + "/" + href
		}

		heat := "0 points"
		if score := doc.Find("#score_" + id); score.Length() > 0 {
			heat = strings.TrimSpace(score.Text())
		}
		age := strings.TrimSpace(doc.Find(fmt.Sprintf(`.age a[href="item?id=%s"]`, id)).First().Text())

		items = append(items, Item{
			Source: h.Name(),
			Title:  title,
			URL:    href,
			Heat:   heat,
			Time:   age,
		})
	})
	return items, nil
}
