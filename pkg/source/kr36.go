package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kr36 scrapes the 36Kr newsflash page.
type Kr36 struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

// NewKr36 creates a new 36Kr fetcher.
func NewKr36(opts HTTPOptions) *Kr36 {
	return &Kr36{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		baseURL:   "https://36kr.com",
	}
}

func (k *Kr36) Name() string { return "36Kr" }

func (k *Kr36) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	doc, err := fetchDocument(ctx, k.client, k.userAgent, k.baseURL+"/newsflashes")
	if err != nil {
		return nil, fmt.Errorf("36kr: %w", err)
	}

	var items []Item
	doc.Find(".newsflash-item").Each(func(_ int, s *goquery.Selection) {
		title := s.Find(".item-title").First()
		if title.Length() == 0 {
			return
		}
		href, _ := title.Attr("href")
		if !strings.HasPrefix(href, "http") {
			href = k.baseURL + href
		}
		items = append(items, Item{
			Source: k.Name(),
			Title:  strings.TrimSpace(title.Text()),
			URL:    href,
			Time:   strings.TrimSpace(s.Find(".time").First().Text()),
		})
	})

	return limitItems(items, opts), nil
}
