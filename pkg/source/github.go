package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GitHub scrapes the GitHub trending page.
type GitHub struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

// NewGitHub creates a new GitHub Trending fetcher.
func NewGitHub(opts HTTPOptions) *GitHub {
	return &GitHub{
		client:    opts.client(),
		userAgent: opts.userAgent(),
		baseURL:   "https://github.com",
	}
}

func (g *GitHub) Name() string { return "GitHub Trending" }

func (g *GitHub) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	doc, err := fetchDocument(ctx, g.client, g.userAgent, g.baseURL+"/trending")
	if err != nil {
		return nil, fmt.Errorf("github trending: %w", err)
	}

	var items []Item
	doc.Find("article.Box-row").Each(func(_ int, article *goquery.Selection) {
		link := article.Find("h2 a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		// "owner / repo" with layout whitespace.
		repo := strings.Join(strings.Fields(link.Text()), "")
		desc := strings.TrimSpace(article.Find("p").First().Text())
		stars := strings.TrimSpace(article.Find(`a[href$="/stargazers"]`).First().Text())

		items = append(items, Item{
			Source: g.Name(),
			Title:  repo + " - " + desc,
			URL:    g.baseURL + href,
			Heat:   stars + " stars",
			Time:   "Today",
		})
	})

	return limitItems(items, opts), nil
}
