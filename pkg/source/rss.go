package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string
	URL  string
}

// DefaultRSSFeeds is the RSS+ bundle of engineering and AI blogs.
var DefaultRSSFeeds = []RSSFeed{
	{Name: "Simon Willison", URL: "https://simonwillison.net/atom/everything/"},
	{Name: "The Pragmatic Engineer", URL: "https://newsletter.pragmaticengineer.com/feed"},
	{Name: "Latent Space", URL: "https://www.latent.space/feed"},
	{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml"},
	{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
	{Name: "The Batch", URL: "https://www.deeplearning.ai/the-batch/feed/"},
	{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
	{Name: "Anthropic News", URL: "https://www.anthropic.com/news/rss.xml"},
	{Name: "InfoQ AI", URL: "https://www.infoq.com/ai-ml-data-eng/feed/"},
	{Name: "MIT News AI", URL: "https://news.mit.edu/rss/topic/artificial-intelligence2"},
}

// RSS collects entries from a list of feeds, a few per feed.
type RSS struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	feeds     []RSSFeed
	log       zerolog.Logger
}

// NewRSS creates a new RSS+ fetcher.
func NewRSS(feeds []RSSFeed, opts HTTPOptions, log zerolog.Logger) *RSS {
	if len(feeds) == 0 {
		feeds = DefaultRSSFeeds
	}
	return &RSS{
		client:    opts.client(),
		parser:    gofeed.NewParser(),
		userAgent: opts.userAgent(),
		feeds:     feeds,
		log:       log,
	}
}

func (r *RSS) Name() string { return "RSS+" }

func (r *RSS) Collect(ctx context.Context, opts CollectOpts) ([]Item, error) {
	limit := opts.limit()
	perFeed := min(3, limit)

	var allItems []Item
	for _, feed := range r.feeds {
		if len(allItems) >= limit {
			break
		}
		entries, err := r.collectFeed(ctx, feed, min(perFeed, limit-len(allItems)))
		if err != nil {
			r.log.Warn().Err(err).Str("feed", feed.Name).Msg("rss feed failed")
			continue
		}
		allItems = append(allItems, opts.Filter.Apply(entries)...)
	}

	if len(allItems) > limit {
		allItems = allItems[:limit]
	}
	return allItems, nil
}

func (r *RSS) collectFeed(ctx context.Context, feed RSSFeed, n int) ([]Item, error) {
	parsed, err := parseFeed(ctx, r.client, r.parser, r.userAgent, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", feed.Name, err)
	}

	var items []Item
	for _, entry := range parsed.Items {
		if len(items) >= n {
			break
		}
		if entry.Title == "" {
			continue
		}
		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		if link == "" {
			link = entry.GUID
		}
		items = append(items, Item{
			Source: "RSS+ " + feed.Name,
			Title:  entry.Title,
			URL:    link,
			Time:   entryTime(entry),
		})
	}
	return items, nil
}

func parseFeed(ctx context.Context, client *http.Client, parser *gofeed.Parser, userAgent, url string) (*gofeed.Feed, error) {
	body, err := get(ctx, client, url, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return feed, nil
}

// entryTime renders the entry date in a layout the age parser understands,
// falling back to the raw feed text.
func entryTime(entry *gofeed.Item) string {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.Format(time.RFC1123Z)
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.Format(time.RFC1123Z)
	case entry.Published != "":
		return entry.Published
	}
	return entry.Updated
}
