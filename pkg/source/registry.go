package source

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Source bundles selectable with "--source all".
const (
	PackCore  = "core"
	PackPlus  = "plus"
	PackTrend = "trend"
)

// CoreKeys are the registry keys of the core pack, in fetch order.
var CoreKeys = []string{
	"hackernews", "weibo", "github", "36kr",
	"v2ex", "tencent", "wallstreetcn", "producthunt",
}

// Entry pairs a registry key with its fetcher.
type Entry struct {
	Key    string
	Source Source
}

// Registry is an ordered key -> fetcher table, built once at startup.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds or replaces the fetcher for key. New keys keep insertion order.
func (r *Registry) Register(key string, s Source) {
	key = strings.ToLower(strings.TrimSpace(key))
	if i, ok := r.index[key]; ok {
		r.entries[i].Source = s
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry{Key: key, Source: s})
}

// Get returns the fetcher registered under key.
func (r *Registry) Get(key string) (Source, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, false
	}
	return r.entries[i].Source, true
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Resolve turns a source selection into entries. "all" (or empty) selects the
// pack; otherwise selection is a comma-separated key list. Unknown keys are returned
// separately so callers can report them.
func (r *Registry) Resolve(selection, pack string) ([]Entry, []string, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" || strings.EqualFold(selection, "all") {
		keys, err := packKeys(pack)
		if err != nil {
			return nil, nil, err
		}
		selection = strings.Join(keys, ",")
	}

	var (
		selected []Entry
		unknown  []string
	)
	for _, key := range strings.Split(selection, ",") {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		i, ok := r.index[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		selected = append(selected, r.entries[i])
	}
	return selected, unknown, nil
}

func packKeys(pack string) ([]string, error) {
	keys := append([]string(nil), CoreKeys...)
	switch strings.ToLower(strings.TrimSpace(pack)) {
	case "", PackCore:
	case PackPlus:
		keys = append(keys, "rssplus")
	case PackTrend:
		keys = append(keys, "newsnow")
	default:
		return nil, fmt.Errorf("unknown pack %q (want core, plus or trend)", pack)
	}
	return keys, nil
}

// RegistryConfig configures the default fetcher set.
type RegistryConfig struct {
	HTTP             HTTPOptions
	RSSFeeds         []RSSFeed
	NewsNowAPIURL    string
	NewsNowPlatforms []NewsNowPlatform
}

// NewDefaultRegistry registers every built-in fetcher: the core pack, rssplus,
// newsnow and one newsnow-<platform> key per platform.
func NewDefaultRegistry(cfg RegistryConfig, log zerolog.Logger) *Registry {
	r := NewRegistry()
	r.Register("hackernews", NewHackerNews(cfg.HTTP))
	r.Register("weibo", NewWeibo(cfg.HTTP))
	r.Register("github", NewGitHub(cfg.HTTP))
	r.Register("36kr", NewKr36(cfg.HTTP))
	r.Register("v2ex", NewV2EX(cfg.HTTP))
	r.Register("tencent", NewTencent(cfg.HTTP))
	r.Register("wallstreetcn", NewWallStreetCN(cfg.HTTP))
	r.Register("producthunt", NewProductHunt(cfg.HTTP))
	r.Register("rssplus", NewRSS(cfg.RSSFeeds, cfg.HTTP, log))

	platforms := cfg.NewsNowPlatforms
	if len(platforms) == 0 {
		platforms = DefaultNewsNowPlatforms
	}
	fetchers := make([]*NewsNow, 0, len(platforms))
	for _, p := range platforms {
		fetchers = append(fetchers, NewNewsNow(cfg.NewsNowAPIURL, p, cfg.HTTP))
	}
	r.Register("newsnow", NewNewsNowAll(fetchers, log))
	for _, f := range fetchers {
		r.Register("newsnow-"+f.platform.ID, f)
	}
	return r
}
