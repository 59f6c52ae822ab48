package trend

import (
	"maps"
	"strings"
)

// SourceWeights maps origin labels to credibility multipliers.
type SourceWeights struct {
	Named            map[string]float64
	AggregatorPrefix string
	AggregatorWeight float64
	Default          float64
}

// DefaultSourceWeights returns the built-in weight table.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{
		Named: map[string]float64{
			"Hacker News":      1.2,
			"GitHub Trending":  1.2,
			"Product Hunt":     1.0,
			"36Kr":             1.0,
			"Tencent News":     0.9,
			"Wall Street CN":   0.9,
			"V2EX":             1.0,
			"Weibo Hot Search": 0.8,
		},
		AggregatorPrefix: "NewsNow ",
		AggregatorWeight: 0.95,
		Default:          0.8,
	}
}

// WithOverrides returns a copy with the given named weights added or replaced.
func (w SourceWeights) WithOverrides(overrides map[string]float64) SourceWeights {
	named := maps.Clone(w.Named)
	if named == nil {
		named = make(map[string]float64, len(overrides))
	}
	maps.Copy(named, overrides)
	w.Named = named
	return w
}

// Weight resolves a possibly "|"-joined source label. A composite gets the
// weight of its most reputable component.
func (w SourceWeights) Weight(source string) float64 {
	best, found := 0.0, false
	for _, part := range SplitSources(source) {
		weight := w.component(part)
		if !found || weight > best {
			best, found = weight, true
		}
	}
	if !found {
		return w.Default
	}
	return best
}

func (w SourceWeights) component(name string) float64 {
	if weight, ok := w.Named[name]; ok {
		return weight
	}
	if w.AggregatorPrefix != "" && strings.HasPrefix(name, w.AggregatorPrefix) {
		return w.AggregatorWeight
	}
	return w.Default
}

// SplitSources splits a composite label into trimmed, non-empty origins.
func SplitSources(source string) []string {
	var parts []string
	for _, part := range strings.Split(source, "|") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
