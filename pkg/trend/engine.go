package trend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/elonfeng/hotdigest/pkg/source"
)

const (
	sourceScale     = 10.0
	maxHeatScore    = 25.0
	maxFreshness    = 20.0
	freshnessDecay  = 0.4
	maxAgeHours     = 96.0
	keywordHitScore = 8.0
)

// RankedItem is a deduplicated record with its score and category.
type RankedItem struct {
	source.Item
	Score    float64  `json:"score" db:"score"`
	Category Category `json:"category" db:"category"`
}

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Source    float64
	Heat      float64
	Freshness float64
	Keyword   float64
	Final     float64
}

// Engine scores, categorizes and orders deduplicated records.
type Engine struct {
	weights    SourceWeights
	classifier Classifier
	now        func() time.Time
}

// NewEngine creates a ranking engine. A nil clock means time.Now.
func NewEngine(weights SourceWeights, classifier Classifier, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		weights:    weights,
		classifier: classifier,
		now:        now,
	}
}

// Score computes the score components of one record at the given time.
func (e *Engine) Score(item source.Item, keywords []string, now time.Time) Breakdown {
	age := ParseAge(item.Time, now)
	b := Breakdown{
		Source:    e.weights.Weight(item.Source) * sourceScale,
		Heat:      math.Min(maxHeatScore, math.Sqrt(ParseHeat(item.Heat)+1)),
		Freshness: math.Max(0, maxFreshness-math.Min(age, maxAgeHours)*freshnessDecay),
		Keyword:   float64(KeywordHits(item.Title, keywords)) * keywordHitScore,
	}
	b.Final = round2(b.Source + b.Heat + b.Freshness + b.Keyword)
	return b
}

// Rank scores and categorizes items and sorts them by score, highest first.
// Equal scores keep their input order. keyword is the comma-separated filter
// used for the relevance bonus; empty means none.
func (e *Engine) Rank(items []source.Item, keyword string) []RankedItem {
	keywords := source.ParseKeywords(keyword)
	now := e.now()

	ranked := make([]RankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, RankedItem{
			Item:     item,
			Score:    e.Score(item, keywords, now).Final,
			Category: e.classifier.Classify(item.Source, item.Title),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns the first n ranked items; n <= 0 keeps them all.
func Top(items []RankedItem, n int) []RankedItem {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// KeywordHits counts the keywords that occur in title, case-insensitively.
func KeywordHits(title string, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(title)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
