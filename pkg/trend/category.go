package trend

import "strings"

// Category is one of the fixed digest buckets.
type Category string

const (
	CategoryTechAI     Category = "Tech & AI"
	CategoryOpenSource Category = "Open Source & Dev"
	CategoryFinance    Category = "Finance / Social"
	CategoryHeadlines  Category = "Global Headlines"
)

// DefaultAITerms is the AI/ML vocabulary matched against lowercase titles.
var DefaultAITerms = []string{
	"ai", "llm", "gpt", "claude", "gemini", "deepseek", "rag", "agent",
	"machine learning", "ml", "model", "openai", "anthropic", "copilot", "transformer",
}

// Rule assigns Category when the lowercase source contains any of
// SourceTerms and the lowercase title contains any of TitleTerms. An empty
// term list does not constrain.
type Rule struct {
	Category    Category
	SourceTerms []string
	TitleTerms  []string
}

func (r Rule) matches(source, title string) bool {
	return (len(r.SourceTerms) == 0 || containsAny(source, r.SourceTerms)) &&
		(len(r.TitleTerms) == 0 || containsAny(title, r.TitleTerms))
}

// Classifier is an ordered, first-match-wins decision list. Sources carrying
// AggregatorTag are classified by AggregatorRules alone and fall back to
// AggregatorDefault; everything else uses Rules and Default.
type Classifier struct {
	AggregatorTag     string
	AggregatorRules   []Rule
	AggregatorDefault Category
	Rules             []Rule
	Default           Category
}

// DefaultClassifier returns the built-in category rules.
func DefaultClassifier() Classifier {
	return Classifier{
		AggregatorTag: "newsnow",
		AggregatorRules: []Rule{
			{Category: CategoryFinance, SourceTerms: []string{"微博", "财联社", "华尔街"}},
			{Category: CategoryHeadlines, SourceTerms: []string{"知乎", "bilibili", "头条", "抖音", "百度"}},
			{Category: CategoryTechAI, TitleTerms: DefaultAITerms},
		},
		AggregatorDefault: CategoryHeadlines,
		Rules: []Rule{
			{Category: CategoryOpenSource, SourceTerms: []string{"github trending", "v2ex"}},
			{Category: CategoryFinance, SourceTerms: []string{"wall street", "weibo"}},
			{Category: CategoryTechAI, SourceTerms: []string{"rss+", "hacker news", "product hunt"}},
			{Category: CategoryTechAI, TitleTerms: DefaultAITerms},
		},
		Default: CategoryHeadlines,
	}
}

// Classify assigns a category from the record's source label and title.
func (c Classifier) Classify(source, title string) Category {
	source = strings.ToLower(source)
	title = strings.ToLower(title)

	rules, fallback := c.Rules, c.Default
	if c.AggregatorTag != "" && strings.Contains(source, c.AggregatorTag) {
		rules, fallback = c.AggregatorRules, c.AggregatorDefault
	}
	for _, r := range rules {
		if r.matches(source, title) {
			return r.Category
		}
	}
	if fallback == "" {
		return CategoryHeadlines
	}
	return fallback
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
