package source

import "strings"

// ParseKeywords splits a comma-separated keyword list into lowercase terms,
// dropping blanks.
func ParseKeywords(keyword string) []string {
	var terms []string
	for _, part := range strings.Split(keyword, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

// Filter keeps items whose title contains any of its keywords.
// A nil or empty Filter keeps everything.
type Filter struct {
	keywords []string
}

// NewFilter creates a filter from a comma-separated keyword list.
func NewFilter(keyword string) *Filter {
	return &Filter{keywords: ParseKeywords(keyword)}
}

// Keywords returns the lowercase terms of the filter.
func (f *Filter) Keywords() []string {
	if f == nil {
		return nil
	}
	return f.keywords
}

// Matches reports whether title contains at least one keyword.
func (f *Filter) Matches(title string) bool {
	if f == nil || len(f.keywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Apply returns the items that match the filter, preserving order.
func (f *Filter) Apply(items []Item) []Item {
	if f == nil || len(f.keywords) == 0 {
		return items
	}
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Matches(item.Title) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
