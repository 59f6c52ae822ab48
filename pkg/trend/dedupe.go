package trend

import (
	"strings"

	"github.com/elonfeng/hotdigest/pkg/source"
)

// quality ranks duplicate candidates: popularity plus bonuses for carrying a
// timestamp and a link.
func quality(item source.Item) float64 {
	q := ParseHeat(item.Heat)
	if item.Time != "" {
		q += 3
	}
	if item.URL != "" {
		q += 2
	}
	return q
}

// Merge combines two records describing the same story. The fields of the
// higher-quality record win (a on ties); Source is always the ordered union of
// both origins. Neither argument is modified.
func Merge(a, b source.Item) source.Item {
	merged := a
	if quality(b) > quality(a) {
		merged = b
	}
	merged.Source = unionSources(a.Source, b.Source)
	return merged
}

func unionSources(a, b string) string {
	seen := make(map[string]bool)
	var parts []string
	for _, part := range append(SplitSources(a), SplitSources(b)...) {
		if !seen[part] {
			seen[part] = true
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " | ")
}

// Dedupe collapses records that share a canonical URL or normalized title.
// Each distinct story keeps the position of its first occurrence; later
// duplicates are merged into that slot. When a merge leaves a slot carrying
// the URL or title of another slot, the two slots are folded into the
// earlier one.
func Dedupe(items []source.Item) []source.Item {
	var (
		slots   []source.Item
		folded  []bool
		byURL   = make(map[string]int)
		byTitle = make(map[string]int)
	)

	for _, item := range items {
		canonical := CanonicalURL(item.URL)
		title := NormalizeTitle(item.Title)
		if canonical != "" {
			item.URL = canonical
		}

		idx, found := -1, false
		if canonical != "" {
			idx, found = byURL[canonical]
		}
		if !found && title != "" {
			idx, found = byTitle[title]
		}

		if !found {
			slots = append(slots, item)
			folded = append(folded, false)
			claimKey(byURL, canonical, len(slots)-1)
			claimKey(byTitle, title, len(slots)-1)
			continue
		}

		slots[idx] = Merge(slots[idx], item)
		claimKey(byURL, canonical, idx)
		claimKey(byTitle, title, idx)

		for {
			other, ok := conflictingSlot(slots[idx], idx, byURL, byTitle)
			if !ok {
				break
			}
			keep, drop := min(idx, other), max(idx, other)
			slots[keep] = Merge(slots[keep], slots[drop])
			folded[drop] = true
			moveKeys(byURL, drop, keep)
			moveKeys(byTitle, drop, keep)
			idx = keep
		}
	}

	unique := make([]source.Item, 0, len(slots))
	for i, item := range slots {
		if !folded[i] {
			unique = append(unique, item)
		}
	}
	return unique
}

// claimKey registers key for slot idx unless another slot already holds it.
func claimKey(index map[string]int, key string, idx int) {
	if key == "" {
		return
	}
	if _, ok := index[key]; !ok {
		index[key] = idx
	}
}

// conflictingSlot reports another slot that holds the URL or title key of the
// record now stored in slot idx.
func conflictingSlot(item source.Item, idx int, byURL, byTitle map[string]int) (int, bool) {
	if key := CanonicalURL(item.URL); key != "" {
		if other, ok := byURL[key]; ok && other != idx {
			return other, true
		}
		claimKey(byURL, key, idx)
	}
	if key := NormalizeTitle(item.Title); key != "" {
		if other, ok := byTitle[key]; ok && other != idx {
			return other, true
		}
		claimKey(byTitle, key, idx)
	}
	return 0, false
}

func moveKeys(index map[string]int, from, to int) {
	for key, idx := range index {
		if idx == from {
			index[key] = to
		}
	}
}
