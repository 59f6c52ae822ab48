// Package digest turns a ranked list into highlight lines and a markdown report.
package digest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/elonfeng/hotdigest/pkg/trend"
)

const (
	maxHighlights    = 5
	headlineCount    = 5
	sectionItemLimit = 10
)

// sections are the category blocks rendered after Global Headlines.
var sections = []trend.Category{
	trend.CategoryTechAI,
	trend.CategoryOpenSource,
	trend.CategoryFinance,
}

// Highlights summarizes a ranked list in at most five short lines.
func Highlights(items []trend.RankedItem, keyword string) []string {
	if len(items) == 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, origin := range trend.SplitSources(item.Source) {
			if counts[origin] == 0 {
				order = append(order, origin)
			}
			counts[origin]++
		}
	}

	topOrigin, topCount := "Unknown", 0
	for _, origin := range order {
		if counts[origin] > topCount {
			topOrigin, topCount = origin, counts[origin]
		}
	}

	top := trend.Top(items, headlineCount)
	var sum float64
	for _, item := range top {
		sum += item.Score
	}
	avg := math.Round(sum/float64(len(top))*100) / 100

	lines := []string{
		fmt.Sprintf("%d ranked stories collected across %d active sources.", len(items), len(order)),
		fmt.Sprintf("Most active source: %s (%d stories).", topOrigin, topCount),
		fmt.Sprintf("Average score of top stories: %s.", formatScore(avg)),
		fmt.Sprintf("Top story now: %s", items[0].Title),
	}
	if keyword != "" {
		lines = append(lines, fmt.Sprintf("Requested topic focus: %s", keyword))
	}
	if len(lines) > maxHighlights {
		lines = lines[:maxHighlights]
	}
	return lines
}

// Render builds the markdown digest for a ranked list.
func Render(items []trend.RankedItem, keyword string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily News Digest (%s)\n\n", now.Format("2006-01-02 15:04"))
	b.WriteString("## Highlights\n")
	for _, line := range Highlights(items, keyword) {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	fmt.Fprintf(&b, "\n## %s\n\n", trend.CategoryHeadlines)
	for i, item := range trend.Top(items, headlineCount) {
		writeItem(&b, i+1, item)
	}

	for _, section := range sections {
		var matched []trend.RankedItem
		for _, item := range items {
			if item.Category == section {
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", section)
		for i, item := range trend.Top(matched, sectionItemLimit) {
			writeItem(&b, i+1, item)
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}

func writeItem(b *strings.Builder, index int, item trend.RankedItem) {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}
	if item.URL != "" {
		fmt.Fprintf(b, "### %d. [%s](%s)\n", index, title, item.URL)
	} else {
		fmt.Fprintf(b, "### %d. %s\n", index, title)
	}

	meta := []string{"Source: " + item.Source, "Time: " + item.Time}
	if item.Heat != "" {
		meta = append(meta, "Heat: "+item.Heat)
	}
	meta = append(meta, "Score: "+formatScore(item.Score))
	fmt.Fprintf(b, "- %s\n\n", strings.Join(meta, " | "))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultPath returns the timestamped report location under dir.
func DefaultPath(dir string, now time.Time) string {
	if dir == "" {
		dir = "reports"
	}
	return filepath.Join(dir, "news_digest_"+now.Format("20060102_1504")+".md")
}

// WriteFile writes the report, creating parent directories as needed.
func WriteFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
