package trend

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultAgeHours is returned for recency signals that cannot be read.
const DefaultAgeHours = 48.0

var nowTokens = map[string]bool{
	"today": true, "real-time": true, "realtime": true, "hot": true, "just now": true,
}

type relativePattern struct {
	re    *regexp.Regexp
	hours float64
}

var relativePatterns = []relativePattern{
	{regexp.MustCompile(`(\d+)\s*(minute|min|mins|minutes)\s*ago`), 1.0 / 60.0},
	{regexp.MustCompile(`(\d+)\s*(hour|hr|hrs|hours)\s*ago`), 1},
	{regexp.MustCompile(`(\d+)\s*(day|days)\s*ago`), 24},
	{regexp.MustCompile(`(\d+)\s*(week|weeks)\s*ago`), 24 * 7},
	{regexp.MustCompile(`(\d+)\s*分钟前`), 1.0 / 60.0},
	{regexp.MustCompile(`(\d+)\s*小时前`), 1},
	{regexp.MustCompile(`(\d+)\s*天前`), 24},
}

type absoluteLayout struct {
	layout string
	zoned  bool
}

var absoluteLayouts = []absoluteLayout{
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
	{"Mon, 02 Jan 2006 15:04:05 MST", true},
	{"Mon, 02 Jan 2006 15:04:05 -0700", true},
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseAge converts a free-form recency signal into an age in hours relative
// to now. Resolution order: "now" tokens, relative durations, absolute
// timestamps, bare HH:MM. Anything else is DefaultAgeHours.
func ParseAge(s string, now time.Time) float64 {
	raw := strings.TrimSpace(s)
	text := strings.ToLower(raw)
	if text == "" {
		return DefaultAgeHours
	}
	if nowTokens[text] {
		return 1
	}

	for _, p := range relativePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			n, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return math.Max(0, n*p.hours)
		}
	}

	for _, l := range absoluteLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, raw)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, now.Location())
		}
		if err == nil {
			return hoursSince(now, t)
		}
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if candidate.After(now) {
				candidate = candidate.AddDate(0, 0, -1)
			}
			return hoursSince(now, candidate)
		}
	}

	return DefaultAgeHours
}

func hoursSince(now, t time.Time) float64 {
	return math.Max(0, now.Sub(t).Hours())
}
