package trend

import (
	"regexp"
	"strconv"
	"strings"
)

// topProductHeat stands in for rank-only signals such as a Product Hunt listing.
const topProductHeat = 500.0

var (
	heatPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kmb万亿])?`)

	heatUnits = map[string]float64{
		"k": 1e3,
		"m": 1e6,
		"b": 1e9,
		"万": 1e4,
		"亿": 1e8,
	}
)

// ParseHeat turns a free-form popularity signal ("1.2k", "120 points",
// "500万") into a magnitude. Unparseable input is 0.
func ParseHeat(heat string) float64 {
	text := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(heat), ",", ""))
	if text == "" {
		return 0
	}
	if strings.Contains(text, "top product") {
		return topProductHeat
	}

	m := heatPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if scale, ok := heatUnits[m[2]]; ok {
		value *= scale
	}
	return value
}
