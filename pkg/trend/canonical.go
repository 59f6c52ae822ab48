package trend

import (
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// blockedQueryKeys are tracking parameters dropped from canonical URLs, in
// addition to any utm_* key.
var blockedQueryKeys = map[string]bool{
	"ref": true, "source": true, "from": true, "spm": true,
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
}

// CanonicalURL reduces a link to a stable identity key. Non-http(s) input
// yields "", unparseable input is returned unchanged.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return raw
	}
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(u.RawQuery)

	host := strings.ToLower(u.Host)
	for strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	if u.User != nil {
		host = u.User.String() + "@" + host
	}

	type pair struct{ key, value string }
	var pairs []pair
	for key, vals := range values {
		lowered := strings.ToLower(key)
		if strings.HasPrefix(lowered, "utm_") || blockedQueryKeys[lowered] {
			continue
		}
		for _, v := range vals {
			if v == "" {
				continue
			}
			pairs = append(pairs, pair{key, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var b strings.Builder
	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(strings.TrimRight(u.EscapedPath(), "/"))
	for i, p := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

var (
	nonASCIIAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	percentRun    = regexp.MustCompile(`(?:%[0-9A-Fa-f]{2})+`)
)

// NormalizeTitle reduces a title to an equality key. Latin-script titles keep
// only ASCII letters and digits; titles without any keep everything but
// whitespace, Unicode spaces included.
func NormalizeTitle(title string) string {
	text := strings.ToLower(strings.TrimSpace(unescapePercent(title)))

	if compact := nonASCIIAlnum.ReplaceAllString(text, ""); compact != "" {
		return compact
	}
	return strings.Join(strings.Fields(text), "")
}

// unescapePercent decodes every run of valid %XX escapes and leaves stray
// percent signs alone. Bytes that do not form UTF-8 become U+FFFD.
func unescapePercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return percentRun.ReplaceAllStringFunc(s, func(run string) string {
		raw, err := hex.DecodeString(strings.ReplaceAll(run, "%", ""))
		if err != nil {
			return run
		}
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	})
}
