package polymarket

import "strings"

// ParseMarketSlug extracts a market slug from either a bare slug or a
// full polymarket.com URL. For URLs, the last non-empty path segment wins.
func ParseMarketSlug(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "polymarket.com") {
		return text
	}
	return lastSegment(text)
}

// ParseEventSlug extracts an event slug from either a bare slug or a URL
// like https://polymarket.com/event/republican-presidential-nominee-2028.
func ParseEventSlug(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "polymarket.com") {
		return text
	}

	for _, marker := range []string{"/events/", "/event/"} {
		if idx := strings.Index(text, marker); idx >= 0 {
			slug := text[idx+len(marker):]
			if cut := strings.IndexAny(slug, "?#"); cut >= 0 {
				slug = slug[:cut]
			}
			return strings.TrimRight(slug, "/")
		}
	}
	return lastSegment(text)
}

func lastSegment(text string) string {
	last := ""
	for _, p := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '/' || r == '?' || r == '#'
	}) {
		if p != "" {
			last = p
		}
	}
	return last
}
