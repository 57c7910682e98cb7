package polymarket

import "testing"

func TestParseMarketSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare slug", "will-btc-hit-100k", "will-btc-hit-100k"},
		{"full url", "https://polymarket.com/market/will-btc-hit-100k", "will-btc-hit-100k"},
		{"url with query", "https://polymarket.com/market/will-btc-hit-100k?src=feed", "will-btc-hit-100k"},
		{"url with fragment", "https://polymarket.com/market/will-btc-hit-100k#top", "will-btc-hit-100k"},
		{"trailing slash", "https://polymarket.com/market/will-btc-hit-100k/", "will-btc-hit-100k"},
		{"whitespace", "  will-btc-hit-100k  ", "will-btc-hit-100k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMarketSlug(tt.in); got != tt.want {
				t.Errorf("ParseMarketSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEventSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare slug", "republican-presidential-nominee-2028", "republican-presidential-nominee-2028"},
		{"events url", "https://polymarket.com/events/republican-presidential-nominee-2028", "republican-presidential-nominee-2028"},
		{"event url singular", "https://polymarket.com/event/republican-presidential-nominee-2028", "republican-presidential-nominee-2028"},
		{"query params", "https://polymarket.com/events/some-event?tid=1#s", "some-event"},
		{"trailing slash", "https://polymarket.com/events/some-event/", "some-event"},
		{"no events path", "https://polymarket.com/some-event", "some-event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEventSlug(tt.in); got != tt.want {
				t.Errorf("ParseEventSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
