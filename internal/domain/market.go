package domain

// Market represents Polymarket market metadata from the Gamma API.
// Corresponds to the markets table in PostgreSQL.
type Market struct {
	Slug           string   // URL slug, primary identity
	Question       string   // market question text
	ConditionID    string   // CTF condition id
	ClobTokenIDs   []string // outcome token ids (normally two)
	Outcomes       []string // outcome names (normally Yes/No)
	GroupItemTitle string   // short title within an event group
	Volume         string   // decimal string, pass-through
	Liquidity      string   // decimal string, pass-through
	LastTradePrice string   // decimal string, pass-through
	CreatedAt      int64    // record creation timestamp (seconds)
}

// Event represents a Polymarket event: a group of related markets.
type Event struct {
	Slug        string
	Title       string
	Description string
	Markets     []Market
}
