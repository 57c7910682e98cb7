// Package polymarket provides clients for the Polymarket Gamma API
// (market metadata), the Goldsky orderbook subgraph (historical fills)
// and the CLOB WebSocket feed (live trades).
package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/idhash"
)

// RawFill is one orderFilledEvents row from the Goldsky subgraph.
// All numeric fields arrive as decimal strings.
type RawFill struct {
	ID                string `json:"id"`
	Timestamp         string `json:"timestamp"`
	TransactionHash   string `json:"transactionHash"`
	OrderHash         string `json:"orderHash"`
	Maker             string `json:"maker"`
	Taker             string `json:"taker"`
	MakerAssetID      string `json:"makerAssetId"`
	TakerAssetID      string `json:"takerAssetId"`
	MakerAmountFilled string `json:"makerAmountFilled"`
	TakerAmountFilled string `json:"takerAmountFilled"`
	Fee               string `json:"fee"`
}

// ToFill converts a raw subgraph row into a domain fill for the given market.
// The subgraph event id is kept as the fill id when present; otherwise a
// deterministic hash of the fill fields is derived.
func (r *RawFill) ToFill(marketSlug string) (*domain.Fill, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(r.Timestamp), 10, 64)
	if err != nil {
		return nil, err
	}

	id := r.ID
	if id == "" {
		id = idhash.ComputeFillID(r.TransactionHash, r.Maker, r.Taker, r.MakerAssetID, r.TakerAssetID, ts)
	}

	return &domain.Fill{
		ID:           id,
		MarketSlug:   marketSlug,
		Maker:        r.Maker,
		Taker:        r.Taker,
		MakerAssetID: r.MakerAssetID,
		TakerAssetID: r.TakerAssetID,
		Timestamp:    ts,
		MakerAmount:  r.MakerAmountFilled,
		TakerAmount:  r.TakerAmountFilled,
		Fee:          r.Fee,
		TxHash:       r.TransactionHash,
	}, nil
}

// gammaMarket mirrors the Gamma API market payload. Array-valued fields
// sometimes arrive as JSON strings, hence flexValue.
type gammaMarket struct {
	Slug           string          `json:"slug"`
	Question       string          `json:"question"`
	ConditionID    string          `json:"conditionId"`
	ClobTokenIDs   json.RawMessage `json:"clobTokenIds"`
	Outcomes       json.RawMessage `json:"outcomes"`
	GroupItemTitle string          `json:"groupItemTitle"`
	Volume         json.RawMessage `json:"volume"`
	Liquidity      json.RawMessage `json:"liquidity"`
	LastTradePrice json.RawMessage `json:"lastTradePrice"`
}

// gammaEvent mirrors the Gamma API event payload.
type gammaEvent struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Markets     []gammaMarket `json:"markets"`
}

func (g *gammaMarket) toDomain() *domain.Market {
	return &domain.Market{
		Slug:           g.Slug,
		Question:       g.Question,
		ConditionID:    g.ConditionID,
		ClobTokenIDs:   ensureList(g.ClobTokenIDs),
		Outcomes:       ensureList(g.Outcomes),
		GroupItemTitle: g.GroupItemTitle,
		Volume:         scalarString(g.Volume),
		Liquidity:      scalarString(g.Liquidity),
		LastTradePrice: scalarString(g.LastTradePrice),
	}
}

// ensureList normalizes a Gamma array field. The API returns either a
// JSON array or the same array serialized as a string ("[\"a\",\"b\"]").
func ensureList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
		return nil
	}
	if s == "" {
		return nil
	}
	return []string{s}
}

// scalarString renders a Gamma scalar that may arrive as either a JSON
// number or a string. Returns "" when absent.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
