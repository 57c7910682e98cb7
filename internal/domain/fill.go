package domain

import "strings"

// CollateralAssetID is the asset id Goldsky reports for the USDC side
// of an order fill. The opposing asset id is the outcome token.
const CollateralAssetID = "0"

// Fill represents a single executed trade on the Polymarket CLOB.
// Corresponds to the fills table in PostgreSQL.
type Fill struct {
	ID           string // Goldsky event id, or derived hash for sources without one
	MarketSlug   string // market the fill belongs to
	Maker        string // maker wallet address, lowercase hex
	Taker        string // taker wallet address, lowercase hex
	MakerAssetID string // "0" = USDC collateral, otherwise outcome token id
	TakerAssetID string // "0" = USDC collateral, otherwise outcome token id
	Timestamp    int64  // Unix timestamp in seconds
	MakerAmount  string // maker amount filled, pass-through
	TakerAmount  string // taker amount filled, pass-through
	Fee          string // fee, pass-through
	TxHash       string // transaction hash
	CreatedAt    int64  // record creation timestamp (seconds)
}

// CanonicalAddress lowercases a wallet address. Node identity is the
// lowercase address string.
func CanonicalAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
