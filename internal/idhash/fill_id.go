// Package idhash derives deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFillID computes a deterministic fill id using SHA256.
// Formula: SHA256(tx_hash|maker|taker|maker_asset|taker_asset|timestamp)
// Returns hex-encoded hash (64 characters).
//
// Used for sources that do not supply a fill id of their own (the CLOB
// WebSocket feed); Goldsky fills keep their subgraph event id.
func ComputeFillID(txHash, maker, taker, makerAsset, takerAsset string, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		txHash,
		maker,
		taker,
		makerAsset,
		takerAsset,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
