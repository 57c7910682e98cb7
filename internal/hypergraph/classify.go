package hypergraph

import (
	"fmt"

	"polymarket-hypergraph-lab/internal/domain"
)

// Trade is the classification of a fill into buyer, seller and outcome
// token. Exactly one side of a fill is USDC collateral (asset id "0");
// the holder of the collateral is buying the outcome token.
type Trade struct {
	Buyer        string // lowercase address
	Seller       string // lowercase address
	OutcomeToken string // the non-collateral asset id
}

// Classify derives the trade roles from a raw fill.
//
// Self-trades (maker == taker after canonicalization) are kept: the
// address joins both the buy-side and sell-side hyperedges, matching
// how each role participated in the fill.
func Classify(f *domain.Fill) (Trade, error) {
	if f == nil {
		return Trade{}, fmt.Errorf("%w: nil fill", ErrMalformedInput)
	}

	maker := domain.CanonicalAddress(f.Maker)
	taker := domain.CanonicalAddress(f.Taker)

	switch {
	case f.MarketSlug == "":
		return Trade{}, fmt.Errorf("%w: missing market slug (fill %s)", ErrMalformedInput, f.ID)
	case maker == "":
		return Trade{}, fmt.Errorf("%w: missing maker address (fill %s)", ErrMalformedInput, f.ID)
	case taker == "":
		return Trade{}, fmt.Errorf("%w: missing taker address (fill %s)", ErrMalformedInput, f.ID)
	case f.Timestamp <= 0:
		return Trade{}, fmt.Errorf("%w: missing timestamp (fill %s)", ErrMalformedInput, f.ID)
	case f.MakerAssetID == "" || f.TakerAssetID == "":
		return Trade{}, fmt.Errorf("%w: missing asset id (fill %s)", ErrMalformedInput, f.ID)
	}

	makerHasCollateral := f.MakerAssetID == domain.CollateralAssetID
	takerHasCollateral := f.TakerAssetID == domain.CollateralAssetID

	if makerHasCollateral == takerHasCollateral {
		// Either no collateral side or two collateral sides; the buyer
		// cannot be determined.
		return Trade{}, fmt.Errorf("%w: ambiguous asset pair %q/%q (fill %s)",
			ErrMalformedInput, f.MakerAssetID, f.TakerAssetID, f.ID)
	}

	if makerHasCollateral {
		// Maker pays USDC: maker buys the outcome token from the taker.
		return Trade{Buyer: maker, Seller: taker, OutcomeToken: f.TakerAssetID}, nil
	}
	// Taker pays USDC: taker buys the outcome token from the maker.
	return Trade{Buyer: taker, Seller: maker, OutcomeToken: f.MakerAssetID}, nil
}
