package events

import (
	"math/big"

	"watchvault/core/types"
)

const TypePriceUpdated = "oracle.price_updated"

// PriceUpdated is emitted whenever the oracle writer posts a new asset price.
type PriceUpdated struct {
	AssetID uint64
	Price   *big.Int
}

func (PriceUpdated) EventType() string { return TypePriceUpdated }

func (e PriceUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypePriceUpdated,
		Attributes: map[string]string{
			"assetId": uintToString(e.AssetID),
			"price":   formatAmount(e.Price),
		},
	}
}
