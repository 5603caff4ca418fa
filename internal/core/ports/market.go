// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package ports

import (
	"context"
	"math/big"

	"github.com/BoostyLabs/staking/internal/core/domain"
)

// Quote defines market price of the asset unit.
type Quote struct {
	SatsPerUnit *big.Int // fixed point with numbers.Decimals precision.
}

// MarketData provides asset price quotes.
type MarketData interface {
	// Quote returns domain.ErrPriceUnavailable when market has no price for the asset.
	Quote(ctx context.Context, asset domain.Asset) (*Quote, error)
}

// FeeEstimator provides network fee rate.
type FeeEstimator interface {
	// FeeRate returns satoshi per virtual byte.
	FeeRate(ctx context.Context) (uint64, error)
}

// Node provides access to the bitcoin node.
type Node interface {
	// SendRawTransaction broadcasts transaction and returns its id.
	SendRawTransaction(ctx context.Context, txHex string) (string, error)
	BlockCount(ctx context.Context) (uint32, error)
}
