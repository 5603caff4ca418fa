// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/BoostyLabs/staking/internal/cache"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/numbers"
)

// Flow defines user operation charged with service fee.
type Flow int

const (
	// FlowStake locks asset into campaign vault.
	FlowStake Flow = iota
	// FlowClaim sweeps unlocked vault back to the staker.
	FlowClaim
	// FlowRestake sweeps unlocked vault into another campaign vault.
	FlowRestake
)

// Service fee caps in multiples of the fee floor.
const (
	StakeFeeCapMultiplier   = 10
	ClaimFeeCapMultiplier   = 5
	RestakeFeeCapMultiplier = 10
)

const basisPoints = 10_000

// CapMultiplier returns service fee cap of the flow in multiples of the floor.
func (f Flow) CapMultiplier() int64 {
	switch f {
	case FlowClaim:
		return ClaimFeeCapMultiplier
	case FlowRestake:
		return RestakeFeeCapMultiplier
	default:
		return StakeFeeCapMultiplier
	}
}

func (f Flow) String() string {
	switch f {
	case FlowStake:
		return "stake"
	case FlowClaim:
		return "claim"
	case FlowRestake:
		return "restake"
	default:
		return "unknown"
	}
}

// FeeModel computes network and service fees.
type FeeModel struct {
	market  ports.MarketData
	prices  *cache.TTL[string, *big.Int]
	floor   *big.Int
	rateBps *big.Int
}

// NewFeeModel is a constructor for FeeModel. Service fee is max(floor, value * rateBps / 10000)
// where value is the asset quantity priced in sats.
func NewFeeModel(market ports.MarketData, prices *cache.TTL[string, *big.Int], floor, rateBps uint64) *FeeModel {
	return &FeeModel{
		market:  market,
		prices:  prices,
		floor:   new(big.Int).SetUint64(floor),
		rateBps: new(big.Int).SetUint64(rateBps),
	}
}

// NetworkFee returns fee of the transaction of vsize at feeRate sat/vB.
func NetworkFee(vsize int64, feeRate uint64) *big.Int {
	return new(big.Int).Mul(big.NewInt(vsize), new(big.Int).SetUint64(feeRate))
}

// UnitPrice returns price of the asset unit in sats as fixed point with numbers.Decimals precision.
// Btc and generic assets are priced in sats directly.
func (m *FeeModel) UnitPrice(ctx context.Context, asset domain.Asset) (*big.Int, error) {
	if !asset.IsPriced() {
		return new(big.Int).Set(numbers.FixedOne), nil
	}

	price, err := m.prices.GetOrLoad(asset.PriceKey(), func() (*big.Int, error) {
		quote, err := m.market.Quote(ctx, asset)
		if err != nil {
			if errors.Is(err, domain.ErrPriceUnavailable) {
				return nil, err
			}

			return nil, errors.Join(domain.ErrPriceUnavailable, err)
		}
		if quote == nil || quote.SatsPerUnit == nil || !numbers.IsPositive(quote.SatsPerUnit) {
			return nil, errors.Join(domain.ErrPriceUnavailable, fmt.Errorf("no quote for %s", asset))
		}

		return quote.SatsPerUnit, nil
	})
	if err != nil {
		return nil, err
	}

	return new(big.Int).Set(price), nil
}

// ServiceFee returns treasury commission of the flow for quantity of the asset.
func (m *FeeModel) ServiceFee(ctx context.Context, flow Flow, asset domain.Asset, quantity *big.Int) (*big.Int, error) {
	price, err := m.UnitPrice(ctx, asset)
	if err != nil {
		return nil, err
	}

	return m.serviceFee(flow, quantity, price), nil
}

// serviceFee applies floor and cap to the variable fee.
func (m *FeeModel) serviceFee(flow Flow, quantity, price *big.Int) *big.Int {
	variable := big.NewInt(0)
	if quantity != nil {
		variable.Mul(quantity, price)
		variable.Mul(variable, m.rateBps)
		variable.Quo(variable, new(big.Int).Mul(big.NewInt(basisPoints), numbers.FixedOne))
	}

	ceiling := new(big.Int).Mul(m.floor, big.NewInt(flow.CapMultiplier()))

	return numbers.Clamp(variable, m.floor, ceiling)
}

// Value returns quantity of the asset priced in sats, rounded down.
func (m *FeeModel) Value(ctx context.Context, asset domain.Asset, quantity *big.Int) (*big.Int, error) {
	price, err := m.UnitPrice(ctx, asset)
	if err != nil {
		return nil, err
	}

	value := new(big.Int).Mul(quantity, price)

	return value.Quo(value, numbers.FixedOne), nil
}
