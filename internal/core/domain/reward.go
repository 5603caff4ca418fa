// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/BoostyLabs/staking/internal/numbers"
)

// Reward defines reward accrued by the wallet in campaign.
// Accrued is fixed point with numbers.Decimals precision and never decreases.
type Reward struct {
	ID            int64
	CampaignID    int64
	WalletAddress string
	Accrued       *big.Int
	UpdatedAt     time.Time
}

// Amount returns accrued reward as decimal string.
func (r *Reward) Amount() string {
	return numbers.FormatFixed(r.Accrued, numbers.Decimals)
}

// RewardRepository stores rewards.
type RewardRepository interface {
	// Accrue adds deltas to rewards of the campaign wallets, creating missing ones,
	// and moves campaign last reward height from fromHeight to toHeight in one transaction.
	// Returns ErrPreconditionFailed and adds nothing if the stored height is not fromHeight
	// or toHeight does not exceed it. Negative deltas are rejected.
	Accrue(ctx context.Context, campaignID int64, deltas map[string]*big.Int, fromHeight, toHeight uint32) error
	// Get returns ErrNotFound if wallet has no reward in campaign.
	Get(ctx context.Context, campaignID int64, walletAddress string) (*Reward, error)
	GetByCampaign(ctx context.Context, campaignID int64) ([]Reward, error)
}
