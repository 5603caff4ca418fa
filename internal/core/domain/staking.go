// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package domain

import (
	"context"
	"math/big"
	"time"
)

// Staking defines asset locked by the staker into campaign vault.
// Pending until ConfirmedHeight is set, pending stakings do not earn rewards.
type Staking struct {
	ID              int64
	CampaignID      int64
	WalletAddress   string
	ScriptAddress   string  // locked address holding the value.
	SourceTxID      string  // staked inscription or rune output, empty for btc.
	SourceVout      *uint32 // nil for btc.
	TxID            string  // stake or restake transaction, locked output is 0.
	AssetQuantity   *big.Int
	ConfirmedHeight *uint32
	CreatedAt       time.Time
}

// IsConfirmed returns true if stake transaction is mined.
func (s *Staking) IsConfirmed() bool {
	return s.ConfirmedHeight != nil
}

// StakingRepository stores stakings.
type StakingRepository interface {
	// Add stores staking and returns assigned id.
	Add(ctx context.Context, staking Staking) (int64, error)
	// Get returns ErrNotFound for unknown id.
	Get(ctx context.Context, id int64) (*Staking, error)
	// GetByTxID returns ErrNotFound if no staking was recorded for transaction.
	GetByTxID(ctx context.Context, txID string) (*Staking, error)
	GetByCampaign(ctx context.Context, campaignID int64) ([]Staking, error)
	GetPending(ctx context.Context) ([]Staking, error)
	// SetConfirmedHeight sets height of pending staking, confirmed ones are left unchanged.
	SetConfirmedHeight(ctx context.Context, id int64, height uint32) error
}
