// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package domain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/BoostyLabs/staking/internal/numbers"
)

// Campaign defines staking vault with fixed reward emitted evenly per block
// between StartHeight and EndHeight. EndHeight is also the unlock height of the vault.
type Campaign struct {
	ID               int64
	AssetKind        AssetKind
	Name             string // ticker or "BTC".
	RuneID           string // runes only.
	TotalReward      *big.Int
	StartHeight      uint32
	EndHeight        uint32
	LastRewardHeight uint32
	CreatedAt        time.Time
}

// Asset returns asset accepted by the campaign.
func (c *Campaign) Asset() Asset {
	return Asset{Kind: c.AssetKind, Ticker: c.Name, RuneID: c.RuneID}
}

// Span returns amount of emission blocks.
func (c *Campaign) Span() uint32 {
	return c.EndHeight - c.StartHeight
}

// IsFinished returns true if rewards are computed up to the end height.
func (c *Campaign) IsFinished() bool {
	return c.LastRewardHeight >= c.EndHeight
}

// Validate checks campaign invariants.
func (c *Campaign) Validate() error {
	if _, err := ParseAssetKind(string(c.AssetKind)); err != nil {
		return err
	}
	if c.Name == "" {
		return errors.New("campaign name is required")
	}
	if c.StartHeight >= c.EndHeight {
		return errors.New("start height must be below end height")
	}
	if c.TotalReward == nil || numbers.IsNegative(c.TotalReward) {
		return errors.New("total reward must not be negative")
	}
	if c.LastRewardHeight < c.StartHeight || c.LastRewardHeight > c.EndHeight {
		return errors.New("last reward height is out of campaign range")
	}
	if c.AssetKind == AssetRune {
		if _, err := c.Asset().Rune(); err != nil {
			return err
		}
	}

	return nil
}

// CampaignRepository stores campaigns.
type CampaignRepository interface {
	// Add stores campaign and returns assigned id.
	Add(ctx context.Context, campaign Campaign) (int64, error)
	// Get returns ErrNotFound for unknown id.
	Get(ctx context.Context, id int64) (*Campaign, error)
	GetAll(ctx context.Context) ([]Campaign, error)
}
