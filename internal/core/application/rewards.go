// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/numbers"
)

// DistributeRewards computes rewards accrued by campaign wallets in blocks
// (LastRewardHeight; min(target, EndHeight)] and returns them with the new last reward height.
//
// Campaign emits TotalReward / (EndHeight - StartHeight) per block. The emission of block b is
// shared proportionally between stakes confirmed strictly before b, so a stake confirmed at b
// earns from b+1 and a stake confirmed before StartHeight earns from StartHeight+1.
// Per unit share is rounded half up to numbers.Decimals, returned amounts are fixed point.
// Pending stakings are ignored.
func DistributeRewards(campaign domain.Campaign, stakings []domain.Staking, target uint32) (map[string]*big.Int, uint32) {
	deltas := make(map[string]*big.Int)

	from := max(campaign.LastRewardHeight, campaign.StartHeight) + 1
	end := min(target, campaign.EndHeight)
	if from > end || campaign.TotalReward == nil {
		return deltas, campaign.LastRewardHeight
	}

	var (
		active  = make(map[string]*big.Int) // quantity confirmed before current block per wallet.
		total   = big.NewInt(0)
		joining = make(map[uint32][]domain.Staking)
		heights []uint32
	)
	for _, staking := range stakings {
		if !staking.IsConfirmed() || staking.AssetQuantity == nil || !numbers.IsPositive(staking.AssetQuantity) {
			continue
		}

		switch height := *staking.ConfirmedHeight; {
		case height < from:
			addQuantity(active, staking)
			total.Add(total, staking.AssetQuantity)
		case height <= end:
			if _, ok := joining[height]; !ok {
				heights = append(heights, height)
			}
			joining[height] = append(joining[height], staking)
		}
	}
	slices.Sort(heights)

	var (
		emission = numbers.ToFixed(campaign.TotalReward)
		span     = big.NewInt(int64(campaign.Span()))
		block    = from
	)
	// share is constant between confirmation heights, so blocks are accrued by segments.
	for _, segmentEnd := range append(heights, end) {
		if segmentEnd < block {
			continue
		}

		if numbers.IsPositive(total) {
			share := numbers.RoundDiv(emission, new(big.Int).Mul(span, total))
			blocks := big.NewInt(int64(segmentEnd - block + 1))

			for wallet, quantity := range active {
				delta := new(big.Int).Mul(quantity, share)
				delta.Mul(delta, blocks)

				if _, ok := deltas[wallet]; !ok {
					deltas[wallet] = big.NewInt(0)
				}
				deltas[wallet].Add(deltas[wallet], delta)
			}
		}

		for _, staking := range joining[segmentEnd] {
			addQuantity(active, staking)
			total.Add(total, staking.AssetQuantity)
		}
		block = segmentEnd + 1
	}

	for wallet, delta := range deltas {
		if numbers.IsZero(delta) {
			delete(deltas, wallet)
		}
	}

	return deltas, end
}

// addQuantity adds staking quantity to the wallet total.
func addQuantity(wallets map[string]*big.Int, staking domain.Staking) {
	if _, ok := wallets[staking.WalletAddress]; !ok {
		wallets[staking.WalletAddress] = big.NewInt(0)
	}
	wallets[staking.WalletAddress].Add(wallets[staking.WalletAddress], staking.AssetQuantity)
}

// RewardEngine computes and stores campaign rewards.
type RewardEngine struct {
	repos ports.RepoManager
}

// NewRewardEngine is a constructor for RewardEngine.
func NewRewardEngine(repos ports.RepoManager) *RewardEngine {
	return &RewardEngine{
		repos: repos,
	}
}

// Compute accrues rewards of every started campaign up to target height.
// Campaigns are processed independently, failed ones are logged and returned joined.
func (e *RewardEngine) Compute(ctx context.Context, target uint32) error {
	campaigns, err := e.repos.Campaigns().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	var errs []error
	for _, campaign := range campaigns {
		if campaign.StartHeight > target || campaign.IsFinished() || campaign.LastRewardHeight >= target {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if err := e.computeCampaign(ctx, campaign, target); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"campaign": campaign.ID,
				"target":   target,
			}).Warn("failed to compute campaign rewards")

			errs = append(errs, fmt.Errorf("campaign %d: %w", campaign.ID, err))
		}
	}

	return errors.Join(errs...)
}

func (e *RewardEngine) computeCampaign(ctx context.Context, campaign domain.Campaign, target uint32) error {
	stakings, err := e.repos.Stakings().GetByCampaign(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to get stakings: %w", err)
	}

	deltas, height := DistributeRewards(campaign, stakings, target)
	if height == campaign.LastRewardHeight {
		return nil
	}

	err = e.repos.Rewards().Accrue(ctx, campaign.ID, deltas, campaign.LastRewardHeight, height)
	switch {
	case errors.Is(err, domain.ErrPreconditionFailed):
		log.WithError(err).WithField("campaign", campaign.ID).Debug("campaign rewards computed concurrently, skipped")
		return nil
	case err != nil:
		return fmt.Errorf("failed to accrue rewards: %w", err)
	}

	log.WithFields(log.Fields{
		"campaign": campaign.ID,
		"from":     campaign.LastRewardHeight,
		"to":       height,
		"wallets":  len(deltas),
	}).Debug("campaign rewards computed")

	return nil
}
