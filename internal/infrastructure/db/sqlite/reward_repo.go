// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/infrastructure/db/sqlite/sqlc/queries"
)

type rewardRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewRewardRepository(db *sql.DB) (domain.RewardRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open reward repository: db is nil")
	}

	return &rewardRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *rewardRepository) Accrue(ctx context.Context, campaignID int64, deltas map[string]*big.Int, fromHeight, toHeight uint32) error {
	if toHeight <= fromHeight {
		return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("reward height %d does not exceed %d", toHeight, fromHeight))
	}

	wallets := make([]string, 0, len(deltas))
	for wallet, delta := range deltas {
		if delta == nil || delta.Sign() < 0 {
			return fmt.Errorf("invalid reward delta %v of %s", delta, wallet)
		}
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	now := time.Now().Unix()
	txBody := func(querierWithTx *queries.Queries) error {
		if _, err := querierWithTx.GetCampaign(ctx, campaignID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", campaignID))
			}
			return err
		}

		advanced, err := querierWithTx.AdvanceCampaignLastRewardHeight(ctx, queries.AdvanceCampaignLastRewardHeightParams{
			LastRewardHeight:   int64(toHeight),
			ID:                 campaignID,
			LastRewardHeight_2: int64(fromHeight),
		})
		if err != nil {
			return fmt.Errorf("failed to update last reward height: %w", err)
		}
		if advanced == 0 {
			return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("campaign %d rewards already computed from height %d", campaignID, fromHeight))
		}

		for _, wallet := range wallets {
			accrued := big.NewInt(0)

			row, err := querierWithTx.GetReward(ctx, queries.GetRewardParams{CampaignID: campaignID, WalletAddress: wallet})
			switch {
			case err == nil:
				if accrued, err = parseQuantity(row.Accrued); err != nil {
					return fmt.Errorf("reward of %s: %w", wallet, err)
				}
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("failed to get reward of %s: %w", wallet, err)
			}

			err = querierWithTx.UpsertReward(ctx, queries.UpsertRewardParams{
				CampaignID:    campaignID,
				WalletAddress: wallet,
				Accrued:       accrued.Add(accrued, deltas[wallet]).String(),
				UpdatedAt:     now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert reward of %s: %w", wallet, err)
			}
		}

		return nil
	}

	return execTx(ctx, r.db, txBody)
}

func (r *rewardRepository) Get(ctx context.Context, campaignID int64, walletAddress string) (*domain.Reward, error) {
	row, err := r.querier.GetReward(ctx, queries.GetRewardParams{CampaignID: campaignID, WalletAddress: walletAddress})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("reward of %s in campaign %d not found", walletAddress, campaignID))
		}
		return nil, err
	}

	return toReward(row)
}

func (r *rewardRepository) GetByCampaign(ctx context.Context, campaignID int64) ([]domain.Reward, error) {
	rows, err := r.querier.ListRewardsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	rewards := make([]domain.Reward, 0, len(rows))
	for _, row := range rows {
		reward, err := toReward(row)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, *reward)
	}

	return rewards, nil
}

func toReward(row queries.Reward) (*domain.Reward, error) {
	accrued, err := parseQuantity(row.Accrued)
	if err != nil {
		return nil, fmt.Errorf("reward %d: %w", row.ID, err)
	}

	return &domain.Reward{
		ID:            row.ID,
		CampaignID:    row.CampaignID,
		WalletAddress: row.WalletAddress,
		Accrued:       accrued,
		UpdatedAt:     time.Unix(row.UpdatedAt, 0).UTC(),
	}, nil
}
