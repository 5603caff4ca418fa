// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/BoostyLabs/staking/internal/core/domain"
)

type rewardRepository struct {
	store *Store
}

func NewRewardRepository(store *Store) (domain.RewardRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open reward repository: store is nil")
	}

	return &rewardRepository{store}, nil
}

func (r *rewardRepository) Accrue(_ context.Context, campaignID int64, deltas map[string]*big.Int, fromHeight, toHeight uint32) error {
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
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		var campaign campaignData
		if err := r.store.TxGet(tx, uint64(campaignID), &campaign); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", campaignID))
			}
			return err
		}
		if campaign.LastRewardHeight != fromHeight {
			return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("campaign %d rewards already computed from height %d", campaignID, fromHeight))
		}

		for _, wallet := range wallets {
			var rows []rewardData
			err := r.store.TxFind(tx, &rows, badgerhold.Where("CampaignID").Eq(campaignID).And("WalletAddress").Eq(wallet))
			if err != nil {
				return fmt.Errorf("failed to get reward of %s: %w", wallet, err)
			}

			var data rewardData
			accrued := big.NewInt(0)
			if len(rows) > 0 {
				data = rows[0]
				if accrued, err = parseQuantity(data.Accrued); err != nil {
					return fmt.Errorf("reward of %s: %w", wallet, err)
				}
			} else {
				if data.ID, err = r.store.nextID("reward"); err != nil {
					return fmt.Errorf("failed to get reward id: %w", err)
				}
				data.CampaignID = campaignID
				data.WalletAddress = wallet
			}

			data.Accrued = accrued.Add(accrued, deltas[wallet]).String()
			data.UpdatedAt = now
			if err := r.store.TxUpsert(tx, data.ID, data); err != nil {
				return fmt.Errorf("failed to upsert reward of %s: %w", wallet, err)
			}
		}

		campaign.LastRewardHeight = toHeight

		return r.store.TxUpdate(tx, uint64(campaignID), campaign)
	})
	if errors.Is(err, badger.ErrConflict) {
		return errors.Join(domain.ErrPreconditionFailed, err)
	}

	return err
}

func (r *rewardRepository) Get(_ context.Context, campaignID int64, walletAddress string) (*domain.Reward, error) {
	rewards, err := r.find(badgerhold.Where("CampaignID").Eq(campaignID).And("WalletAddress").Eq(walletAddress))
	if err != nil {
		return nil, err
	}
	if len(rewards) == 0 {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("reward of %s in campaign %d not found", walletAddress, campaignID))
	}

	return &rewards[0], nil
}

func (r *rewardRepository) GetByCampaign(_ context.Context, campaignID int64) ([]domain.Reward, error) {
	return r.find(badgerhold.Where("CampaignID").Eq(campaignID))
}

func (r *rewardRepository) find(query *badgerhold.Query) ([]domain.Reward, error) {
	var rows []rewardData
	if err := r.store.Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to find rewards: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	rewards := make([]domain.Reward, 0, len(rows))
	for _, row := range rows {
		accrued, err := parseQuantity(row.Accrued)
		if err != nil {
			return nil, fmt.Errorf("reward %d: %w", row.ID, err)
		}

		rewards = append(rewards, domain.Reward{
			ID:            int64(row.ID),
			CampaignID:    row.CampaignID,
			WalletAddress: row.WalletAddress,
			Accrued:       accrued,
			UpdatedAt:     time.Unix(row.UpdatedAt, 0).UTC(),
		})
	}

	return rewards, nil
}

type rewardData struct {
	ID            uint64 `badgerhold:"key"`
	CampaignID    int64
	WalletAddress string
	Accrued       string
	UpdatedAt     int64
}
