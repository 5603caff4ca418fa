// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/BoostyLabs/staking/internal/core/domain"
)

type stakingRepository struct {
	store *Store
}

func NewStakingRepository(store *Store) (domain.StakingRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open staking repository: store is nil")
	}

	return &stakingRepository{store}, nil
}

func (r *stakingRepository) Add(_ context.Context, staking domain.Staking) (int64, error) {
	if staking.AssetQuantity == nil {
		return 0, fmt.Errorf("staking asset quantity is required")
	}

	id, err := r.store.nextID("staking")
	if err != nil {
		return 0, fmt.Errorf("failed to get staking id: %w", err)
	}

	data := toStakingData(staking)
	data.ID = id

	err = r.store.Badger().Update(func(tx *badger.Txn) error {
		var campaign campaignData
		if err := r.store.TxGet(tx, uint64(staking.CampaignID), &campaign); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", staking.CampaignID))
			}
			return err
		}

		var existing []stakingData
		if err := r.store.TxFind(tx, &existing, badgerhold.Where("TxID").Eq(staking.TxID)); err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("staking of transaction %s already exists", staking.TxID))
		}

		return r.store.TxInsert(tx, id, data)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPreconditionFailed) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to insert staking: %w", err)
	}

	return int64(id), nil
}

func (r *stakingRepository) Get(_ context.Context, id int64) (*domain.Staking, error) {
	var data stakingData
	if err := r.store.Get(uint64(id), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking %d not found", id))
		}
		return nil, fmt.Errorf("failed to get staking: %w", err)
	}

	return data.toStaking()
}

func (r *stakingRepository) GetByTxID(_ context.Context, txID string) (*domain.Staking, error) {
	rows, err := r.find(badgerhold.Where("TxID").Eq(txID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking of transaction %s not found", txID))
	}

	return &rows[0], nil
}

func (r *stakingRepository) GetByCampaign(_ context.Context, campaignID int64) ([]domain.Staking, error) {
	return r.find(badgerhold.Where("CampaignID").Eq(campaignID))
}

func (r *stakingRepository) GetPending(_ context.Context) ([]domain.Staking, error) {
	return r.find(badgerhold.Where("Confirmed").Eq(false))
}

func (r *stakingRepository) SetConfirmedHeight(_ context.Context, id int64, height uint32) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var data stakingData
		if err := r.store.TxGet(tx, uint64(id), &data); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return errors.Join(domain.ErrNotFound, fmt.Errorf("staking %d not found", id))
			}
			return err
		}
		if data.Confirmed {
			return nil
		}

		data.Confirmed = true
		data.ConfirmedHeight = height

		return r.store.TxUpdate(tx, uint64(id), data)
	})
}

func (r *stakingRepository) find(query *badgerhold.Query) ([]domain.Staking, error) {
	var rows []stakingData
	if err := r.store.Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to find stakings: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	stakings := make([]domain.Staking, 0, len(rows))
	for _, row := range rows {
		staking, err := row.toStaking()
		if err != nil {
			return nil, err
		}
		stakings = append(stakings, *staking)
	}

	return stakings, nil
}

type stakingData struct {
	ID              uint64 `badgerhold:"key"`
	CampaignID      int64
	WalletAddress   string
	ScriptAddress   string
	SourceTxID      string
	HasSourceVout   bool
	SourceVout      uint32
	TxID            string
	AssetQuantity   string
	Confirmed       bool
	ConfirmedHeight uint32
	CreatedAt       int64
}

func toStakingData(staking domain.Staking) stakingData {
	data := stakingData{
		CampaignID:    staking.CampaignID,
		WalletAddress: staking.WalletAddress,
		ScriptAddress: staking.ScriptAddress,
		SourceTxID:    staking.SourceTxID,
		TxID:          staking.TxID,
		AssetQuantity: staking.AssetQuantity.String(),
		CreatedAt:     staking.CreatedAt.Unix(),
	}
	if staking.SourceVout != nil {
		data.HasSourceVout = true
		data.SourceVout = *staking.SourceVout
	}
	if staking.ConfirmedHeight != nil {
		data.Confirmed = true
		data.ConfirmedHeight = *staking.ConfirmedHeight
	}

	return data
}

func (d stakingData) toStaking() (*domain.Staking, error) {
	quantity, err := parseQuantity(d.AssetQuantity)
	if err != nil {
		return nil, fmt.Errorf("staking %d: %w", d.ID, err)
	}

	staking := &domain.Staking{
		ID:            int64(d.ID),
		CampaignID:    d.CampaignID,
		WalletAddress: d.WalletAddress,
		ScriptAddress: d.ScriptAddress,
		SourceTxID:    d.SourceTxID,
		TxID:          d.TxID,
		AssetQuantity: quantity,
		CreatedAt:     time.Unix(d.CreatedAt, 0).UTC(),
	}
	if d.HasSourceVout {
		vout := d.SourceVout
		staking.SourceVout = &vout
	}
	if d.Confirmed {
		height := d.ConfirmedHeight
		staking.ConfirmedHeight = &height
	}

	return staking, nil
}
