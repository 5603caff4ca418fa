// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/infrastructure/db/sqlite/sqlc/queries"
)

type stakingRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewStakingRepository(db *sql.DB) (domain.StakingRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open staking repository: db is nil")
	}

	return &stakingRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *stakingRepository) Add(ctx context.Context, staking domain.Staking) (int64, error) {
	if staking.AssetQuantity == nil {
		return 0, fmt.Errorf("staking asset quantity is required")
	}

	var id int64
	txBody := func(querierWithTx *queries.Queries) error {
		if _, err := querierWithTx.GetCampaign(ctx, staking.CampaignID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", staking.CampaignID))
			}
			return err
		}

		_, err := querierWithTx.GetStakingByTxID(ctx, staking.TxID)
		switch {
		case err == nil:
			return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("staking of transaction %s already exists", staking.TxID))
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		id, err = querierWithTx.InsertStaking(ctx, queries.InsertStakingParams{
			CampaignID:      staking.CampaignID,
			WalletAddress:   staking.WalletAddress,
			ScriptAddress:   staking.ScriptAddress,
			SourceTxID:      staking.SourceTxID,
			SourceVout:      toNullInt64(staking.SourceVout),
			TxID:            staking.TxID,
			AssetQuantity:   staking.AssetQuantity.String(),
			ConfirmedHeight: toNullInt64(staking.ConfirmedHeight),
			CreatedAt:       staking.CreatedAt.Unix(),
		})
		if err != nil {
			var sqlErr *sqlite.Error
			if errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
				return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("staking of transaction %s already exists", staking.TxID))
			}
			return fmt.Errorf("failed to insert staking: %w", err)
		}

		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *stakingRepository) Get(ctx context.Context, id int64) (*domain.Staking, error) {
	row, err := r.querier.GetStaking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking %d not found", id))
		}
		return nil, err
	}

	return toStaking(row)
}

func (r *stakingRepository) GetByTxID(ctx context.Context, txID string) (*domain.Staking, error) {
	row, err := r.querier.GetStakingByTxID(ctx, txID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking of transaction %s not found", txID))
		}
		return nil, err
	}

	return toStaking(row)
}

func (r *stakingRepository) GetByCampaign(ctx context.Context, campaignID int64) ([]domain.Staking, error) {
	rows, err := r.querier.ListStakingsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return toStakings(rows)
}

func (r *stakingRepository) GetPending(ctx context.Context) ([]domain.Staking, error) {
	rows, err := r.querier.ListPendingStakings(ctx)
	if err != nil {
		return nil, err
	}

	return toStakings(rows)
}

func (r *stakingRepository) SetConfirmedHeight(ctx context.Context, id int64, height uint32) error {
	updated, err := r.querier.SetStakingConfirmedHeight(ctx, queries.SetStakingConfirmedHeightParams{
		ConfirmedHeight: toNullInt64(&height),
		ID:              id,
	})
	if err != nil {
		return fmt.Errorf("failed to set staking confirmed height: %w", err)
	}
	if updated > 0 {
		return nil
	}

	// nothing updated, staking is either confirmed already or missing.
	_, err = r.Get(ctx, id)
	return err
}

func toStakings(rows []queries.Staking) ([]domain.Staking, error) {
	stakings := make([]domain.Staking, 0, len(rows))
	for _, row := range rows {
		staking, err := toStaking(row)
		if err != nil {
			return nil, err
		}
		stakings = append(stakings, *staking)
	}

	return stakings, nil
}

func toStaking(row queries.Staking) (*domain.Staking, error) {
	quantity, err := parseQuantity(row.AssetQuantity)
	if err != nil {
		return nil, fmt.Errorf("staking %d: %w", row.ID, err)
	}

	return &domain.Staking{
		ID:              row.ID,
		CampaignID:      row.CampaignID,
		WalletAddress:   row.WalletAddress,
		ScriptAddress:   row.ScriptAddress,
		SourceTxID:      row.SourceTxID,
		SourceVout:      fromNullUint32(row.SourceVout),
		TxID:            row.TxID,
		AssetQuantity:   quantity,
		ConfirmedHeight: fromNullUint32(row.ConfirmedHeight),
		CreatedAt:       time.Unix(row.CreatedAt, 0).UTC(),
	}, nil
}
