// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/infrastructure/db/sqlite/sqlc/queries"
)

type campaignRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewCampaignRepository(db *sql.DB) (domain.CampaignRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open campaign repository: db is nil")
	}

	return &campaignRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *campaignRepository) Add(ctx context.Context, campaign domain.Campaign) (int64, error) {
	if campaign.TotalReward == nil {
		return 0, fmt.Errorf("campaign total reward is required")
	}

	id, err := r.querier.InsertCampaign(ctx, queries.InsertCampaignParams{
		AssetKind:        string(campaign.AssetKind),
		Name:             campaign.Name,
		RuneID:           campaign.RuneID,
		TotalReward:      campaign.TotalReward.String(),
		StartHeight:      int64(campaign.StartHeight),
		EndHeight:        int64(campaign.EndHeight),
		LastRewardHeight: int64(campaign.LastRewardHeight),
		CreatedAt:        campaign.CreatedAt.Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert campaign: %w", err)
	}

	return id, nil
}

func (r *campaignRepository) Get(ctx context.Context, id int64) (*domain.Campaign, error) {
	row, err := r.querier.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", id))
		}
		return nil, err
	}

	return toCampaign(row)
}

func (r *campaignRepository) GetAll(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.querier.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	campaigns := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		campaign, err := toCampaign(row)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *campaign)
	}

	return campaigns, nil
}

func toCampaign(row queries.Campaign) (*domain.Campaign, error) {
	totalReward, err := parseQuantity(row.TotalReward)
	if err != nil {
		return nil, fmt.Errorf("campaign %d: %w", row.ID, err)
	}

	return &domain.Campaign{
		ID:               row.ID,
		AssetKind:        domain.AssetKind(row.AssetKind),
		Name:             row.Name,
		RuneID:           row.RuneID,
		TotalReward:      totalReward,
		StartHeight:      uint32(row.StartHeight),
		EndHeight:        uint32(row.EndHeight),
		LastRewardHeight: uint32(row.LastRewardHeight),
		CreatedAt:        time.Unix(row.CreatedAt, 0).UTC(),
	}, nil
}
