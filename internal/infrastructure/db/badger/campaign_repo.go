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

	"github.com/timshannon/badgerhold/v4"

	"github.com/BoostyLabs/staking/internal/core/domain"
)

type campaignRepository struct {
	store *Store
}

func NewCampaignRepository(store *Store) (domain.CampaignRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open campaign repository: store is nil")
	}

	return &campaignRepository{store}, nil
}

func (r *campaignRepository) Add(_ context.Context, campaign domain.Campaign) (int64, error) {
	if campaign.TotalReward == nil {
		return 0, fmt.Errorf("campaign total reward is required")
	}

	id, err := r.store.nextID("campaign")
	if err != nil {
		return 0, fmt.Errorf("failed to get campaign id: %w", err)
	}

	data := toCampaignData(campaign)
	data.ID = id
	if err := r.store.Insert(id, data); err != nil {
		return 0, fmt.Errorf("failed to insert campaign: %w", err)
	}

	return int64(data.ID), nil
}

func (r *campaignRepository) Get(_ context.Context, id int64) (*domain.Campaign, error) {
	var data campaignData
	if err := r.store.Get(uint64(id), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d not found", id))
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return data.toCampaign()
}

func (r *campaignRepository) GetAll(_ context.Context) ([]domain.Campaign, error) {
	var rows []campaignData
	if err := r.store.Find(&rows, nil); err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	campaigns := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		campaign, err := row.toCampaign()
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *campaign)
	}

	return campaigns, nil
}

type campaignData struct {
	ID               uint64 `badgerhold:"key"`
	AssetKind        string
	Name             string
	RuneID           string
	TotalReward      string
	StartHeight      uint32
	EndHeight        uint32
	LastRewardHeight uint32
	CreatedAt        int64
}

func toCampaignData(campaign domain.Campaign) campaignData {
	return campaignData{
		AssetKind:        string(campaign.AssetKind),
		Name:             campaign.Name,
		RuneID:           campaign.RuneID,
		TotalReward:      campaign.TotalReward.String(),
		StartHeight:      campaign.StartHeight,
		EndHeight:        campaign.EndHeight,
		LastRewardHeight: campaign.LastRewardHeight,
		CreatedAt:        campaign.CreatedAt.Unix(),
	}
}

func (d campaignData) toCampaign() (*domain.Campaign, error) {
	totalReward, err := parseQuantity(d.TotalReward)
	if err != nil {
		return nil, fmt.Errorf("campaign %d: %w", d.ID, err)
	}

	return &domain.Campaign{
		ID:               int64(d.ID),
		AssetKind:        domain.AssetKind(d.AssetKind),
		Name:             d.Name,
		RuneID:           d.RuneID,
		TotalReward:      totalReward,
		StartHeight:      d.StartHeight,
		EndHeight:        d.EndHeight,
		LastRewardHeight: d.LastRewardHeight,
		CreatedAt:        time.Unix(d.CreatedAt, 0).UTC(),
	}, nil
}

func parseQuantity(s string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored quantity %q", s)
	}

	return value, nil
}
