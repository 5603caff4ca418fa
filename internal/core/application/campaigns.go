// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/bitcoin/timelock"
	"github.com/BoostyLabs/staking/internal/core/domain"
)

// NewCampaign defines campaign creation parameters.
type NewCampaign struct {
	AssetKind   domain.AssetKind
	Name        string
	RuneID      string
	TotalReward *big.Int
	StartHeight uint32
	EndHeight   uint32
}

// StakingAddress defines addresses of the staker in campaign.
type StakingAddress struct {
	LockedAddress string
	StakerAddress string
	LockHeight    uint32
	ScriptType    timelock.ScriptType
}

// CampaignTVL defines value locked in campaign.
type CampaignTVL struct {
	CampaignID int64
	Name       string
	Quantity   *big.Int // confirmed quantity in asset units.
	Value      *big.Int // sats, zero when price is unavailable.
}

// TVL defines value locked in all campaigns.
type TVL struct {
	Campaigns []CampaignTVL
	Total     *big.Int // sats.
}

// CreateCampaign validates and stores campaign, rewards are computed from the start height.
func (s *Service) CreateCampaign(ctx context.Context, params NewCampaign) (*domain.Campaign, error) {
	campaign := domain.Campaign{
		AssetKind:        domain.AssetKind(strings.ToLower(string(params.AssetKind))),
		Name:             params.Name,
		RuneID:           params.RuneID,
		TotalReward:      params.TotalReward,
		StartHeight:      params.StartHeight,
		EndHeight:        params.EndHeight,
		LastRewardHeight: params.StartHeight,
		CreatedAt:        time.Now().UTC(),
	}
	if err := campaign.Validate(); err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}

	id, err := s.repos.Campaigns().Add(ctx, campaign)
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, fmt.Errorf("failed to add campaign: %w", err))
	}
	campaign.ID = id

	log.WithFields(log.Fields{
		"campaign": id,
		"asset":    campaign.Asset(),
		"start":    campaign.StartHeight,
		"end":      campaign.EndHeight,
	}).Info("campaign created")

	return &campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return s.campaign(ctx, id)
}

func (s *Service) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	campaigns, err := s.repos.Campaigns().GetAll(ctx)
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}

	return campaigns, nil
}

// StakingAddress returns locked and staker addresses of the public key in campaign.
func (s *Service) StakingAddress(ctx context.Context, campaignID int64, pubKey string) (*StakingAddress, error) {
	campaign, err := s.campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	lock, stakerAddress, err := s.keys(campaign, pubKey)
	if err != nil {
		return nil, err
	}

	return &StakingAddress{
		LockedAddress: lock.Address.EncodeAddress(),
		StakerAddress: stakerAddress,
		LockHeight:    campaign.EndHeight,
		ScriptType:    lock.Type,
	}, nil
}

// GetReward returns reward accrued by the wallet in campaign as decimal string.
func (s *Service) GetReward(ctx context.Context, campaignID int64, walletAddress string) (string, error) {
	if _, err := s.campaign(ctx, campaignID); err != nil {
		return "", err
	}

	reward, err := s.repos.Rewards().Get(ctx, campaignID, walletAddress)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}

		return "", errors.Join(domain.ErrInternal, err)
	}

	return reward.Amount(), nil
}

// TVL returns confirmed quantity and its value in sats per campaign.
// Campaigns without market price are reported with zero value.
func (s *Service) TVL(ctx context.Context) (*TVL, error) {
	campaigns, err := s.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	tvl := &TVL{Total: big.NewInt(0)}
	for _, campaign := range campaigns {
		stakings, err := s.repos.Stakings().GetByCampaign(ctx, campaign.ID)
		if err != nil {
			return nil, errors.Join(domain.ErrInternal, err)
		}

		quantity := big.NewInt(0)
		for _, staking := range stakings {
			if staking.IsConfirmed() && staking.AssetQuantity != nil {
				quantity.Add(quantity, staking.AssetQuantity)
			}
		}

		value, err := s.fees.Value(ctx, campaign.Asset(), quantity)
		if err != nil {
			if !errors.Is(err, domain.ErrPriceUnavailable) {
				return nil, err
			}

			log.WithError(err).WithField("campaign", campaign.ID).Warn("campaign value is unavailable")
			value = big.NewInt(0)
		}

		tvl.Campaigns = append(tvl.Campaigns, CampaignTVL{
			CampaignID: campaign.ID,
			Name:       campaign.Name,
			Quantity:   quantity,
			Value:      value,
		})
		tvl.Total.Add(tvl.Total, value)
	}

	return tvl, nil
}

// Broadcast sends finalized transaction to the node and returns its id.
func (s *Service) Broadcast(ctx context.Context, txHex string) (string, error) {
	if s.node == nil {
		return "", errors.Join(domain.ErrPreconditionFailed, errors.New("node is not configured"))
	}

	return s.node.SendRawTransaction(ctx, txHex)
}

// ChainTip returns current block height from the node, or from the indexer when node is not configured.
func (s *Service) ChainTip(ctx context.Context) (uint32, error) {
	if s.node == nil {
		return s.indexer.BlockHeight(ctx)
	}

	return s.node.BlockCount(ctx)
}
