// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package ports

import "github.com/BoostyLabs/staking/internal/core/domain"

type RepoManager interface {
	Campaigns() domain.CampaignRepository
	Stakings() domain.StakingRepository
	Rewards() domain.RewardRepository
	Close()
}
