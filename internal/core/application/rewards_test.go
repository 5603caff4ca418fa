// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/internal/core/application"
	"github.com/BoostyLabs/staking/internal/core/domain"
)

const (
	walletA = "bc1pwalleta"
	walletB = "bc1pwalletb"
)

func testCampaign(totalReward int64, start, end uint32) domain.Campaign {
	return domain.Campaign{
		ID:               1,
		AssetKind:        domain.AssetBTC,
		Name:             "btc",
		TotalReward:      big.NewInt(totalReward),
		StartHeight:      start,
		EndHeight:        end,
		LastRewardHeight: start,
	}
}

func confirmedStaking(wallet string, quantity int64, height uint32) domain.Staking {
	return domain.Staking{
		CampaignID:      1,
		WalletAddress:   wallet,
		AssetQuantity:   big.NewInt(quantity),
		ConfirmedHeight: &height,
	}
}

func TestDistributeRewards(t *testing.T) {
	t.Run("single staker", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{confirmedStaking(walletA, 10, 100)}

		deltas, height := application.DistributeRewards(campaign, stakings, 110)
		require.EqualValues(t, 110, height)
		require.Len(t, deltas, 1)
		require.EqualValues(t, 1_000_000_000, deltas[walletA].Int64())
	})

	t.Run("stake earns from the next block", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{
			confirmedStaking(walletA, 10, 100),
			confirmedStaking(walletB, 30, 105),
		}

		deltas, height := application.DistributeRewards(campaign, stakings, 110)
		require.EqualValues(t, 110, height)
		require.EqualValues(t, 625_000_000, deltas[walletA].Int64())
		require.EqualValues(t, 375_000_000, deltas[walletB].Int64())
	})

	t.Run("stake confirmed at target earns nothing yet", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{
			confirmedStaking(walletA, 10, 100),
			confirmedStaking(walletB, 30, 110),
		}

		deltas, _ := application.DistributeRewards(campaign, stakings, 110)
		require.Len(t, deltas, 1)
		require.EqualValues(t, 1_000_000_000, deltas[walletA].Int64())
	})

	t.Run("stake confirmed before start earns from start", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{confirmedStaking(walletA, 10, 50)}

		deltas, _ := application.DistributeRewards(campaign, stakings, 101)
		require.EqualValues(t, 100_000_000, deltas[walletA].Int64())
	})

	t.Run("wallet stakes are summed", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{
			confirmedStaking(walletA, 10, 100),
			confirmedStaking(walletA, 30, 100),
			confirmedStaking(walletB, 40, 100),
		}

		deltas, _ := application.DistributeRewards(campaign, stakings, 110)
		require.EqualValues(t, 500_000_000, deltas[walletA].Int64())
		require.EqualValues(t, 500_000_000, deltas[walletB].Int64())
	})

	t.Run("pending stakings are ignored", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{
			confirmedStaking(walletA, 10, 100),
			{CampaignID: 1, WalletAddress: walletB, AssetQuantity: big.NewInt(1000)},
		}

		deltas, _ := application.DistributeRewards(campaign, stakings, 110)
		require.Len(t, deltas, 1)
		require.EqualValues(t, 1_000_000_000, deltas[walletA].Int64())
	})

	t.Run("capped at end height", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		stakings := []domain.Staking{confirmedStaking(walletA, 10, 100)}

		deltas, height := application.DistributeRewards(campaign, stakings, 500)
		require.EqualValues(t, 200, height)
		require.EqualValues(t, 10_000_000_000, deltas[walletA].Int64())
	})

	t.Run("nothing to compute", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)
		campaign.LastRewardHeight = 150
		stakings := []domain.Staking{confirmedStaking(walletA, 10, 100)}

		deltas, height := application.DistributeRewards(campaign, stakings, 150)
		require.Empty(t, deltas)
		require.EqualValues(t, 150, height)

		deltas, height = application.DistributeRewards(campaign, stakings, 120)
		require.Empty(t, deltas)
		require.EqualValues(t, 150, height)
	})

	t.Run("blocks without stakes advance height", func(t *testing.T) {
		campaign := testCampaign(100, 100, 200)

		deltas, height := application.DistributeRewards(campaign, nil, 120)
		require.Empty(t, deltas)
		require.EqualValues(t, 120, height)
	})

	t.Run("share is rounded half up", func(t *testing.T) {
		campaign := testCampaign(2, 10, 13)
		stakings := []domain.Staking{confirmedStaking(walletA, 1, 10)}

		deltas, height := application.DistributeRewards(campaign, stakings, 13)
		require.EqualValues(t, 13, height)
		require.EqualValues(t, 3*66_666_667, deltas[walletA].Int64())
	})

	t.Run("split computation matches single run", func(t *testing.T) {
		campaign := testCampaign(1000, 100, 200)
		stakings := []domain.Staking{
			confirmedStaking(walletA, 10, 90),
			confirmedStaking(walletB, 30, 120),
		}

		whole, _ := application.DistributeRewards(campaign, stakings, 150)

		first, height := application.DistributeRewards(campaign, stakings, 130)
		campaign.LastRewardHeight = height
		second, _ := application.DistributeRewards(campaign, stakings, 150)

		for _, wallet := range []string{walletA, walletB} {
			sum := new(big.Int).Add(valueOrZero(first[wallet]), valueOrZero(second[wallet]))
			require.Zero(t, whole[wallet].Cmp(sum), wallet)
		}
	})
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}

	return v
}

func TestRewardEngine(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memoryRepos, int64) {
		repos := newMemoryRepos()

		campaign := testCampaign(100, 100, 200)
		id, err := repos.Campaigns().Add(ctx, campaign)
		require.NoError(t, err)

		staking := confirmedStaking(walletA, 10, 100)
		staking.CampaignID = id
		_, err = repos.Stakings().Add(ctx, staking)
		require.NoError(t, err)

		return repos, id
	}

	t.Run("compute is idempotent", func(t *testing.T) {
		repos, id := setup(t)
		engine := application.NewRewardEngine(repos)

		require.NoError(t, engine.Compute(ctx, 110))
		require.NoError(t, engine.Compute(ctx, 110))

		reward, err := repos.Rewards().Get(ctx, id, walletA)
		require.NoError(t, err)
		require.Equal(t, "10", reward.Amount())

		campaign, err := repos.Campaigns().Get(ctx, id)
		require.NoError(t, err)
		require.EqualValues(t, 110, campaign.LastRewardHeight)
	})

	t.Run("stale campaign snapshot adds nothing", func(t *testing.T) {
		repos, id := setup(t)

		snapshot, err := repos.Campaigns().GetAll(ctx)
		require.NoError(t, err)

		require.NoError(t, application.NewRewardEngine(repos).Compute(ctx, 110))
		require.NoError(t, application.NewRewardEngine(staleRepos{repos, snapshot}).Compute(ctx, 110))
		require.NoError(t, application.NewRewardEngine(staleRepos{repos, snapshot}).Compute(ctx, 120))

		reward, err := repos.Rewards().Get(ctx, id, walletA)
		require.NoError(t, err)
		require.Equal(t, "10", reward.Amount())

		campaign, err := repos.Campaigns().Get(ctx, id)
		require.NoError(t, err)
		require.EqualValues(t, 110, campaign.LastRewardHeight)
	})

	t.Run("height never decreases", func(t *testing.T) {
		repos, id := setup(t)
		engine := application.NewRewardEngine(repos)

		require.NoError(t, engine.Compute(ctx, 150))
		require.NoError(t, engine.Compute(ctx, 120))

		campaign, err := repos.Campaigns().Get(ctx, id)
		require.NoError(t, err)
		require.EqualValues(t, 150, campaign.LastRewardHeight)

		reward, err := repos.Rewards().Get(ctx, id, walletA)
		require.NoError(t, err)
		require.Equal(t, "50", reward.Amount())
	})

	t.Run("finished campaign is skipped", func(t *testing.T) {
		repos, id := setup(t)
		engine := application.NewRewardEngine(repos)

		require.NoError(t, engine.Compute(ctx, 300))
		require.NoError(t, engine.Compute(ctx, 400))

		reward, err := repos.Rewards().Get(ctx, id, walletA)
		require.NoError(t, err)
		require.Equal(t, "100", reward.Amount())
	})

	t.Run("not started campaign is skipped", func(t *testing.T) {
		repos, id := setup(t)

		require.NoError(t, application.NewRewardEngine(repos).Compute(ctx, 90))

		_, err := repos.Rewards().Get(ctx, id, walletA)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("failures are returned", func(t *testing.T) {
		repos, id := setup(t)
		repos.stakingsErr = errors.New("storage is down")

		err := application.NewRewardEngine(repos).Compute(ctx, 110)
		require.ErrorContains(t, err, "storage is down")

		campaign, err := repos.Campaigns().Get(ctx, id)
		require.NoError(t, err)
		require.EqualValues(t, 100, campaign.LastRewardHeight)
	})
}

// staleRepos serves campaigns as they were before other reward runs.
type staleRepos struct {
	*memoryRepos
	snapshot []domain.Campaign
}

func (r staleRepos) Campaigns() domain.CampaignRepository {
	return staleCampaigns{r.memoryRepos.Campaigns(), r.snapshot}
}

type staleCampaigns struct {
	domain.CampaignRepository
	snapshot []domain.Campaign
}

func (c staleCampaigns) GetAll(context.Context) ([]domain.Campaign, error) {
	return c.snapshot, nil
}
