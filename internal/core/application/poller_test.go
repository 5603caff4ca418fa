// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/internal/core/application"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
)

const (
	lockAddressA = "3LockAddressA"
	lockAddressB = "3LockAddressB"
	lockAddressC = "3LockAddressC"
)

// pendingStaking records pending staking of the campaign locked at address.
func pendingStaking(t *testing.T, repos *memoryRepos, campaignID int64, address string, n int) domain.Staking {
	staking := domain.Staking{
		CampaignID:    campaignID,
		WalletAddress: walletA,
		ScriptAddress: address,
		TxID:          testTxHash(n),
		AssetQuantity: big.NewInt(10),
	}

	id, err := repos.Stakings().Add(context.Background(), staking)
	require.NoError(t, err)
	staking.ID = id

	return staking
}

func lockedUTXO(staking domain.Staking, height uint64) bitcoin.UTXO {
	return bitcoin.UTXO{TxHash: staking.TxID, Index: 0, Amount: big.NewInt(10), Address: staking.ScriptAddress, Height: height}
}

func TestConfirmationPoller(t *testing.T) {
	ctx := context.Background()
	plain := ports.Listing{Kind: ports.ListingPlain}

	repos := newMemoryRepos()
	campaignID, err := repos.Campaigns().Add(ctx, testCampaign(100, 100, 200))
	require.NoError(t, err)

	confirmed := pendingStaking(t, repos, campaignID, lockAddressA, 1)
	mempool := pendingStaking(t, repos, campaignID, lockAddressB, 2)
	failing := pendingStaking(t, repos, campaignID, lockAddressC, 3)
	unknown := pendingStaking(t, repos, campaignID, lockAddressA, 4)
	spent := pendingStaking(t, repos, campaignID, lockAddressA, 5)
	spentMempool := pendingStaking(t, repos, campaignID, lockAddressB, 6)

	indexer := newFakeIndexer()
	indexer.add(plain, lockAddressA, plainUTXO(9, 1000), lockedUTXO(confirmed, 120))
	indexer.add(plain, lockAddressB, lockedUTXO(mempool, 0))
	indexer.fail(plain, lockAddressC, errors.Join(domain.ErrUpstream, errors.New("bad gateway")))
	indexer.confirmTx(spent.TxID, 130)
	indexer.confirmTx(spentMempool.TxID, 0)

	poller := application.NewConfirmationPoller(repos, indexer, application.NewSelector(indexer, 5), time.Millisecond)

	report, err := poller.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, application.ReconcileReport{Checked: 6, Confirmed: 2, Failed: 1}, report)

	staking, err := repos.Stakings().Get(ctx, confirmed.ID)
	require.NoError(t, err)
	require.True(t, staking.IsConfirmed())
	require.EqualValues(t, 120, *staking.ConfirmedHeight)

	staking, err = repos.Stakings().Get(ctx, spent.ID)
	require.NoError(t, err)
	require.EqualValues(t, 130, *staking.ConfirmedHeight)

	for _, id := range []int64{mempool.ID, failing.ID, unknown.ID, spentMempool.ID} {
		staking, err = repos.Stakings().Get(ctx, id)
		require.NoError(t, err)
		require.False(t, staking.IsConfirmed())
	}

	t.Run("confirmed stakings are not checked again", func(t *testing.T) {
		report, err := poller.Reconcile(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, report.Checked)
		require.Zero(t, report.Confirmed)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := application.NewConfirmationPoller(repos, indexer, application.NewSelector(indexer, 5), time.Hour).Reconcile(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackgroundJob(t *testing.T) {
	ctx := context.Background()
	plain := ports.Listing{Kind: ports.ListingPlain}

	repos := newMemoryRepos()
	campaignID, err := repos.Campaigns().Add(ctx, testCampaign(100, 100, 200))
	require.NoError(t, err)

	staking := pendingStaking(t, repos, campaignID, lockAddressA, 1)

	indexer := newFakeIndexer()
	indexer.add(plain, lockAddressA, lockedUTXO(staking, 100))
	indexer.height = 111

	selector := application.NewSelector(indexer, 5)
	job := application.NewBackgroundJob(
		application.NewConfirmationPoller(repos, indexer, selector, 0),
		application.NewRewardEngine(repos),
		indexer,
	)

	job.Run(ctx)

	reward, err := repos.Rewards().Get(ctx, campaignID, walletA)
	require.NoError(t, err)
	require.Equal(t, "10", reward.Amount())

	campaign, err := repos.Campaigns().Get(ctx, campaignID)
	require.NoError(t, err)
	require.EqualValues(t, 110, campaign.LastRewardHeight)

	job.Run(ctx)

	reward, err = repos.Rewards().Get(ctx, campaignID, walletA)
	require.NoError(t, err)
	require.Equal(t, "10", reward.Amount())
}
