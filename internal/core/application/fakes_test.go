// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
)

// fakeIndexer serves outputs from memory with offset pagination.
type fakeIndexer struct {
	mu      sync.Mutex
	outputs map[string][]bitcoin.UTXO
	errs    map[string]error
	txs     map[string]*wire.MsgTx
	heights map[string]uint32
	height  uint32
	calls   int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{
		outputs: make(map[string][]bitcoin.UTXO),
		errs:    make(map[string]error),
		txs:     make(map[string]*wire.MsgTx),
		heights: make(map[string]uint32),
	}
}

func listingKey(listing ports.Listing, address string) string {
	return listing.String() + "|" + address
}

func (f *fakeIndexer) add(listing ports.Listing, address string, utxos ...bitcoin.UTXO) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := listingKey(listing, address)
	f.outputs[key] = append(f.outputs[key], utxos...)
}

func (f *fakeIndexer) fail(listing ports.Listing, address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs[listingKey(listing, address)] = err
}

func (f *fakeIndexer) addTx(tx *wire.MsgTx) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txs[tx.TxHash().String()] = tx
}

func (f *fakeIndexer) Outputs(_ context.Context, listing ports.Listing, address string, offset, limit int) ([]bitcoin.UTXO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	key := listingKey(listing, address)
	if err := f.errs[key]; err != nil {
		return nil, err
	}

	all := f.outputs[key]
	if offset >= len(all) {
		return nil, nil
	}

	return append([]bitcoin.UTXO(nil), all[offset:min(offset+limit, len(all))]...), nil
}

func (f *fakeIndexer) RawTransaction(_ context.Context, txID string) (*wire.MsgTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.txs[txID]
	if !ok {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("tx %s", txID))
	}

	return tx, nil
}

func (f *fakeIndexer) confirmTx(txID string, height uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.heights[txID] = height
}

func (f *fakeIndexer) TransactionHeight(_ context.Context, txID string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	height, ok := f.heights[txID]
	if !ok {
		return 0, errors.Join(domain.ErrNotFound, fmt.Errorf("tx %s", txID))
	}

	return height, nil
}

func (f *fakeIndexer) BlockHeight(context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.height, nil
}

// fakeMarket returns configured quotes and counts calls.
type fakeMarket struct {
	quotes map[string]*big.Int
	err    error
	calls  int
}

func (f *fakeMarket) Quote(_ context.Context, asset domain.Asset) (*ports.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	price, ok := f.quotes[asset.PriceKey()]
	if !ok {
		return nil, errors.Join(domain.ErrPriceUnavailable, fmt.Errorf("no quote for %s", asset))
	}

	return &ports.Quote{SatsPerUnit: price}, nil
}

type fakeEstimator struct {
	rate uint64
	err  error
}

func (f fakeEstimator) FeeRate(context.Context) (uint64, error) {
	return f.rate, f.err
}

// memoryRepos is an in-memory ports.RepoManager.
type memoryRepos struct {
	mu        sync.Mutex
	campaigns map[int64]domain.Campaign
	stakings  map[int64]domain.Staking
	rewards   map[string]domain.Reward
	nextID    int64

	stakingsErr error
}

func newMemoryRepos() *memoryRepos {
	return &memoryRepos{
		campaigns: make(map[int64]domain.Campaign),
		stakings:  make(map[int64]domain.Staking),
		rewards:   make(map[string]domain.Reward),
	}
}

func (r *memoryRepos) Campaigns() domain.CampaignRepository { return (*memoryCampaigns)(r) }
func (r *memoryRepos) Stakings() domain.StakingRepository   { return (*memoryStakings)(r) }
func (r *memoryRepos) Rewards() domain.RewardRepository     { return (*memoryRewards)(r) }
func (r *memoryRepos) Close()                               {}

func (r *memoryRepos) id() int64 {
	r.nextID++
	return r.nextID
}

type memoryCampaigns memoryRepos

func (r *memoryCampaigns) Add(_ context.Context, campaign domain.Campaign) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaign.ID = (*memoryRepos)(r).id()
	r.campaigns[campaign.ID] = campaign

	return campaign.ID, nil
}

func (r *memoryCampaigns) Get(_ context.Context, id int64) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, ok := r.campaigns[id]
	if !ok {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d", id))
	}

	return &campaign, nil
}

func (r *memoryCampaigns) GetAll(context.Context) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaigns := make([]domain.Campaign, 0, len(r.campaigns))
	for _, campaign := range r.campaigns {
		campaigns = append(campaigns, campaign)
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].ID < campaigns[j].ID })

	return campaigns, nil
}

type memoryStakings memoryRepos

func (r *memoryStakings) Add(_ context.Context, staking domain.Staking) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staking.ID = (*memoryRepos)(r).id()
	r.stakings[staking.ID] = staking

	return staking.ID, nil
}

func (r *memoryStakings) Get(_ context.Context, id int64) (*domain.Staking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staking, ok := r.stakings[id]
	if !ok {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking %d", id))
	}

	return &staking, nil
}

func (r *memoryStakings) GetByTxID(_ context.Context, txID string) (*domain.Staking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, staking := range r.stakings {
		if staking.TxID == txID {
			return &staking, nil
		}
	}

	return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("staking of %s", txID))
}

func (r *memoryStakings) filter(keep func(domain.Staking) bool) []domain.Staking {
	var stakings []domain.Staking
	for _, staking := range r.stakings {
		if keep(staking) {
			stakings = append(stakings, staking)
		}
	}
	sort.Slice(stakings, func(i, j int) bool { return stakings[i].ID < stakings[j].ID })

	return stakings
}

func (r *memoryStakings) GetByCampaign(_ context.Context, campaignID int64) ([]domain.Staking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stakingsErr != nil {
		return nil, r.stakingsErr
	}

	return r.filter(func(s domain.Staking) bool { return s.CampaignID == campaignID }), nil
}

func (r *memoryStakings) GetPending(context.Context) ([]domain.Staking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.filter(func(s domain.Staking) bool { return !s.IsConfirmed() }), nil
}

func (r *memoryStakings) SetConfirmedHeight(_ context.Context, id int64, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staking, ok := r.stakings[id]
	if !ok {
		return errors.Join(domain.ErrNotFound, fmt.Errorf("staking %d", id))
	}
	if !staking.IsConfirmed() {
		staking.ConfirmedHeight = &height
		r.stakings[id] = staking
	}

	return nil
}

type memoryRewards memoryRepos

func rewardKey(campaignID int64, wallet string) string {
	return fmt.Sprintf("%d|%s", campaignID, wallet)
}

func (r *memoryRewards) Accrue(_ context.Context, campaignID int64, deltas map[string]*big.Int, fromHeight, toHeight uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, ok := r.campaigns[campaignID]
	if !ok {
		return errors.Join(domain.ErrNotFound, fmt.Errorf("campaign %d", campaignID))
	}
	if campaign.LastRewardHeight != fromHeight || toHeight <= fromHeight {
		return errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("campaign %d height %d", campaignID, campaign.LastRewardHeight))
	}
	for _, delta := range deltas {
		if delta.Sign() < 0 {
			return errors.New("negative reward delta")
		}
	}

	for wallet, delta := range deltas {
		key := rewardKey(campaignID, wallet)
		reward, ok := r.rewards[key]
		if !ok {
			reward = domain.Reward{ID: (*memoryRepos)(r).id(), CampaignID: campaignID, WalletAddress: wallet, Accrued: big.NewInt(0)}
		}
		reward.Accrued = new(big.Int).Add(reward.Accrued, delta)
		r.rewards[key] = reward
	}

	campaign.LastRewardHeight = toHeight
	r.campaigns[campaignID] = campaign

	return nil
}

func (r *memoryRewards) Get(_ context.Context, campaignID int64, wallet string) (*domain.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[rewardKey(campaignID, wallet)]
	if !ok {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("reward of %s", wallet))
	}

	return &reward, nil
}

func (r *memoryRewards) GetByCampaign(_ context.Context, campaignID int64) ([]domain.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rewards []domain.Reward
	for _, reward := range r.rewards {
		if reward.CampaignID == campaignID {
			rewards = append(rewards, reward)
		}
	}

	return rewards, nil
}
