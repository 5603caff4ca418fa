// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/inscriptions"
	"github.com/BoostyLabs/staking/bitcoin/timelock"
	"github.com/BoostyLabs/staking/bitcoin/txbuilder"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/numbers"
)

// ServiceConfig defines static parameters of the Service.
type ServiceConfig struct {
	NetworkParams   *chaincfg.Params
	ScriptType      timelock.ScriptType
	TreasuryAddress string
	PageSize        int
}

// Service builds and finalizes stake, claim and restake transactions of campaign vaults.
// Build calls are read only, finalize calls record stakings once the transaction is validated.
type Service struct {
	repos     ports.RepoManager
	indexer   ports.Indexer
	estimator ports.FeeEstimator
	node      ports.Node
	fees      *FeeModel
	selector  *Selector
	deriver   *timelock.Deriver
	builder   *txbuilder.TxBuilder
	treasury  string
}

// NewService is a constructor for Service. Node is optional, Broadcast fails without it.
func NewService(
	config ServiceConfig,
	repos ports.RepoManager,
	indexer ports.Indexer,
	fees *FeeModel,
	estimator ports.FeeEstimator,
	node ports.Node,
) *Service {
	return &Service{
		repos:     repos,
		indexer:   indexer,
		estimator: estimator,
		node:      node,
		fees:      fees,
		selector:  NewSelector(indexer, config.PageSize),
		deriver:   timelock.NewDeriver(config.NetworkParams, config.ScriptType),
		builder:   txbuilder.NewTxBuilder(config.NetworkParams),
		treasury:  config.TreasuryAddress,
	}
}

// Selector returns outputs selector of the service.
func (s *Service) Selector() *Selector {
	return s.selector
}

// StakeRequest defines stake parameters.
type StakeRequest struct {
	CampaignID int64
	PubKey     string   // compressed staker public key in hex.
	Amount     *big.Int // sats for btc, rune units, optional brc-20 transfer amount check, ignored for generic.
	AssetTxID  string   // inscription or rune output, ignored for btc.
	AssetVout  uint32
}

// FinalizeStakeRequest defines stake parameters and the signed template.
type FinalizeStakeRequest struct {
	StakeRequest
	SignedTemplate string // hex or base64 psbt.
}

// ClaimRequest defines claim parameters.
type ClaimRequest struct {
	CampaignID int64
	PubKey     string
}

// FinalizeClaimRequest defines claim parameters and the signed template.
type FinalizeClaimRequest struct {
	ClaimRequest
	SignedTemplate string
}

// RestakeRequest defines restake parameters, vault of FromCampaignID is moved into ToCampaignID.
type RestakeRequest struct {
	FromCampaignID int64
	ToCampaignID   int64
	PubKey         string
}

// FinalizeRestakeRequest defines restake parameters and the signed template.
type FinalizeRestakeRequest struct {
	RestakeRequest
	SignedTemplate string
}

// Template defines unsigned transaction template to be signed by the staker wallet.
type Template struct {
	Hex           string // psbt.
	VSize         int64
	NetworkFee    *big.Int
	ServiceFee    *big.Int
	LockedAddress string
	StakerAddress string
}

// FinalizeResult defines finalized transaction.
type FinalizeResult struct {
	TransactionSize     int64
	TemplateHex         string
	FinalTransactionHex string
	TxID                string
	StakingID           int64 // zero for claim.
}

// stakeSetup defines resolved stake request.
type stakeSetup struct {
	campaign      *domain.Campaign
	asset         domain.Asset
	lock          *timelock.Lock
	stakerAddress string
	params        txbuilder.StakeParams
	quantity      *big.Int
}

// BuildStake builds template locking the asset into campaign vault.
func (s *Service) BuildStake(ctx context.Context, req StakeRequest) (*Template, error) {
	setup, err := s.stakeSetup(ctx, req)
	if err != nil {
		return nil, err
	}

	serviceFee, err := s.fees.ServiceFee(ctx, FlowStake, setup.asset, setup.quantity)
	if err != nil {
		return nil, err
	}

	feeRate, err := s.feeRate(ctx)
	if err != nil {
		return nil, err
	}

	params := setup.params
	params.ServiceFee = serviceFee
	params.FeeRate = feeRate

	funding, err := s.builder.StakeFunding(params)
	if err != nil {
		return nil, classifyBuildError(err)
	}

	params.FeeUTXO, err = s.fundingOutput(ctx, setup.stakerAddress, funding.Required)
	if err != nil {
		return nil, err
	}

	template, err := s.builder.BuildStake(params)
	if err != nil {
		return nil, classifyBuildError(err)
	}

	return newTemplate(template, serviceFee, setup.lock, setup.stakerAddress)
}

// FinalizeStake finalizes signed stake template and records pending staking.
func (s *Service) FinalizeStake(ctx context.Context, req FinalizeStakeRequest) (*FinalizeResult, error) {
	setup, err := s.stakeSetup(ctx, req.StakeRequest)
	if err != nil {
		return nil, err
	}

	finalized, err := s.finalize(req.SignedTemplate)
	if err != nil {
		return nil, err
	}

	if err = validateStake(finalized, setup); err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}

	staking := domain.Staking{
		CampaignID:    setup.campaign.ID,
		WalletAddress: setup.stakerAddress,
		ScriptAddress: setup.lock.Address.EncodeAddress(),
		TxID:          finalized.Tx.TxHash().String(),
		AssetQuantity: setup.quantity,
	}
	if utxo := setup.params.AssetUTXO; utxo != nil {
		vout := utxo.Index
		staking.SourceTxID, staking.SourceVout = utxo.TxHash, &vout
	}

	return s.record(ctx, finalized, staking)
}

// BuildClaim builds template returning every output of the unlocked campaign vault to the staker.
func (s *Service) BuildClaim(ctx context.Context, req ClaimRequest) (*Template, error) {
	campaign, err := s.campaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	lock, stakerAddress, err := s.keys(campaign, req.PubKey)
	if err != nil {
		return nil, err
	}

	quantity, err := s.stakedQuantity(ctx, campaign.ID, lock)
	if err != nil {
		return nil, err
	}

	template, serviceFee, err := s.buildSweep(ctx, FlowClaim, campaign.Asset(), quantity, req.PubKey, lock, stakerAddress, stakerAddress)
	if err != nil {
		return nil, err
	}

	return newTemplate(template, serviceFee, lock, stakerAddress)
}

// FinalizeClaim finalizes signed claim template, nothing is recorded.
func (s *Service) FinalizeClaim(ctx context.Context, req FinalizeClaimRequest) (*FinalizeResult, error) {
	campaign, err := s.campaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	lock, _, err := s.keys(campaign, req.PubKey)
	if err != nil {
		return nil, err
	}

	finalized, err := s.finalize(req.SignedTemplate)
	if err != nil {
		return nil, err
	}

	if err = validateSweep(finalized, lock); err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}

	return newFinalizeResult(finalized, 0), nil
}

// BuildRestake builds template moving every output of the unlocked vault into another campaign vault.
// Service fee is charged once for the outgoing campaign.
func (s *Service) BuildRestake(ctx context.Context, req RestakeRequest) (*Template, error) {
	from, to, err := s.restakeCampaigns(ctx, req)
	if err != nil {
		return nil, err
	}

	fromLock, stakerAddress, err := s.keys(from, req.PubKey)
	if err != nil {
		return nil, err
	}
	toLock, _, err := s.keys(to, req.PubKey)
	if err != nil {
		return nil, err
	}

	quantity, err := s.restakeQuantity(ctx, from, fromLock)
	if err != nil {
		return nil, err
	}

	template, serviceFee, err := s.buildSweep(ctx, FlowRestake, from.Asset(), quantity, req.PubKey, fromLock, stakerAddress,
		toLock.Address.EncodeAddress())
	if err != nil {
		return nil, err
	}

	return newTemplate(template, serviceFee, toLock, stakerAddress)
}

// FinalizeRestake finalizes signed restake template and records pending staking in the target campaign.
func (s *Service) FinalizeRestake(ctx context.Context, req FinalizeRestakeRequest) (*FinalizeResult, error) {
	from, to, err := s.restakeCampaigns(ctx, req.RestakeRequest)
	if err != nil {
		return nil, err
	}

	fromLock, stakerAddress, err := s.keys(from, req.PubKey)
	if err != nil {
		return nil, err
	}
	toLock, _, err := s.keys(to, req.PubKey)
	if err != nil {
		return nil, err
	}

	quantity, err := s.restakeQuantity(ctx, from, fromLock)
	if err != nil {
		return nil, err
	}

	finalized, err := s.finalize(req.SignedTemplate)
	if err != nil {
		return nil, err
	}

	if err = validateSweep(finalized, fromLock); err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}
	if err = validateLockedOutput(finalized, toLock, nil); err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}

	staking := domain.Staking{
		CampaignID:    to.ID,
		WalletAddress: stakerAddress,
		ScriptAddress: toLock.Address.EncodeAddress(),
		TxID:          finalized.Tx.TxHash().String(),
		AssetQuantity: quantity,
	}
	if to.AssetKind != domain.AssetBTC {
		vout := txbuilder.LockedOutput
		staking.SourceTxID, staking.SourceVout = staking.TxID, &vout
	}

	return s.record(ctx, finalized, staking)
}

// stakeSetup resolves campaign, addresses and staked asset output of the request.
func (s *Service) stakeSetup(ctx context.Context, req StakeRequest) (*stakeSetup, error) {
	campaign, err := s.campaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	lock, stakerAddress, err := s.keys(campaign, req.PubKey)
	if err != nil {
		return nil, err
	}

	setup := &stakeSetup{
		campaign:      campaign,
		asset:         campaign.Asset(),
		lock:          lock,
		stakerAddress: stakerAddress,
		params: txbuilder.StakeParams{
			Lock:            lock,
			StakerPubKey:    req.PubKey,
			StakerAddress:   stakerAddress,
			TreasuryAddress: s.treasury,
		},
	}

	requireAmount := func() error {
		if req.Amount == nil || !numbers.IsPositive(req.Amount) {
			return errors.Join(domain.ErrPreconditionFailed, txbuilder.ErrInvalidAmount)
		}

		return nil
	}

	switch setup.asset.Kind {
	case domain.AssetBTC:
		if err = requireAmount(); err != nil {
			return nil, err
		}

		setup.params.Kind = txbuilder.StakeBTC
		setup.params.Amount = req.Amount
		setup.quantity = req.Amount
	case domain.AssetBRC20, domain.AssetGeneric:
		listing := ports.Listing{Kind: ports.ListingInscriptions}
		utxo, err := s.selector.FindSpecificOutput(ctx, listing, stakerAddress, req.AssetTxID, req.AssetVout)
		if err != nil {
			return nil, err
		}
		if !utxo.HasActiveInscription() {
			return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("output %s:%d carries no inscription", utxo.TxHash, utxo.Index))
		}

		setup.params.Kind = txbuilder.StakeInscription
		setup.params.AssetUTXO = utxo
		setup.quantity = utxo.Amount
		if setup.asset.Kind == domain.AssetBRC20 {
			setup.quantity, err = s.transferAmount(ctx, utxo, setup.asset.Ticker)
			if err != nil {
				return nil, err
			}
			if req.Amount != nil && req.Amount.Cmp(setup.quantity) != 0 {
				return nil, errors.Join(domain.ErrPreconditionFailed,
					fmt.Errorf("transfer inscription amount %s, requested %s", setup.quantity, req.Amount))
			}
		}
	case domain.AssetRune:
		if err = requireAmount(); err != nil {
			return nil, err
		}

		runeID, err := setup.asset.Rune()
		if err != nil {
			return nil, errors.Join(domain.ErrInternal, err)
		}

		listing := ports.Listing{Kind: ports.ListingRunes, RuneID: setup.asset.RuneID}
		utxo, err := s.selector.FindSpecificOutput(ctx, listing, stakerAddress, req.AssetTxID, req.AssetVout)
		if err != nil {
			return nil, err
		}

		setup.params.Kind = txbuilder.StakeRune
		setup.params.RuneID = runeID
		setup.params.Amount = req.Amount
		setup.params.AssetUTXO = utxo
		setup.quantity = req.Amount
	default:
		return nil, errors.Join(domain.ErrInternal, fmt.Errorf("unknown asset kind %s", setup.asset.Kind))
	}

	return setup, nil
}

// transferAmount returns amount of the brc-20 transfer inscription carried by the output.
// Inscription content is read from its reveal transaction.
func (s *Service) transferAmount(ctx context.Context, utxo *bitcoin.UTXO, ticker string) (*big.Int, error) {
	var ref *bitcoin.InscriptionRef
	for idx := range utxo.Inscriptions {
		if !utxo.Inscriptions[idx].Moved {
			ref = &utxo.Inscriptions[idx]
			break
		}
	}
	if ref == nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("output %s:%d carries no inscription", utxo.TxHash, utxo.Index))
	}

	id, err := inscriptions.NewIDFromString(ref.ID)
	if err != nil {
		return nil, errors.Join(domain.ErrUpstream, err)
	}

	reveal, err := s.indexer.RawTransaction(ctx, id.TxID.String())
	if err != nil {
		return nil, err
	}

	revealed := inscriptions.ParseFromTransaction(reveal)
	if int(id.Index) >= len(revealed) {
		return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("inscription %s is not revealed by %s", ref.ID, id.TxID))
	}

	operation, err := revealed[id.Index].BRC20()
	if err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("inscription %s: %w", ref.ID, err))
	}
	if !operation.IsTransfer(ticker) {
		return nil, errors.Join(domain.ErrPreconditionFailed,
			fmt.Errorf("inscription %s is %s of %s, %s transfer expected", ref.ID, operation.Op, operation.Tick, ticker))
	}

	amount, err := numbers.ParseFixed(operation.Amount, 0)
	if err != nil || !numbers.IsPositive(amount) {
		return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("inscription %s transfers invalid amount %q", ref.ID, operation.Amount))
	}

	return amount, nil
}

// buildSweep builds template spending every output of the lock to destination.
func (s *Service) buildSweep(
	ctx context.Context,
	flow Flow,
	asset domain.Asset,
	quantity *big.Int,
	pubKey string,
	lock *timelock.Lock,
	stakerAddress, destination string,
) (*txbuilder.Template, *big.Int, error) {
	locked, err := s.lockedOutputs(ctx, asset, lock)
	if err != nil {
		return nil, nil, err
	}

	serviceFee, err := s.fees.ServiceFee(ctx, flow, asset, quantity)
	if err != nil {
		return nil, nil, err
	}

	feeRate, err := s.feeRate(ctx)
	if err != nil {
		return nil, nil, err
	}

	params := txbuilder.SweepParams{
		Lock:               lock,
		LockedUTXOs:        locked,
		StakerPubKey:       pubKey,
		StakerAddress:      stakerAddress,
		DestinationAddress: destination,
		TreasuryAddress:    s.treasury,
		ServiceFee:         serviceFee,
		FeeRate:            feeRate,
	}

	funding, err := s.builder.SweepFunding(params)
	if err != nil {
		return nil, nil, classifyBuildError(err)
	}

	params.FeeUTXO, err = s.fundingOutput(ctx, stakerAddress, funding.Required)
	if err != nil {
		return nil, nil, err
	}

	template, err := s.builder.BuildSweep(params)
	if err != nil {
		return nil, nil, classifyBuildError(err)
	}

	return template, serviceFee, nil
}

// lockedOutputs lists every output held by the lock, asset outputs first.
// P2SH outputs come with their previous transactions.
func (s *Service) lockedOutputs(ctx context.Context, asset domain.Asset, lock *timelock.Lock) ([]txbuilder.LockedUTXO, error) {
	address := lock.Address.EncodeAddress()

	var utxos []bitcoin.UTXO
	switch asset.Kind {
	case domain.AssetBRC20, domain.AssetGeneric:
		inscriptions, err := s.selector.ListAllOutputs(ctx, ports.Listing{Kind: ports.ListingInscriptions}, address, NonMovedInscriptions())
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, inscriptions...)
	case domain.AssetRune:
		runeID, err := asset.Rune()
		if err != nil {
			return nil, errors.Join(domain.ErrInternal, err)
		}

		runeOutputs, err := s.selector.ListAllOutputs(ctx, ports.Listing{Kind: ports.ListingRunes, RuneID: asset.RuneID}, address, CarriesRune(runeID))
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, runeOutputs...)
	}

	plain, err := s.selector.ListAllOutputs(ctx, ports.Listing{Kind: ports.ListingPlain}, address, nil)
	if err != nil {
		return nil, err
	}
	for _, utxo := range plain {
		if !containsOutpoint(utxos, utxo) {
			utxos = append(utxos, utxo)
		}
	}

	if len(utxos) == 0 {
		return nil, errors.Join(domain.ErrPreconditionFailed, txbuilder.ErrNoLockedOutputs)
	}

	locked := make([]txbuilder.LockedUTXO, 0, len(utxos))
	for _, utxo := range utxos {
		lockedUTXO := txbuilder.LockedUTXO{UTXO: utxo}
		if lock.Type == timelock.P2SH {
			lockedUTXO.PrevTx, err = s.indexer.RawTransaction(ctx, utxo.TxHash)
			if err != nil {
				return nil, fmt.Errorf("failed to get transaction %s: %w", utxo.TxHash, err)
			}
		}

		locked = append(locked, lockedUTXO)
	}

	return locked, nil
}

// restakeCampaigns returns source and target campaigns which must accept the same asset.
func (s *Service) restakeCampaigns(ctx context.Context, req RestakeRequest) (from, to *domain.Campaign, err error) {
	if req.FromCampaignID == req.ToCampaignID {
		return nil, nil, errors.Join(domain.ErrPreconditionFailed, errors.New("restake into the same campaign"))
	}

	if from, err = s.campaign(ctx, req.FromCampaignID); err != nil {
		return nil, nil, err
	}
	if to, err = s.campaign(ctx, req.ToCampaignID); err != nil {
		return nil, nil, err
	}

	if from.AssetKind != to.AssetKind || from.Asset().PriceKey() != to.Asset().PriceKey() {
		return nil, nil, errors.Join(domain.ErrPreconditionFailed,
			fmt.Errorf("campaign %d accepts %s, not %s", to.ID, to.Asset(), from.Asset()))
	}

	return from, to, nil
}

// restakeQuantity returns quantity staked at the lock, restake of unknown vault is rejected.
func (s *Service) restakeQuantity(ctx context.Context, campaign *domain.Campaign, lock *timelock.Lock) (*big.Int, error) {
	quantity, err := s.stakedQuantity(ctx, campaign.ID, lock)
	if err != nil {
		return nil, err
	}
	if !numbers.IsPositive(quantity) {
		return nil, errors.Join(domain.ErrPreconditionFailed,
			fmt.Errorf("no stakings recorded at %s in campaign %d", lock.Address.EncodeAddress(), campaign.ID))
	}

	return quantity, nil
}

// stakedQuantity sums quantity of campaign stakings held by the lock.
func (s *Service) stakedQuantity(ctx context.Context, campaignID int64, lock *timelock.Lock) (*big.Int, error) {
	stakings, err := s.repos.Stakings().GetByCampaign(ctx, campaignID)
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}

	address := lock.Address.EncodeAddress()
	quantity := big.NewInt(0)
	for _, staking := range stakings {
		if staking.ScriptAddress == address && staking.AssetQuantity != nil {
			quantity.Add(quantity, staking.AssetQuantity)
		}
	}

	return quantity, nil
}

// keys returns campaign lock and taproot address of the staker public key.
func (s *Service) keys(campaign *domain.Campaign, pubKey string) (*timelock.Lock, string, error) {
	lock, err := s.deriver.Lock(pubKey, campaign.EndHeight)
	if err != nil {
		return nil, "", errors.Join(domain.ErrPreconditionFailed, err)
	}

	stakerAddress, err := s.deriver.StakerAddress(pubKey)
	if err != nil {
		return nil, "", errors.Join(domain.ErrPreconditionFailed, err)
	}

	return lock, stakerAddress.EncodeAddress(), nil
}

func (s *Service) campaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	campaign, err := s.repos.Campaigns().Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		return nil, errors.Join(domain.ErrInternal, err)
	}

	return campaign, nil
}

// feeRate returns current network fee rate.
func (s *Service) feeRate(ctx context.Context) (*big.Int, error) {
	rate, err := s.estimator.FeeRate(ctx)
	if err != nil {
		return nil, err
	}
	if rate == 0 {
		return nil, errors.Join(domain.ErrUpstream, errors.New("zero fee rate"))
	}

	return new(big.Int).SetUint64(rate), nil
}

// fundingOutput returns plain staker output covering required value.
func (s *Service) fundingOutput(ctx context.Context, stakerAddress string, required *big.Int) (*bitcoin.UTXO, error) {
	utxo, err := s.selector.FindSpendableOutput(ctx, stakerAddress, required)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.Join(domain.ErrPreconditionFailed, err)
		}

		return nil, err
	}

	return utxo, nil
}

// finalize parses and finalizes signed template.
func (s *Service) finalize(signedTemplate string) (*txbuilder.Finalized, error) {
	packet, err := txbuilder.ParseTemplate(signedTemplate)
	if err != nil {
		return nil, errors.Join(domain.ErrPreconditionFailed, err)
	}

	finalized, err := txbuilder.Finalize(packet)
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}

	return finalized, nil
}

// record stores staking of the finalized transaction, transaction is recorded once.
func (s *Service) record(ctx context.Context, finalized *txbuilder.Finalized, staking domain.Staking) (*FinalizeResult, error) {
	_, err := s.repos.Stakings().GetByTxID(ctx, staking.TxID)
	switch {
	case err == nil:
		return nil, errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("transaction %s is already recorded", staking.TxID))
	case !errors.Is(err, domain.ErrNotFound):
		return nil, errors.Join(domain.ErrInternal, err)
	}

	id, err := s.repos.Stakings().Add(ctx, staking)
	if err != nil {
		if errors.Is(err, domain.ErrPreconditionFailed) {
			return nil, err
		}
		return nil, errors.Join(domain.ErrInternal, fmt.Errorf("failed to record staking: %w", err))
	}

	log.WithFields(log.Fields{
		"staking":  id,
		"campaign": staking.CampaignID,
		"tx":       staking.TxID,
		"quantity": staking.AssetQuantity,
	}).Info("staking recorded")

	return newFinalizeResult(finalized, id), nil
}

// classifyBuildError maps transaction builder errors to domain errors.
func classifyBuildError(err error) error {
	switch {
	case errors.Is(err, bitcoin.ErrInsufficientNativeBalance),
		errors.Is(err, bitcoin.ErrInsufficientRuneBalance),
		errors.Is(err, txbuilder.ErrNoLockedOutputs),
		errors.Is(err, txbuilder.ErrMissingAssetOutput),
		errors.Is(err, txbuilder.ErrInvalidAmount),
		errors.Is(err, txbuilder.ErrPSBTInputBuilder):
		return errors.Join(domain.ErrPreconditionFailed, err)
	default:
		return errors.Join(domain.ErrInternal, err)
	}
}

func containsOutpoint(utxos []bitcoin.UTXO, utxo bitcoin.UTXO) bool {
	for _, u := range utxos {
		if u.IsOutpoint(utxo.TxHash, utxo.Index) {
			return true
		}
	}

	return false
}

func newTemplate(template *txbuilder.Template, serviceFee *big.Int, lock *timelock.Lock, stakerAddress string) (*Template, error) {
	templateHex, err := template.Hex()
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}

	return &Template{
		Hex:           templateHex,
		VSize:         template.VSize,
		NetworkFee:    template.NetworkFee,
		ServiceFee:    serviceFee,
		LockedAddress: lock.Address.EncodeAddress(),
		StakerAddress: stakerAddress,
	}, nil
}

func newFinalizeResult(finalized *txbuilder.Finalized, stakingID int64) *FinalizeResult {
	return &FinalizeResult{
		TransactionSize:     finalized.VSize,
		TemplateHex:         finalized.TemplateHex,
		FinalTransactionHex: finalized.Hex(),
		TxID:                finalized.Tx.TxHash().String(),
		StakingID:           stakingID,
	}
}
