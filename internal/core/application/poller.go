// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/bitcoin/txbuilder"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
)

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Checked   int
	Confirmed int
	Failed    int
}

// ConfirmationPoller attaches confirmation height to pending stakings.
type ConfirmationPoller struct {
	repos    ports.RepoManager
	indexer  ports.Indexer
	selector *Selector
	throttle time.Duration
}

// NewConfirmationPoller is a constructor for ConfirmationPoller.
// Throttle pauses between stakings to spare indexer rate limits.
func NewConfirmationPoller(repos ports.RepoManager, indexer ports.Indexer, selector *Selector, throttle time.Duration) *ConfirmationPoller {
	return &ConfirmationPoller{
		repos:    repos,
		indexer:  indexer,
		selector: selector,
		throttle: throttle,
	}
}

// Reconcile looks up locked output of every pending staking and stores its confirmation height.
// Stakings whose locked output is gone are confirmed by the stake transaction height.
// Failure of one staking is logged and does not stop the others.
func (p *ConfirmationPoller) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	pending, err := p.repos.Stakings().GetPending(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list pending stakings: %w", err)
	}

	campaigns := make(map[int64]*domain.Campaign)
	for i, staking := range pending {
		if i > 0 && p.throttle > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(p.throttle):
			}
		}

		report.Checked++
		confirmed, err := p.reconcile(ctx, campaigns, staking)
		if err != nil {
			report.Failed++
			log.WithError(err).WithFields(log.Fields{
				"staking":  staking.ID,
				"campaign": staking.CampaignID,
				"tx":       staking.TxID,
			}).Warn("failed to reconcile staking")

			continue
		}
		if confirmed {
			report.Confirmed++
		}
	}

	return report, nil
}

// reconcile returns true if staking got confirmed.
func (p *ConfirmationPoller) reconcile(ctx context.Context, campaigns map[int64]*domain.Campaign, staking domain.Staking) (bool, error) {
	campaign, ok := campaigns[staking.CampaignID]
	if !ok {
		var err error
		campaign, err = p.repos.Campaigns().Get(ctx, staking.CampaignID)
		if err != nil {
			return false, err
		}
		campaigns[staking.CampaignID] = campaign
	}

	listing, err := assetListing(campaign.Asset())
	if err != nil {
		return false, err
	}

	var height uint32
	utxo, err := p.selector.FindSpecificOutput(ctx, listing, staking.ScriptAddress, staking.TxID, txbuilder.LockedOutput)
	switch {
	case err == nil:
		height = uint32(utxo.Height)
	case errors.Is(err, domain.ErrNotFound):
		// locked output is already spent or the stake was never broadcast.
		height, err = p.indexer.TransactionHeight(ctx, staking.TxID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}

			return false, err
		}
	default:
		return false, err
	}
	if height == 0 {
		return false, nil
	}

	if err = p.repos.Stakings().SetConfirmedHeight(ctx, staking.ID, height); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"staking": staking.ID,
		"height":  height,
		"spent":   utxo == nil,
	}).Info("staking confirmed")

	return true, nil
}

// assetListing returns indexer listing holding outputs of the asset.
func assetListing(asset domain.Asset) (ports.Listing, error) {
	switch asset.Kind {
	case domain.AssetBTC:
		return ports.Listing{Kind: ports.ListingPlain}, nil
	case domain.AssetBRC20, domain.AssetGeneric:
		return ports.Listing{Kind: ports.ListingInscriptions}, nil
	case domain.AssetRune:
		return ports.Listing{Kind: ports.ListingRunes, RuneID: asset.RuneID}, nil
	default:
		return ports.Listing{}, errors.Join(domain.ErrInternal, fmt.Errorf("unknown asset kind %s", asset.Kind))
	}
}
