// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/internal/core/ports"
)

// BackgroundJob reconciles pending stakings and then computes rewards.
type BackgroundJob struct {
	poller  *ConfirmationPoller
	engine  *RewardEngine
	indexer ports.Indexer
}

// NewBackgroundJob is a constructor for BackgroundJob.
func NewBackgroundJob(poller *ConfirmationPoller, engine *RewardEngine, indexer ports.Indexer) *BackgroundJob {
	return &BackgroundJob{
		poller:  poller,
		engine:  engine,
		indexer: indexer,
	}
}

// Run executes one background iteration, failures are logged and never returned.
// Rewards are computed up to tip - 1 since the indexer reports height one block ahead.
func (j *BackgroundJob) Run(ctx context.Context) {
	report, err := j.poller.Reconcile(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to reconcile stakings")
	} else if report.Checked > 0 {
		log.WithFields(log.Fields{
			"checked":   report.Checked,
			"confirmed": report.Confirmed,
			"failed":    report.Failed,
		}).Debug("stakings reconciled")
	}

	tip, err := j.indexer.BlockHeight(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to get chain tip")
		return
	}
	if tip == 0 {
		return
	}

	if err = j.engine.Compute(ctx, tip-1); err != nil {
		log.WithError(err).Warn("failed to compute rewards")
	}
}
