// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/internal/cache"
	"github.com/BoostyLabs/staking/internal/config"
	"github.com/BoostyLabs/staking/internal/core/application"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/infrastructure/db"
	"github.com/BoostyLabs/staking/internal/infrastructure/mempool"
	"github.com/BoostyLabs/staking/internal/infrastructure/node"
	scheduler "github.com/BoostyLabs/staking/internal/infrastructure/scheduler/gocron"
	"github.com/BoostyLabs/staking/internal/infrastructure/unisat"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
		"network": cfg.Network,
	}).Info("starting stakingd...")

	dbConfig := []any{cfg.DbDir()}
	if cfg.DbType == "badger" {
		dbConfig = append(dbConfig, log.StandardLogger())
	}
	repos, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: dbConfig,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	indexer := unisat.NewClient(cfg.UnisatURL, cfg.UnisatToken, cfg.Timeout())
	estimator := mempool.NewEstimator(cfg.MempoolURL, cfg.StaticFeeRate, cfg.Timeout())

	var (
		nodeSvc    ports.Node
		nodeClient *node.Client
	)
	if cfg.NodeHost != "" {
		nodeClient, err = node.NewClient(node.Config{
			Host:       cfg.NodeHost,
			User:       cfg.NodeUser,
			Pass:       cfg.NodePass,
			DisableTLS: cfg.NodeDisableTLS,
			Timeout:    cfg.Timeout(),
		})
		if err != nil {
			log.WithError(err).Fatal("failed to init node client")
		}
		nodeSvc = nodeClient
	} else {
		log.Warn("node is not configured, broadcast is disabled")
	}

	prices := cache.NewTTL[string, *big.Int](cfg.PriceTTL(), nil)
	fees := application.NewFeeModel(indexer, prices, cfg.ServiceFeeFloor, cfg.ServiceFeeRateBps)

	svc := application.NewService(application.ServiceConfig{
		NetworkParams:   cfg.NetworkParams(),
		ScriptType:      cfg.ScriptType(),
		TreasuryAddress: cfg.TreasuryAddress,
		PageSize:        int(cfg.IndexerPageSize),
	}, repos, indexer, fees, estimator, nodeSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if campaigns, err := svc.ListCampaigns(ctx); err != nil {
		log.WithError(err).Warn("failed to list campaigns")
	} else {
		log.Infof("serving %d campaigns", len(campaigns))
	}

	poller := application.NewConfirmationPoller(repos, indexer, svc.Selector(), cfg.PollerThrottle())
	engine := application.NewRewardEngine(repos)
	job := application.NewBackgroundJob(poller, engine, indexer)

	schedulerSvc := scheduler.NewScheduler()
	interval := time.Duration(cfg.BackgroundInterval) * time.Second
	if err := schedulerSvc.Every(interval, func() { job.Run(ctx) }); err != nil {
		log.WithError(err).Fatal("failed to schedule background job")
	}
	schedulerSvc.Start()

	log.RegisterExitHandler(cancel)
	log.RegisterExitHandler(schedulerSvc.Stop)
	if nodeClient != nil {
		log.RegisterExitHandler(nodeClient.Close)
	}
	log.RegisterExitHandler(repos.Close)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down stakingd...")
	log.Exit(0)
}
