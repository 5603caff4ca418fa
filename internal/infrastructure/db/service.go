// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	badgerdb "github.com/BoostyLabs/staking/internal/infrastructure/db/badger"
	sqlitedb "github.com/BoostyLabs/staking/internal/infrastructure/db/sqlite"
)

const (
	sqliteDbFile = "staking.db"
)

var (
	//go:embed sqlite/migration/*
	migrations   embed.FS
	allowedTypes = strings.Join([]string{"badger", "sqlite"}, ",")
)

// ServiceConfig defines storage backend, DbConfig is [baseDir, badger.Logger] for badger
// and [baseDir] for sqlite.
type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	campaignRepo domain.CampaignRepository
	stakingRepo  domain.StakingRepository
	rewardRepo   domain.RewardRepository

	close func() error
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}

		store, err := badgerdb.NewStore(baseDir, logger)
		if err != nil {
			return nil, err
		}

		svc, err := newBadgerService(store)
		if err != nil {
			return nil, errors.Join(err, store.Close())
		}

		return svc, nil

	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("sqlite db config must have 1 element, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %s", err)
		}

		svc, err := newSqliteService(db)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}

		return svc, nil

	default:
		return nil, fmt.Errorf("unsopported db type %s, please select one of %s", config.DbType, allowedTypes)
	}
}

func newBadgerService(store *badgerdb.Store) (*service, error) {
	campaignRepo, err := badgerdb.NewCampaignRepository(store)
	if err != nil {
		return nil, fmt.Errorf("failed to open campaign db: %s", err)
	}
	stakingRepo, err := badgerdb.NewStakingRepository(store)
	if err != nil {
		return nil, fmt.Errorf("failed to open staking db: %s", err)
	}
	rewardRepo, err := badgerdb.NewRewardRepository(store)
	if err != nil {
		return nil, fmt.Errorf("failed to open reward db: %s", err)
	}

	return &service{
		campaignRepo: campaignRepo,
		stakingRepo:  stakingRepo,
		rewardRepo:   rewardRepo,
		close:        store.Close,
	}, nil
}

func newSqliteService(db *sql.DB) (*service, error) {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to init driver: %s", err)
	}

	source, err := iofs.New(migrations, "sqlite/migration")
	if err != nil {
		return nil, fmt.Errorf("failed to embed migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "stakingdb", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to run migrations: %s", err)
	}

	campaignRepo, err := sqlitedb.NewCampaignRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open campaign db: %s", err)
	}
	stakingRepo, err := sqlitedb.NewStakingRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open staking db: %s", err)
	}
	rewardRepo, err := sqlitedb.NewRewardRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open reward db: %s", err)
	}

	return &service{
		campaignRepo: campaignRepo,
		stakingRepo:  stakingRepo,
		rewardRepo:   rewardRepo,
		close:        db.Close,
	}, nil
}

func (s *service) Campaigns() domain.CampaignRepository {
	return s.campaignRepo
}

func (s *service) Stakings() domain.StakingRepository {
	return s.stakingRepo
}

func (s *service) Rewards() domain.RewardRepository {
	return s.rewardRepo
}

func (s *service) Close() {
	if err := s.close(); err != nil {
		log.WithError(err).Warn("failed to close db")
	}
}
