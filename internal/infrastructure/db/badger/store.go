// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package badgerdb

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const (
	storeDir = "staking"

	sequenceBandwidth = 100
)

// Store wraps badgerhold store shared by all repositories with record id sequences.
type Store struct {
	*badgerhold.Store

	sequences map[string]*badger.Sequence
}

// NewStore opens store shared by all repositories, empty baseDir opens in-memory store.
func NewStore(baseDir string, logger badger.Logger) (*Store, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, storeDir)
	}

	db, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open staking store: %s", err)
	}

	store := &Store{Store: db, sequences: make(map[string]*badger.Sequence)}
	for _, name := range []string{"campaign", "staking", "reward"} {
		seq, err := db.Badger().GetSequence([]byte("seq:"+name), sequenceBandwidth)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to lease %s sequence: %w", name, err), store.Close())
		}
		store.sequences[name] = seq
	}

	return store, nil
}

// nextID returns next record id of the kind, ids start from 1.
func (s *Store) nextID(kind string) (uint64, error) {
	seq, ok := s.sequences[kind]
	if !ok {
		return 0, fmt.Errorf("unknown sequence %s", kind)
	}

	for {
		id, err := seq.Next()
		if err != nil {
			return 0, err
		}
		if id > 0 {
			return id, nil
		}
	}
}

// Close releases leased sequences and closes the store.
func (s *Store) Close() error {
	var errs []error
	for _, seq := range s.sequences {
		errs = append(errs, seq.Release())
	}

	return errors.Join(append(errs, s.Store.Close())...)
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badgerhold.DefaultOptions
	opts.Options = badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, err
	}

	return db, nil
}
