// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/BoostyLabs/staking/internal/infrastructure/db/sqlite/sqlc/queries"
)

const driverName = "sqlite"

// OpenDb opens sqlite database file, parent directory is created if missing.
func OpenDb(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %v", err)
		}
	}

	db, err := sql.Open(driverName, dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	return db, nil
}

func execTx(ctx context.Context, db *sql.DB, txBody func(*queries.Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	qtx := queries.New(db).WithTx(tx)

	defer func() {
		if p := recover(); p != nil {
			// nolint:errcheck
			tx.Rollback()
			panic(p)
		}
	}()

	if err := txBody(qtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func parseQuantity(s string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored quantity %q", s)
	}

	return value, nil
}

func toNullInt64[T uint32 | int64](v *T) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullUint32(v sql.NullInt64) *uint32 {
	if !v.Valid {
		return nil
	}

	value := uint32(v.Int64)
	return &value
}
