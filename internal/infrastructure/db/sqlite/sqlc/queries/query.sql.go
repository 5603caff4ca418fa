// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package queries

import (
	"context"
	"database/sql"
)

const advanceCampaignLastRewardHeight = `-- name: AdvanceCampaignLastRewardHeight :execrows
UPDATE campaign SET last_reward_height = ? WHERE id = ? AND last_reward_height = ?
`

type AdvanceCampaignLastRewardHeightParams struct {
	LastRewardHeight   int64
	ID                 int64
	LastRewardHeight_2 int64
}

func (q *Queries) AdvanceCampaignLastRewardHeight(ctx context.Context, arg AdvanceCampaignLastRewardHeightParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, advanceCampaignLastRewardHeight, arg.LastRewardHeight, arg.ID, arg.LastRewardHeight_2)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getCampaign = `-- name: GetCampaign :one
SELECT id, asset_kind, name, rune_id, total_reward, start_height, end_height, last_reward_height, created_at FROM campaign WHERE id = ?
`

func (q *Queries) GetCampaign(ctx context.Context, id int64) (Campaign, error) {
	row := q.db.QueryRowContext(ctx, getCampaign, id)
	var i Campaign
	err := row.Scan(
		&i.ID,
		&i.AssetKind,
		&i.Name,
		&i.RuneID,
		&i.TotalReward,
		&i.StartHeight,
		&i.EndHeight,
		&i.LastRewardHeight,
		&i.CreatedAt,
	)
	return i, err
}

const getReward = `-- name: GetReward :one
SELECT id, campaign_id, wallet_address, accrued, updated_at FROM reward WHERE campaign_id = ? AND wallet_address = ?
`

type GetRewardParams struct {
	CampaignID    int64
	WalletAddress string
}

func (q *Queries) GetReward(ctx context.Context, arg GetRewardParams) (Reward, error) {
	row := q.db.QueryRowContext(ctx, getReward, arg.CampaignID, arg.WalletAddress)
	var i Reward
	err := row.Scan(
		&i.ID,
		&i.CampaignID,
		&i.WalletAddress,
		&i.Accrued,
		&i.UpdatedAt,
	)
	return i, err
}

const getStaking = `-- name: GetStaking :one
SELECT id, campaign_id, wallet_address, script_address, source_tx_id, source_vout, tx_id, asset_quantity, confirmed_height, created_at FROM staking WHERE id = ?
`

func (q *Queries) GetStaking(ctx context.Context, id int64) (Staking, error) {
	row := q.db.QueryRowContext(ctx, getStaking, id)
	return scanStaking(row)
}

const getStakingByTxID = `-- name: GetStakingByTxID :one
SELECT id, campaign_id, wallet_address, script_address, source_tx_id, source_vout, tx_id, asset_quantity, confirmed_height, created_at FROM staking WHERE tx_id = ?
`

func (q *Queries) GetStakingByTxID(ctx context.Context, txID string) (Staking, error) {
	row := q.db.QueryRowContext(ctx, getStakingByTxID, txID)
	return scanStaking(row)
}

const insertCampaign = `-- name: InsertCampaign :one
INSERT INTO campaign (asset_kind, name, rune_id, total_reward, start_height, end_height, last_reward_height, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertCampaignParams struct {
	AssetKind        string
	Name             string
	RuneID           string
	TotalReward      string
	StartHeight      int64
	EndHeight        int64
	LastRewardHeight int64
	CreatedAt        int64
}

func (q *Queries) InsertCampaign(ctx context.Context, arg InsertCampaignParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertCampaign,
		arg.AssetKind,
		arg.Name,
		arg.RuneID,
		arg.TotalReward,
		arg.StartHeight,
		arg.EndHeight,
		arg.LastRewardHeight,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertStaking = `-- name: InsertStaking :one
INSERT INTO staking (campaign_id, wallet_address, script_address, source_tx_id, source_vout, tx_id, asset_quantity, confirmed_height, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertStakingParams struct {
	CampaignID      int64
	WalletAddress   string
	ScriptAddress   string
	SourceTxID      string
	SourceVout      sql.NullInt64
	TxID            string
	AssetQuantity   string
	ConfirmedHeight sql.NullInt64
	CreatedAt       int64
}

func (q *Queries) InsertStaking(ctx context.Context, arg InsertStakingParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertStaking,
		arg.CampaignID,
		arg.WalletAddress,
		arg.ScriptAddress,
		arg.SourceTxID,
		arg.SourceVout,
		arg.TxID,
		arg.AssetQuantity,
		arg.ConfirmedHeight,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listCampaigns = `-- name: ListCampaigns :many
SELECT id, asset_kind, name, rune_id, total_reward, start_height, end_height, last_reward_height, created_at FROM campaign ORDER BY id
`

func (q *Queries) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := q.db.QueryContext(ctx, listCampaigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Campaign
	for rows.Next() {
		var i Campaign
		if err := rows.Scan(
			&i.ID,
			&i.AssetKind,
			&i.Name,
			&i.RuneID,
			&i.TotalReward,
			&i.StartHeight,
			&i.EndHeight,
			&i.LastRewardHeight,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingStakings = `-- name: ListPendingStakings :many
SELECT id, campaign_id, wallet_address, script_address, source_tx_id, source_vout, tx_id, asset_quantity, confirmed_height, created_at FROM staking WHERE confirmed_height IS NULL ORDER BY id
`

func (q *Queries) ListPendingStakings(ctx context.Context) ([]Staking, error) {
	rows, err := q.db.QueryContext(ctx, listPendingStakings)
	if err != nil {
		return nil, err
	}
	return scanStakings(rows)
}

const listRewardsByCampaign = `-- name: ListRewardsByCampaign :many
SELECT id, campaign_id, wallet_address, accrued, updated_at FROM reward WHERE campaign_id = ? ORDER BY id
`

func (q *Queries) ListRewardsByCampaign(ctx context.Context, campaignID int64) ([]Reward, error) {
	rows, err := q.db.QueryContext(ctx, listRewardsByCampaign, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reward
	for rows.Next() {
		var i Reward
		if err := rows.Scan(
			&i.ID,
			&i.CampaignID,
			&i.WalletAddress,
			&i.Accrued,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStakingsByCampaign = `-- name: ListStakingsByCampaign :many
SELECT id, campaign_id, wallet_address, script_address, source_tx_id, source_vout, tx_id, asset_quantity, confirmed_height, created_at FROM staking WHERE campaign_id = ? ORDER BY id
`

func (q *Queries) ListStakingsByCampaign(ctx context.Context, campaignID int64) ([]Staking, error) {
	rows, err := q.db.QueryContext(ctx, listStakingsByCampaign, campaignID)
	if err != nil {
		return nil, err
	}
	return scanStakings(rows)
}

const setStakingConfirmedHeight = `-- name: SetStakingConfirmedHeight :execrows
UPDATE staking SET confirmed_height = ? WHERE id = ? AND confirmed_height IS NULL
`

type SetStakingConfirmedHeightParams struct {
	ConfirmedHeight sql.NullInt64
	ID              int64
}

func (q *Queries) SetStakingConfirmedHeight(ctx context.Context, arg SetStakingConfirmedHeightParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setStakingConfirmedHeight, arg.ConfirmedHeight, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertReward = `-- name: UpsertReward :exec
INSERT INTO reward (campaign_id, wallet_address, accrued, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (campaign_id, wallet_address) DO UPDATE SET
    accrued = excluded.accrued,
    updated_at = excluded.updated_at
`

type UpsertRewardParams struct {
	CampaignID    int64
	WalletAddress string
	Accrued       string
	UpdatedAt     int64
}

func (q *Queries) UpsertReward(ctx context.Context, arg UpsertRewardParams) error {
	_, err := q.db.ExecContext(ctx, upsertReward,
		arg.CampaignID,
		arg.WalletAddress,
		arg.Accrued,
		arg.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStaking(row rowScanner) (Staking, error) {
	var i Staking
	err := row.Scan(
		&i.ID,
		&i.CampaignID,
		&i.WalletAddress,
		&i.ScriptAddress,
		&i.SourceTxID,
		&i.SourceVout,
		&i.TxID,
		&i.AssetQuantity,
		&i.ConfirmedHeight,
		&i.CreatedAt,
	)
	return i, err
}

func scanStakings(rows *sql.Rows) ([]Staking, error) {
	defer rows.Close()
	var items []Staking
	for rows.Next() {
		i, err := scanStaking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
