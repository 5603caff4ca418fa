// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package queries

import (
	"database/sql"
)

type Campaign struct {
	ID               int64
	AssetKind        string
	Name             string
	RuneID           string
	TotalReward      string
	StartHeight      int64
	EndHeight        int64
	LastRewardHeight int64
	CreatedAt        int64
}

type Reward struct {
	ID            int64
	CampaignID    int64
	WalletAddress string
	Accrued       string
	UpdatedAt     int64
}

type Staking struct {
	ID              int64
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
