// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// RuneID defined the id of the rune.
type RuneID struct {
	Block uint64
	TxID  uint32
}

// NewRuneIDFromString returns RuneID parsed from string in "block:tx" format.
func NewRuneIDFromString(s string) (RuneID, error) {
	block, tx, ok := strings.Cut(s, ":")
	if !ok {
		return RuneID{}, fmt.Errorf("invalid rune id format: %s", s)
	}

	blockNum, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return RuneID{}, err
	}

	txID, err := strconv.ParseUint(tx, 10, 32)
	if err != nil {
		return RuneID{}, err
	}

	return RuneID{Block: blockNum, TxID: uint32(txID)}, nil
}

// Next produces next RuneID from delta encoding.
func (id RuneID) Next(delta RuneID) RuneID {
	if delta.Block == 0 {
		return RuneID{Block: id.Block, TxID: id.TxID + delta.TxID}
	}

	return RuneID{Block: id.Block + delta.Block, TxID: delta.TxID}
}

// IsZero returns true for the zero value which refers to rune etched in the same transaction.
func (id RuneID) IsZero() bool {
	return id.Block == 0 && id.TxID == 0
}

// String returns RuneID as string.
func (id RuneID) String() string {
	return fmt.Sprintf("%d:%d", id.Block, id.TxID)
}

// ToIntSeq returns RuneID as integer sequence.
func (id RuneID) ToIntSeq() []*big.Int {
	return []*big.Int{new(big.Int).SetUint64(id.Block), big.NewInt(int64(id.TxID))}
}
