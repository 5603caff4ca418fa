// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"cmp"
	"math/big"
	"slices"

	"github.com/BoostyLabs/staking/internal/numbers"
)

// Edict defines transfer values of the rune protocol.
type Edict struct {
	RuneID RuneID
	Amount *big.Int
	Output uint32
}

// ParseEdicts parses vector of delta encoded Edicts from number sequence.
func ParseEdicts(seq []*big.Int) ([]Edict, error) {
	if len(seq)%4 != 0 {
		return nil, ErrCenotaph
	}

	var prevRuneID RuneID
	edicts := make([]Edict, 0, len(seq)/4)
	for i := 0; i < len(seq); i += 4 {
		block, tx, amount, output := seq[i], seq[i+1], seq[i+2], seq[i+3]
		if !block.IsUint64() || !tx.IsUint64() || tx.Uint64() > uint64(^uint32(0)) ||
			!output.IsUint64() || output.Uint64() > uint64(^uint32(0)) || numbers.IsGreater(amount, numbers.MaxUInt128Value) {
			return nil, ErrCenotaph
		}

		edict := Edict{
			RuneID: prevRuneID.Next(RuneID{
				Block: block.Uint64(),
				TxID:  uint32(tx.Uint64()),
			}),
			Amount: amount,
			Output: uint32(output.Uint64()),
		}

		prevRuneID = edict.RuneID
		edicts = append(edicts, edict)
	}

	return edicts, nil
}

// ToIntSeq returns Edict as sequence on integers.
func (edict Edict) ToIntSeq() []*big.Int {
	return append(edict.RuneID.ToIntSeq(), new(big.Int).Set(edict.Amount), big.NewInt(int64(edict.Output)))
}

// SortEdicts sorts edicts by block number and transaction id.
func SortEdicts(edicts []Edict) {
	slices.SortStableFunc(edicts, func(a, b Edict) int {
		if c := cmp.Compare(a.RuneID.Block, b.RuneID.Block); c != 0 {
			return c
		}

		return cmp.Compare(a.RuneID.TxID, b.RuneID.TxID)
	})
}

// UseDelta converts list of sorted Edicts using delta encoding.
func UseDelta(sortedEdicts []Edict) []Edict {
	var (
		deltaEdicts = make([]Edict, len(sortedEdicts))
		previous    RuneID
	)

	for idx, edict := range sortedEdicts {
		delta := RuneID{Block: edict.RuneID.Block - previous.Block, TxID: edict.RuneID.TxID}
		if delta.Block == 0 {
			delta.TxID = edict.RuneID.TxID - previous.TxID
		}

		deltaEdicts[idx] = Edict{
			RuneID: delta,
			Amount: edict.Amount,
			Output: edict.Output,
		}

		previous = edict.RuneID
	}

	return deltaEdicts
}

// EdictsToIntSeq converts list of Edicts into in list of integers.
// The passed slice is left untouched.
func EdictsToIntSeq(edicts []Edict) []*big.Int {
	sorted := slices.Clone(edicts)
	SortEdicts(sorted)

	sequence := make([]*big.Int, 0, len(sorted)*4)
	for _, edict := range UseDelta(sorted) {
		sequence = append(sequence, edict.ToIntSeq()...)
	}

	return sequence
}
