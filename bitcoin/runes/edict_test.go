// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin/runes"
)

func TestEdicts(t *testing.T) {
	edicts := []runes.Edict{
		{RuneID: runes.RuneID{Block: 2585359, TxID: 100}, Amount: big.NewInt(2000), Output: 2},
		{RuneID: runes.RuneID{Block: 2585359, TxID: 84}, Amount: big.NewInt(1879), Output: 1},
		{RuneID: runes.RuneID{Block: 2585360, TxID: 5}, Amount: big.NewInt(3000), Output: 0},
	}
	sequence := []*big.Int{
		big.NewInt(2585359), big.NewInt(84), big.NewInt(1879), big.NewInt(1),
		big.NewInt(0), big.NewInt(16), big.NewInt(2000), big.NewInt(2),
		big.NewInt(1), big.NewInt(5), big.NewInt(3000), big.NewInt(0),
	}

	t.Run("EdictsToIntSeq", func(t *testing.T) {
		original := append([]runes.Edict(nil), edicts...)

		require.Equal(t, sequence, runes.EdictsToIntSeq(edicts))
		require.Equal(t, original, edicts)
	})

	t.Run("ParseEdicts", func(t *testing.T) {
		parsed, err := runes.ParseEdicts(sequence)
		require.NoError(t, err)
		require.Len(t, parsed, 3)
		require.Equal(t, runes.RuneID{Block: 2585359, TxID: 84}, parsed[0].RuneID)
		require.Equal(t, runes.RuneID{Block: 2585359, TxID: 100}, parsed[1].RuneID)
		require.Equal(t, runes.RuneID{Block: 2585360, TxID: 5}, parsed[2].RuneID)
		require.EqualValues(t, 0, parsed[2].Output)
	})

	t.Run("ParseEdicts (truncated)", func(t *testing.T) {
		_, err := runes.ParseEdicts(sequence[:5])
		require.ErrorIs(t, err, runes.ErrCenotaph)
	})

	t.Run("ParseEdicts (amount overflow)", func(t *testing.T) {
		overflow := new(big.Int).Lsh(big.NewInt(1), 128)
		_, err := runes.ParseEdicts([]*big.Int{big.NewInt(1), big.NewInt(1), overflow, big.NewInt(0)})
		require.ErrorIs(t, err, runes.ErrCenotaph)
	})
}
