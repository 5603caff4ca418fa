// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin/txbuilder"
)

func TestInputsHelpingKey(t *testing.T) {
	t.Run("InputsHelpingKeyFromBytes", func(t *testing.T) {
		tests := []struct {
			bytes []byte
			key   txbuilder.InputsHelpingKey
			err   error
		}{
			{[]byte{txbuilder.StakerInputsHelpingKey.Byte()}, txbuilder.StakerInputsHelpingKey, nil},
			{[]byte{txbuilder.LockedInputsHelpingKey.Byte()}, txbuilder.LockedInputsHelpingKey, nil},
			{[]byte{}, 0, txbuilder.ErrUnknownInputsHelpingKey},
			{[]byte{0x50}, 0, txbuilder.ErrUnknownInputsHelpingKey},
			{[]byte{0x01, 0x02}, 0, txbuilder.ErrUnknownInputsHelpingKey},
		}
		for _, test := range tests {
			key, err := txbuilder.InputsHelpingKeyFromBytes(test.bytes)
			require.Equal(t, test.err, err)
			require.Equal(t, test.key, key)
		}
	})

	t.Run("Byte&Bytes", func(t *testing.T) {
		tests := []struct {
			key   txbuilder.InputsHelpingKey
			byte  byte
			bytes []byte
		}{
			{txbuilder.StakerInputsHelpingKey, 0x10, []byte{0x10}},
			{txbuilder.LockedInputsHelpingKey, 0x30, []byte{0x30}},
		}
		for _, test := range tests {
			require.Equal(t, test.byte, test.key.Byte())
			require.Equal(t, test.bytes, test.key.Bytes())
		}
	})

	t.Run("ExtractInputIndexes", func(t *testing.T) {
		packet := &psbt.Packet{Unknowns: []*psbt.Unknown{
			{Key: txbuilder.LockedInputsHelpingKey.Bytes(), Value: []byte{0, 1, 2}},
			{Key: txbuilder.StakerInputsHelpingKey.Bytes(), Value: []byte{3}},
		}}

		indexes, err := txbuilder.ExtractInputIndexes(packet)
		require.NoError(t, err)
		require.Equal(t, map[txbuilder.InputsHelpingKey][]int{
			txbuilder.LockedInputsHelpingKey: {0, 1, 2},
			txbuilder.StakerInputsHelpingKey: {3},
		}, indexes)

		packet.Unknowns = append(packet.Unknowns, &psbt.Unknown{Key: []byte{0x20}, Value: []byte{4}})
		_, err = txbuilder.ExtractInputIndexes(packet)
		require.ErrorIs(t, err, txbuilder.ErrUnknownInputsHelpingKey)
	})
}
