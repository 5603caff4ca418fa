// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin/signer"
	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

func TestSigner(t *testing.T) {
	s := signer.NewSigner(&chaincfg.MainNetParams)

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pubKey := privKey.PubKey()

	newTx := func() *wire.MsgTx {
		tx := wire.NewMsgTx(2)
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(mustHash("5aa4e4e957b467d07413aa75cdab5e4ce9ff2b714cd81b6af0e90bfee5ff070c"), 0), nil, nil))
		tx.AddTxOut(wire.NewTxOut(43000, mustHex("512015ae9a1bdfb273684b8c1107cc2dccf51f2235d8c79fe8b8e6555ad826415011")))

		return tx
	}

	t.Run("simple taproot", func(t *testing.T) {
		taprootAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(txscript.ComputeTaprootKeyNoScript(pubKey)),
			&chaincfg.MainNetParams)
		require.NoError(t, err)

		taprootAddrAddrScript, err := txscript.PayToAddrScript(taprootAddr)
		require.NoError(t, err)

		packet, err := psbt.NewFromUnsignedTx(newTx())
		require.NoError(t, err)

		packet.Inputs[0].WitnessUtxo = wire.NewTxOut(43000, taprootAddrAddrScript)
		packet.Inputs[0].SighashType = txscript.SigHashAll
		packet.Inputs[0].TaprootInternalKey = pubKey.SerializeCompressed()[1:]

		signedPSBTBytes, err := s.SignTaproot(signer.SignParams{
			SerializedPSBT: serialize(t, packet),
			Inputs:         []int{0},
			PrivateKey:     privKey,
		})
		require.NoError(t, err)

		signedPSBT, err := psbt.NewFromRawBytes(bytes.NewReader(signedPSBTBytes), false)
		require.NoError(t, err)
		require.NoError(t, psbt.Finalize(signedPSBT, 0))

		signedTx, err := psbt.Extract(signedPSBT)
		require.NoError(t, err)

		prevFetcher := txscript.NewCannedPrevOutputFetcher(copyBytes(packet.Inputs[0].WitnessUtxo.PkScript), packet.Inputs[0].WitnessUtxo.Value)
		sigHashes := txscript.NewTxSigHashes(signedTx, prevFetcher)

		vm, err := txscript.NewEngine(
			taprootAddrAddrScript, signedTx, 0, txscript.StandardVerifyFlags,
			nil, sigHashes, 43000, prevFetcher,
		)
		require.NoError(t, err)
		require.NoError(t, vm.Execute())
	})

	t.Run("locked script", func(t *testing.T) {
		const lockHeight = 850000

		for _, scriptType := range []timelock.ScriptType{timelock.P2SH, timelock.P2WSH} {
			lock, err := timelock.NewDeriver(&chaincfg.MainNetParams, scriptType).
				Lock(hex.EncodeToString(pubKey.SerializeCompressed()), lockHeight)
			require.NoError(t, err)

			prevTx := wire.NewMsgTx(2)
			prevTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(mustHash("5aa4e4e957b467d07413aa75cdab5e4ce9ff2b714cd81b6af0e90bfee5ff070c"), 1), nil, nil))
			prevTx.AddTxOut(wire.NewTxOut(50000, lock.PkScript))

			tx := wire.NewMsgTx(2)
			prevHash := prevTx.TxHash()
			txIn := wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil)
			txIn.Sequence = wire.MaxTxInSequenceNum - 1
			tx.AddTxIn(txIn)
			tx.AddTxOut(wire.NewTxOut(43000, mustHex("512015ae9a1bdfb273684b8c1107cc2dccf51f2235d8c79fe8b8e6555ad826415011")))
			tx.LockTime = lockHeight

			packet, err := psbt.NewFromUnsignedTx(tx)
			require.NoError(t, err)

			packet.Inputs[0].SighashType = txscript.SigHashAll
			if scriptType == timelock.P2WSH {
				packet.Inputs[0].WitnessUtxo = prevTx.TxOut[0]
				packet.Inputs[0].WitnessScript = lock.Script
			} else {
				packet.Inputs[0].NonWitnessUtxo = prevTx
				packet.Inputs[0].RedeemScript = lock.Script
			}

			signedPSBTBytes, err := s.SignLocked(signer.SignParams{
				SerializedPSBT: serialize(t, packet),
				Inputs:         []int{0},
				PrivateKey:     privKey,
			})
			require.NoError(t, err)

			signedPSBT, err := psbt.NewFromRawBytes(bytes.NewReader(signedPSBTBytes), false)
			require.NoError(t, err)
			require.Len(t, signedPSBT.Inputs[0].PartialSigs, 1)
			require.Equal(t, pubKey.SerializeCompressed(), signedPSBT.Inputs[0].PartialSigs[0].PubKey)

			sigScript, witness, err := lock.Spend(signedPSBT.Inputs[0].PartialSigs[0].Signature)
			require.NoError(t, err)

			signedTx := signedPSBT.UnsignedTx.Copy()
			signedTx.TxIn[0].SignatureScript = sigScript
			signedTx.TxIn[0].Witness = witness

			prevFetcher := txscript.NewCannedPrevOutputFetcher(lock.PkScript, 50000)
			vm, err := txscript.NewEngine(
				lock.PkScript, signedTx, 0, txscript.StandardVerifyFlags,
				nil, txscript.NewTxSigHashes(signedTx, prevFetcher), 50000, prevFetcher,
			)
			require.NoError(t, err)
			require.NoError(t, vm.Execute(), scriptType)
		}
	})

	t.Run("errors", func(t *testing.T) {
		packet, err := psbt.NewFromUnsignedTx(newTx())
		require.NoError(t, err)

		_, err = s.SignTaproot(signer.SignParams{SerializedPSBT: serialize(t, packet), Inputs: []int{0}, PrivateKey: privKey})
		require.ErrorIs(t, err, signer.ErrMissingPrevOutput)

		packet.Inputs[0].WitnessUtxo = wire.NewTxOut(43000, mustHex("512015ae9a1bdfb273684b8c1107cc2dccf51f2235d8c79fe8b8e6555ad826415011"))

		_, err = s.SignTaproot(signer.SignParams{SerializedPSBT: serialize(t, packet), Inputs: []int{1}, PrivateKey: privKey})
		require.ErrorIs(t, err, signer.ErrInvalidInputIndex)

		_, err = s.SignLocked(signer.SignParams{SerializedPSBT: serialize(t, packet), Inputs: []int{0}, PrivateKey: privKey})
		require.ErrorIs(t, err, signer.ErrNotLockedInput)
	})
}

func serialize(t *testing.T, packet *psbt.Packet) []byte {
	w := bytes.NewBuffer(nil)
	require.NoError(t, packet.Serialize(w))

	return w.Bytes()
}

func mustHex(s string) []byte {
	b, _ := hex.DecodeString(s)

	return b
}

func mustHash(s string) *chainhash.Hash {
	h, _ := chainhash.NewHashFromStr(s)

	return h
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)

	return c
}
