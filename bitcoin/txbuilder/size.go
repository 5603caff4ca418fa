// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"

	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

// maxECDSASigSize defines the largest DER signature with sighash byte.
const maxECDSASigSize = 73

// EstimateVirtualSize returns worst case virtual size of the signed transaction with
// given amount of staker taproot inputs, locked inputs spent with lock and outputs.
// Change output is accounted if changeScriptSize is positive.
func EstimateVirtualSize(numTaprootIns int, lock *timelock.Lock, numLockedIns int, txOuts []*wire.TxOut, changeScriptSize int) int64 {
	vsize := txsizes.EstimateVirtualSize(0, numTaprootIns, 0, 0, txOuts, changeScriptSize)
	if numLockedIns == 0 || lock == nil {
		return int64(vsize)
	}

	baseSize, witnessWeight := lockedInputSize(lock)

	return int64(vsize) + int64(numLockedIns*baseSize) +
		int64((numLockedIns*witnessWeight+blockchain.WitnessScaleFactor-1)/blockchain.WitnessScaleFactor)
}

// lockedInputSize returns serialize size of the non-witness part and witness weight of the locked input.
//
//	P2SH:  outpoint, varint, <sig> <redeemScript>, sequence; empty witness marker.
//	P2WSH: outpoint, empty script, sequence; witness [<sig>, <witnessScript>].
func lockedInputSize(lock *timelock.Lock) (baseSize, witnessWeight int) {
	scriptLen := len(lock.Script)

	switch lock.Type {
	case timelock.P2WSH:
		baseSize = 32 + 4 + 1 + 4
		witnessWeight = wire.VarIntSerializeSize(2) +
			wire.VarIntSerializeSize(maxECDSASigSize) + maxECDSASigSize +
			wire.VarIntSerializeSize(uint64(scriptLen)) + scriptLen
	default:
		sigScriptSize := 1 + maxECDSASigSize + pushDataSize(scriptLen) + scriptLen
		baseSize = 32 + 4 + wire.VarIntSerializeSize(uint64(sigScriptSize)) + sigScriptSize + 4
		witnessWeight = 1
	}

	return baseSize, witnessWeight
}

// pushDataSize returns size of the push opcode for data of provided length.
func pushDataSize(length int) int {
	switch {
	case length < 76:
		return 1
	case length <= 0xff:
		return 2
	case length <= 0xffff:
		return 3
	}

	return 5
}

// VirtualSize returns virtual size of the final transaction.
func VirtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))

	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}
