// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

var (
	// ErrPSBTInputBuilder defines errors class for prepare address data method.
	ErrPSBTInputBuilder = errors.New("prepare address data")
	// ErrPubKeyMismatch defines that public key does not control the address.
	ErrPubKeyMismatch = errors.New("public key does not match address")
	// ErrMissingPrevTx defines that previous transaction is required to spend legacy script output.
	ErrMissingPrevTx = errors.New("previous transaction is required for p2sh input")
)

const (
	// P2SH defines P2SH (script hash) script type over which the address is built.
	P2SH = "P2SH"
	// P2WSH defines P2WSH (witness script hash) script type over which the address is built.
	P2WSH = "P2WSH"
	// P2TR defines P2TR (taproot) script type over which the address is built.
	P2TR = "P2TR"
)

// PSBTInputBuilder is a helping tool to prepare psbt input based on address type.
type PSBTInputBuilder struct {
	scriptType  string
	xOnlyPubKey []byte
	pkScript    []byte
	lock        *timelock.Lock
}

// NewPSBTInputBuilder is a constructor for PSBTInputBuilder of staker key-path inputs.
func NewPSBTInputBuilder(pubKey, address string, networkParams *chaincfg.Params) (pib *PSBTInputBuilder, err error) {
	pib = &PSBTInputBuilder{}

	defer func(err *error) {
		if err != nil && *err != nil {
			*err = errors.Join(ErrPSBTInputBuilder, *err)
		}
	}(&err)

	publicKeyBytes, err := hex.DecodeString(pubKey)
	if err != nil {
		return pib, err
	}

	publicKey, err := btcec.ParsePubKey(publicKeyBytes)
	if err != nil {
		return pib, err
	}

	addr, err := btcutil.DecodeAddress(address, networkParams)
	if err != nil {
		return pib, err
	}
	if !addr.IsForNet(networkParams) {
		return pib, fmt.Errorf("address %s is not for %s", address, networkParams.Name)
	}

	taprootAddr, ok := addr.(*btcutil.AddressTaproot)
	if !ok {
		return pib, btcutil.ErrUnknownAddressType
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(publicKey)
	if !bytes.Equal(taprootAddr.WitnessProgram(), schnorr.SerializePubKey(outputKey)) {
		return pib, ErrPubKeyMismatch
	}

	pib.scriptType = P2TR
	pib.xOnlyPubKey = schnorr.SerializePubKey(publicKey)
	pib.pkScript, err = txscript.PayToAddrScript(addr)
	if err != nil {
		return pib, err
	}

	return pib, nil
}

// NewLockedPSBTInputBuilder is a constructor for PSBTInputBuilder of time-locked inputs.
func NewLockedPSBTInputBuilder(lock *timelock.Lock) *PSBTInputBuilder {
	pib := &PSBTInputBuilder{
		pkScript: lock.PkScript,
		lock:     lock,
	}

	switch lock.Type {
	case timelock.P2WSH:
		pib.scriptType = P2WSH
	default:
		pib.scriptType = P2SH
	}

	return pib
}

// PrepareInput updates input with required data based on address type.
func (pib *PSBTInputBuilder) PrepareInput(input *psbt.PInput, utxo *bitcoin.UTXO, prevTx *wire.MsgTx) error {
	pkScript := utxo.Script
	if len(pkScript) == 0 {
		pkScript = pib.pkScript
	}

	input.SighashType = signHashType

	switch pib.scriptType {
	case P2TR:
		input.WitnessUtxo = wire.NewTxOut(utxo.Amount.Int64(), pkScript)
		input.TaprootInternalKey = pib.xOnlyPubKey
	case P2SH:
		if prevTx == nil {
			return errors.Join(ErrPSBTInputBuilder, ErrMissingPrevTx)
		}
		if prevTx.TxHash().String() != utxo.TxHash || int(utxo.Index) >= len(prevTx.TxOut) {
			return errors.Join(ErrPSBTInputBuilder, errors.New("previous transaction does not match input"))
		}

		input.NonWitnessUtxo = prevTx
		input.RedeemScript = pib.lock.Script
	case P2WSH:
		input.WitnessUtxo = wire.NewTxOut(utxo.Amount.Int64(), pkScript)
		input.WitnessScript = pib.lock.Script
	}

	return nil
}

// InputsHelpingKey return InputsHelpingKey for wallet input indexes distinguishing.
func (pib *PSBTInputBuilder) InputsHelpingKey() InputsHelpingKey {
	if pib.lock != nil {
		return LockedInputsHelpingKey
	}

	return StakerInputsHelpingKey
}

// ScriptType returns underlying script type.
func (pib *PSBTInputBuilder) ScriptType() string {
	return pib.scriptType
}

// PkScript returns output script of the spent address.
func (pib *PSBTInputBuilder) PkScript() []byte {
	return pib.pkScript
}
