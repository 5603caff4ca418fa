// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrInvalidInputIndex defines input index out of the transaction inputs range.
	ErrInvalidInputIndex = errors.New("invalid input index")
	// ErrMissingPrevOutput defines input without previous output data.
	ErrMissingPrevOutput = errors.New("input has no previous output")
	// ErrNotLockedInput defines input without redeem or witness script.
	ErrNotLockedInput = errors.New("input has no lock script")
)

// SignParams defines parameters for signing methods.
type SignParams struct {
	SerializedPSBT []byte
	Inputs         []int // inputs indexes.
	PrivateKey     *btcec.PrivateKey
}

// Signer provides transaction signing related logic.
type Signer struct {
	networkParams *chaincfg.Params
}

// NewSigner is a constructor for Signer.
func NewSigner(networkParams *chaincfg.Params) *Signer {
	return &Signer{
		networkParams: networkParams,
	}
}

// SignTaproot signs taproot key-path inputs by provided indexes, returns updated serialized PSBT.
func (signer *Signer) SignTaproot(params SignParams) ([]byte, error) {
	return signer.sign(params, signTaprootInput)
}

// SignLocked signs time-locked script inputs by provided indexes, returns updated serialized PSBT.
// Signature is stored as partial signature of the private key public key.
func (signer *Signer) SignLocked(params SignParams) ([]byte, error) {
	return signer.sign(params, signLockedInput)
}

// signInputParams defines parameters for input signing functions.
type signInputParams struct {
	packet     *psbt.Packet
	input      int
	sigHashes  *txscript.TxSigHashes
	prevOutput *wire.TxOut
	privateKey *btcec.PrivateKey
}

// sign parses PSBT, signs requested inputs with signFn and serializes PSBT back.
func (signer *Signer) sign(params SignParams, signFn func(signInputParams) error) ([]byte, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewBuffer(params.SerializedPSBT), false)
	if err != nil {
		return nil, err
	}

	prevOutputFetcher, err := PrevOutputFetcher(packet)
	if err != nil {
		return nil, err
	}

	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, prevOutputFetcher)
	for _, input := range params.Inputs {
		if input < 0 || len(packet.Inputs) <= input {
			return nil, ErrInvalidInputIndex
		}

		err = signFn(signInputParams{
			packet:     packet,
			input:      input,
			sigHashes:  sigHashes,
			prevOutput: prevOutputFetcher.FetchPrevOutput(packet.UnsignedTx.TxIn[input].PreviousOutPoint),
			privateKey: params.PrivateKey,
		})
		if err != nil {
			return nil, err
		}
	}

	w := bytes.NewBuffer(nil)
	err = packet.Serialize(w)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// PrevOutputFetcher returns fetcher of previous outputs from witness or non-witness UTXO of each input.
func PrevOutputFetcher(packet *psbt.Packet) (*txscript.MultiPrevOutFetcher, error) {
	var (
		tx                   = packet.UnsignedTx
		prevOutputFetcherMap = make(map[wire.OutPoint]*wire.TxOut, len(tx.TxIn))
	)
	for idx, in := range packet.Inputs {
		outPoint := tx.TxIn[idx].PreviousOutPoint

		switch {
		case in.WitnessUtxo != nil:
			prevOutputFetcherMap[outPoint] = in.WitnessUtxo
		case in.NonWitnessUtxo != nil && int(outPoint.Index) < len(in.NonWitnessUtxo.TxOut):
			prevOutputFetcherMap[outPoint] = in.NonWitnessUtxo.TxOut[outPoint.Index]
		default:
			return nil, ErrMissingPrevOutput
		}
	}

	return txscript.NewMultiPrevOutFetcher(prevOutputFetcherMap), nil
}

// signTaprootInput signs taproot key-path input.
func signTaprootInput(params signInputParams) error {
	input := &params.packet.Inputs[params.input]

	witness, err := txscript.TaprootWitnessSignature(
		params.packet.UnsignedTx, params.sigHashes, params.input,
		params.prevOutput.Value, params.prevOutput.PkScript, input.SighashType, params.privateKey)
	if err != nil {
		return err
	}

	input.TaprootKeySpendSig = witness[0]

	return nil
}

// signLockedInput signs p2sh or p2wsh input spending lock script.
func signLockedInput(params signInputParams) error {
	var (
		input = &params.packet.Inputs[params.input]
		sig   []byte
		err   error
	)

	switch {
	case len(input.WitnessScript) != 0:
		sig, err = txscript.RawTxInWitnessSignature(
			params.packet.UnsignedTx, params.sigHashes, params.input,
			params.prevOutput.Value, input.WitnessScript, input.SighashType, params.privateKey)
	case len(input.RedeemScript) != 0:
		sig, err = txscript.RawTxInSignature(
			params.packet.UnsignedTx, params.input, input.RedeemScript, input.SighashType, params.privateKey)
	default:
		return ErrNotLockedInput
	}
	if err != nil {
		return err
	}

	input.PartialSigs = append(input.PartialSigs, &psbt.PartialSig{
		PubKey:    params.privateKey.PubKey().SerializeCompressed(),
		Signature: sig,
	})

	return nil
}
