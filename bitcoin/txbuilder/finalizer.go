// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

// ErrFinalize defines errors class for template finalization.
var ErrFinalize = errors.New("finalize template")

// Finalized is the broadcastable transaction produced from signed template.
type Finalized struct {
	Tx          *wire.MsgTx
	Bytes       []byte
	VSize       int64
	TemplateHex string // signed template before finalization.
}

// Hex returns hex encoded final transaction.
func (f *Finalized) Hex() string {
	return hex.EncodeToString(f.Bytes)
}

// ParseTemplate parses hex or base64 encoded PSBT.
func ParseTemplate(template string) (*psbt.Packet, error) {
	template = strings.TrimSpace(template)

	if raw, err := hex.DecodeString(template); err == nil {
		packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
		if err != nil {
			return nil, errors.Join(ErrFinalize, err)
		}

		return packet, nil
	}

	if _, err := base64.StdEncoding.DecodeString(template); err != nil {
		return nil, errors.Join(ErrFinalize, errors.New("template is neither hex nor base64"))
	}

	packet, err := psbt.NewFromRawBytes(strings.NewReader(template), true)
	if err != nil {
		return nil, errors.Join(ErrFinalize, err)
	}

	return packet, nil
}

// Finalize computes final script and witness of every signed input and extracts transaction.
// Locked inputs are finalized from the single partial signature with the lock spend payment,
// other inputs are finalized by the psbt package.
func Finalize(packet *psbt.Packet) (_ *Finalized, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrFinalize, err)
		}
	}()

	w := bytes.NewBuffer(nil)
	if err = packet.Serialize(w); err != nil {
		return nil, err
	}
	templateHex := hex.EncodeToString(w.Bytes())

	for idx := range packet.Inputs {
		if isFinalized(&packet.Inputs[idx]) {
			continue
		}

		lock, ok := lockedInput(packet, idx)
		if !ok {
			if err = psbt.Finalize(packet, idx); err != nil {
				return nil, fmt.Errorf("input %d: %w", idx, err)
			}

			continue
		}

		if err = finalizeLockedInput(&packet.Inputs[idx], lock); err != nil {
			return nil, fmt.Errorf("input %d: %w", idx, err)
		}
	}

	tx, err := psbt.Extract(packet)
	if err != nil {
		return nil, err
	}

	w.Reset()
	if err = tx.Serialize(w); err != nil {
		return nil, err
	}

	return &Finalized{
		Tx:          tx,
		Bytes:       w.Bytes(),
		VSize:       VirtualSize(tx),
		TemplateHex: templateHex,
	}, nil
}

// lockedInput returns lock of the input if it spends time-locked script.
func lockedInput(packet *psbt.Packet, idx int) (*timelock.Lock, bool) {
	if packet.UnsignedTx.TxIn[idx].Sequence != LockedInputSequence {
		return nil, false
	}

	input := &packet.Inputs[idx]
	lock := &timelock.Lock{Type: timelock.P2SH, Script: input.RedeemScript}
	if len(input.WitnessScript) != 0 {
		lock = &timelock.Lock{Type: timelock.P2WSH, Script: input.WitnessScript}
	}

	pubKey, lockTime, err := timelock.ParseLockScript(lock.Script)
	if err != nil {
		return nil, false
	}

	lock.PubKey, lock.LockTime = pubKey, lockTime

	return lock, true
}

// finalizeLockedInput fills final script sig and witness of the locked input.
func finalizeLockedInput(input *psbt.PInput, lock *timelock.Lock) error {
	if len(input.PartialSigs) != 1 {
		return fmt.Errorf("locked input requires exactly one signature, got %d", len(input.PartialSigs))
	}

	partialSig := input.PartialSigs[0]
	if !bytes.Equal(partialSig.PubKey, lock.PubKey) {
		return errors.New("signature public key does not match lock")
	}

	sigScript, witness, err := lock.Spend(partialSig.Signature)
	if err != nil {
		return err
	}

	input.FinalScriptSig = sigScript
	if len(witness) != 0 {
		input.FinalScriptWitness, err = EncodeWitnessStack(witness)
		if err != nil {
			return err
		}
	}

	input.PartialSigs = nil
	input.SighashType = 0
	input.RedeemScript = nil
	input.WitnessScript = nil
	input.Bip32Derivation = nil

	return nil
}

// isFinalized returns true if input already carries final script or witness.
func isFinalized(input *psbt.PInput) bool {
	return len(input.FinalScriptSig) != 0 || len(input.FinalScriptWitness) != 0
}
