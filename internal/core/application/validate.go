// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/BoostyLabs/staking/bitcoin/runes"
	"github.com/BoostyLabs/staking/bitcoin/timelock"
	"github.com/BoostyLabs/staking/bitcoin/txbuilder"
	"github.com/BoostyLabs/staking/internal/numbers"
)

var (
	// ErrUnexpectedTransaction defines finalized transaction which does not match the request.
	ErrUnexpectedTransaction = errors.New("transaction does not match request")
)

// validateStake checks that stake transaction locks requested asset.
func validateStake(finalized *txbuilder.Finalized, setup *stakeSetup) error {
	tx := finalized.Tx

	expected := setup.params.Amount
	if setup.params.Kind != txbuilder.StakeBTC {
		expected = setup.params.AssetUTXO.Amount
	}
	if err := validateLockedOutput(finalized, setup.lock, expected); err != nil {
		return err
	}

	if utxo := setup.params.AssetUTXO; utxo != nil {
		spent := false
		for _, txIn := range tx.TxIn {
			if txIn.PreviousOutPoint.Hash.String() == utxo.TxHash && txIn.PreviousOutPoint.Index == utxo.Index {
				spent = true
				break
			}
		}
		if !spent {
			return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("asset output %s:%d is not spent", utxo.TxHash, utxo.Index))
		}
	}

	if setup.params.Kind == txbuilder.StakeRune {
		return validateRunestone(finalized, setup.params.RuneID, setup.params.Amount)
	}

	return nil
}

// validateLockedOutput checks that the locked output pays the lock, value is not checked when expected is nil.
func validateLockedOutput(finalized *txbuilder.Finalized, lock *timelock.Lock, expected *big.Int) error {
	tx := finalized.Tx
	if len(tx.TxOut) <= int(txbuilder.LockedOutput) {
		return errors.Join(ErrUnexpectedTransaction, errors.New("transaction has no outputs"))
	}

	out := tx.TxOut[txbuilder.LockedOutput]
	if !bytes.Equal(out.PkScript, lock.PkScript) {
		return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("output %d does not pay %s", txbuilder.LockedOutput, lock.Address))
	}
	if expected != nil && !numbers.IsEqual(big.NewInt(out.Value), expected) {
		return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("locked value %d, expected %s", out.Value, expected))
	}

	return nil
}

// validateRunestone checks that the last output moves amount of rune to the locked output.
func validateRunestone(finalized *txbuilder.Finalized, runeID runes.RuneID, amount *big.Int) error {
	outs := finalized.Tx.TxOut

	runestone, err := runes.ParseRunestone(outs[len(outs)-1].PkScript)
	if err != nil {
		return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("last output is not a runestone: %w", err))
	}
	if err = runestone.Verify(len(outs)); err != nil {
		return errors.Join(ErrUnexpectedTransaction, err)
	}

	for _, edict := range runestone.Edicts {
		if edict.RuneID == runeID && edict.Output == txbuilder.LockedOutput && numbers.IsEqual(edict.Amount, amount) {
			return nil
		}
	}

	return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("runestone does not move %s of %s to the locked output", amount, runeID))
}

// validateSweep checks that transaction spends the lock after it expires.
func validateSweep(finalized *txbuilder.Finalized, lock *timelock.Lock) error {
	tx := finalized.Tx
	if tx.LockTime != lock.LockTime {
		return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("lock time %d, expected %d", tx.LockTime, lock.LockTime))
	}

	locked := 0
	for idx, txIn := range tx.TxIn {
		if txIn.Sequence != txbuilder.LockedInputSequence {
			continue
		}

		spendsLock := bytes.HasSuffix(txIn.SignatureScript, lock.Script)
		if n := len(txIn.Witness); n > 0 {
			spendsLock = bytes.Equal(txIn.Witness[n-1], lock.Script)
		}
		if !spendsLock {
			return errors.Join(ErrUnexpectedTransaction, fmt.Errorf("input %d does not spend %s", idx, lock.Address))
		}
		locked++
	}
	if locked == 0 {
		return errors.Join(ErrUnexpectedTransaction, errors.New("transaction spends no locked outputs"))
	}

	return nil
}
