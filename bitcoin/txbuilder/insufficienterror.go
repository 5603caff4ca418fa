// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/BoostyLabs/staking/bitcoin"
)

type balanceErrorType string

type causerSign string

const (
	// InsufficientErrorTypeBitcoin defines insufficient bitcoin balance error type.
	InsufficientErrorTypeBitcoin balanceErrorType = "bitcoin"
	// InsufficientErrorTypeRune defines insufficient rune balance error type.
	InsufficientErrorTypeRune balanceErrorType = "rune"

	// CauserStaker defines that the staker funding output caused this error type.
	CauserStaker causerSign = "staker"
	// CauserAsset defines that the staked asset output caused this error type.
	CauserAsset causerSign = "asset"
)

// InsufficientError is the error type to describe insufficient balance errors with details.
type InsufficientError struct {
	Type   balanceErrorType
	Need   *big.Int
	Have   *big.Int
	Causer causerSign
}

// NewInsufficientError is a constructor for InsufficientError.
func NewInsufficientError(type_ balanceErrorType, need, have *big.Int) *InsufficientError {
	return &InsufficientError{type_, need, have, ""}
}

// Error returns error description.
func (e *InsufficientError) Error() string {
	var errMsg = fmt.Sprintf("insufficient %s balance", e.Type)

	if e.Have != nil && e.Need != nil {
		errMsg += fmt.Sprintf(": Need - %s, Have - %s", e.Need, e.Have)
	}

	if e.Causer != "" {
		errMsg += " (" + string(e.Causer) + ")"
	}

	return errMsg
}

// Is implements comparator method for [errors] package.
// Matches errors of the same type and the balance error classes of bitcoin package.
func (e *InsufficientError) Is(target error) bool {
	var insufficientErr *InsufficientError
	if errors.As(target, &insufficientErr) {
		return insufficientErr.Type == e.Type
	}

	switch e.Type {
	case InsufficientErrorTypeBitcoin:
		return target == bitcoin.ErrInsufficientNativeBalance
	case InsufficientErrorTypeRune:
		return target == bitcoin.ErrInsufficientRuneBalance
	}

	return false
}

// setCauser updates InsufficientError with provided causer.
func (e *InsufficientError) setCauser(causer causerSign) *InsufficientError {
	e.Causer = causer
	return e
}
