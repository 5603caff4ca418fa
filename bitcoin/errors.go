// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import "errors"

var (
	// ErrInsufficientNativeBalance defines that outputs do not hold enough satoshi.
	ErrInsufficientNativeBalance = errors.New("insufficient native balance")
	// ErrInsufficientRuneBalance defines that outputs do not hold enough runes.
	ErrInsufficientRuneBalance = errors.New("insufficient rune balance")
	// ErrInvalidUTXOAmount defines that utxo carries invalid amount.
	ErrInvalidUTXOAmount = errors.New("invalid utxo amount")
)
