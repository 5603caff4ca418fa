// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers

import (
	"math/big"
)

// OneBigInt defines 1 as *big.Int type, must not be modified.
var OneBigInt = big.NewInt(1)

// MaxUInt128Value defines upper bound of rune amounts.
var MaxUInt128Value = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// IsNegative reports whether amount is below zero.
func IsNegative(amount *big.Int) bool { return amount.Sign() < 0 }

// IsPositive reports whether amount is above zero.
func IsPositive(amount *big.Int) bool { return amount.Sign() > 0 }

// IsZero reports whether amount is zero.
func IsZero(amount *big.Int) bool { return amount.Sign() == 0 }

// IsGreater reports whether a > b.
func IsGreater(a, b *big.Int) bool { return a.Cmp(b) > 0 }

// IsEqual reports whether a == b.
func IsEqual(a, b *big.Int) bool { return a.Cmp(b) == 0 }

// IsLess reports whether a < b.
func IsLess(a, b *big.Int) bool { return a.Cmp(b) < 0 }

// Clamp returns copy of amount raised to low and then cut to high.
func Clamp(amount, low, high *big.Int) *big.Int {
	clamped := amount
	if IsLess(clamped, low) {
		clamped = low
	}
	if IsGreater(clamped, high) {
		clamped = high
	}

	return new(big.Int).Set(clamped)
}
