// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers

import (
	"errors"
	"math/big"
	"strings"
)

// Decimals defines precision of fixed point amounts, satoshi equivalent.
const Decimals = 8

// FixedOne defines 1 in fixed point representation with Decimals precision.
var FixedOne = big.NewInt(100_000_000)

// ErrInvalidDecimal defines malformed decimal string.
var ErrInvalidDecimal = errors.New("invalid decimal number")

// RoundDiv returns a / b rounded half away from zero.
func RoundDiv(a, b *big.Int) *big.Int {
	quo, rem := new(big.Int).QuoRem(a, b, new(big.Int))
	if IsZero(rem) {
		return quo
	}

	// |2 * rem| >= |b| rounds away from zero.
	doubled := new(big.Int).Abs(rem)
	doubled.Lsh(doubled, 1)
	if doubled.CmpAbs(b) >= 0 {
		if a.Sign()*b.Sign() < 0 {
			quo.Sub(quo, OneBigInt)
		} else {
			quo.Add(quo, OneBigInt)
		}
	}

	return quo
}

// ToFixed converts integer amount into fixed point representation.
func ToFixed(value *big.Int) *big.Int {
	return new(big.Int).Mul(value, FixedOne)
}

// FormatFixed formats fixed point value with provided decimals, trailing zeros are trimmed.
func FormatFixed(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}

	abs := new(big.Int).Abs(value).String()
	if len(abs) <= decimals {
		abs = strings.Repeat("0", decimals-len(abs)+1) + abs
	}

	integer, fraction := abs[:len(abs)-decimals], strings.TrimRight(abs[len(abs)-decimals:], "0")

	result := integer
	if fraction != "" {
		result += "." + fraction
	}
	if value.Sign() < 0 {
		result = "-" + result
	}

	return result
}

// ParseFixed parses decimal string into fixed point value with provided decimals.
// Fraction digits beyond decimals are rejected.
func ParseFixed(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	integer, fraction, _ := strings.Cut(s, ".")
	if integer == "" && fraction == "" || len(fraction) > decimals {
		return nil, ErrInvalidDecimal
	}

	value, ok := new(big.Int).SetString(integer+fraction+strings.Repeat("0", decimals-len(fraction)), 10)
	if !ok || strings.ContainsAny(integer+fraction, "+-") {
		return nil, ErrInvalidDecimal
	}

	if negative {
		value.Neg(value)
	}

	return value, nil
}
