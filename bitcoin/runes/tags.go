// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"math/big"
)

// Tag defines tag type for untyped message parsing.
type Tag byte

const (
	// TagBody defines Body tag, edicts follow it.
	TagBody Tag = 0
	// TagFlags defines Flags tag.
	TagFlags Tag = 2
	// TagMint defines Mint tag.
	TagMint Tag = 20
	// TagPointer defines Pointer tag.
	TagPointer Tag = 22
	// TagCenotaph defines Cenotaph tag.
	TagCenotaph Tag = 126
	// TagNop defines Nop tag.
	TagNop Tag = 127
)

// IsOdd returns true for tags which may be ignored by the parser if unknown.
func (t Tag) IsOdd() bool {
	return t%2 == 1
}

// BigInt returns Tag as big.Int.
func (t Tag) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(t))
}
