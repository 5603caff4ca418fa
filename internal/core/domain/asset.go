// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package domain

import (
	"fmt"
	"strings"

	"github.com/BoostyLabs/staking/bitcoin/runes"
)

// AssetKind defines class of the staked asset.
type AssetKind string

const (
	// AssetBTC is plain bitcoin staked by amount.
	AssetBTC AssetKind = "btc"
	// AssetBRC20 is brc-20 transfer inscription.
	AssetBRC20 AssetKind = "brc20"
	// AssetRune is rune balance carried by an output.
	AssetRune AssetKind = "rune"
	// AssetGeneric is any other inscription, quantity is the value of its output in sats.
	AssetGeneric AssetKind = "generic"
)

// ParseAssetKind parses AssetKind from string, case insensitive.
func ParseAssetKind(s string) (AssetKind, error) {
	switch kind := AssetKind(strings.ToLower(s)); kind {
	case AssetBTC, AssetBRC20, AssetRune, AssetGeneric:
		return kind, nil
	}

	return "", fmt.Errorf("unknown asset kind: %s", s)
}

// Asset identifies the asset a campaign accepts.
type Asset struct {
	Kind   AssetKind
	Ticker string // brc-20 ticker or display name.
	RuneID string // block:tx, runes only.
}

// IsInscription returns true for assets transferred by moving an inscription.
func (a Asset) IsInscription() bool {
	return a.Kind == AssetBRC20 || a.Kind == AssetGeneric
}

// IsPriced returns true if unit price of the asset comes from market data.
func (a Asset) IsPriced() bool {
	return a.Kind == AssetBRC20 || a.Kind == AssetRune
}

// PriceKey returns market quote cache key of the asset.
func (a Asset) PriceKey() string {
	switch a.Kind {
	case AssetBRC20:
		return "brc20:" + strings.ToLower(a.Ticker)
	case AssetRune:
		return "rune:" + a.RuneID
	default:
		return string(a.Kind)
	}
}

// Rune returns parsed rune id of the asset.
func (a Asset) Rune() (runes.RuneID, error) {
	if a.Kind != AssetRune {
		return runes.RuneID{}, fmt.Errorf("asset %s is not a rune", a.Kind)
	}

	return runes.NewRuneIDFromString(a.RuneID)
}

func (a Asset) String() string {
	switch a.Kind {
	case AssetRune:
		return fmt.Sprintf("%s(%s)", a.Kind, a.RuneID)
	case AssetBRC20:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Ticker)
	default:
		return string(a.Kind)
	}
}
