// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/runes"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/numbers"
)

// DefaultPageSize defines indexer page size used when none is configured.
const DefaultPageSize = 16

// Predicate filters listed outputs.
type Predicate func(utxo bitcoin.UTXO) bool

// NonMovedInscriptions keeps outputs with at least one inscription which was not moved.
func NonMovedInscriptions() Predicate {
	return func(utxo bitcoin.UTXO) bool {
		return utxo.HasActiveInscription()
	}
}

// CarriesRune keeps outputs holding positive amount of the rune.
func CarriesRune(runeID runes.RuneID) Predicate {
	return func(utxo bitcoin.UTXO) bool {
		return numbers.IsPositive(utxo.RuneAmount(runeID))
	}
}

// Selector searches unspent outputs by paging through the indexer.
//
// Selection holds no locks, concurrent builds for the same address
// may select the same output and only one of the transactions will be mined.
type Selector struct {
	indexer  ports.Indexer
	pageSize int
}

// NewSelector is a constructor for Selector.
func NewSelector(indexer ports.Indexer, pageSize int) *Selector {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Selector{
		indexer:  indexer,
		pageSize: pageSize,
	}
}

// FindSpendableOutput returns the first plain output of the address holding at least minValue sats.
// Outputs carrying inscriptions or runes are never returned.
func (s *Selector) FindSpendableOutput(ctx context.Context, address string, minValue *big.Int) (*bitcoin.UTXO, error) {
	var found *bitcoin.UTXO
	err := s.scan(ctx, ports.Listing{Kind: ports.ListingPlain}, address, func(utxo bitcoin.UTXO) bool {
		if utxo.HasAssets() || numbers.IsLess(utxo.Amount, minValue) {
			return false
		}

		found = &utxo
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("no output of %s sats at %s", minValue, address))
	}

	return found, nil
}

// FindSpecificOutput returns output of the listing located at txID:vout.
func (s *Selector) FindSpecificOutput(ctx context.Context, listing ports.Listing, address, txID string, vout uint32) (*bitcoin.UTXO, error) {
	var found *bitcoin.UTXO
	err := s.scan(ctx, listing, address, func(utxo bitcoin.UTXO) bool {
		if !utxo.IsOutpoint(txID, vout) {
			return false
		}

		found = &utxo
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("%s output %s:%d not found at %s", listing, txID, vout, address))
	}

	return found, nil
}

// ListAllOutputs drains the listing, predicate may be nil.
func (s *Selector) ListAllOutputs(ctx context.Context, listing ports.Listing, address string, predicate Predicate) ([]bitcoin.UTXO, error) {
	var utxos []bitcoin.UTXO
	err := s.scan(ctx, listing, address, func(utxo bitcoin.UTXO) bool {
		if predicate == nil || predicate(utxo) {
			utxos = append(utxos, utxo)
		}

		return false
	})

	return utxos, err
}

// scan visits outputs page by page until visit returns true or a short page is returned.
func (s *Selector) scan(ctx context.Context, listing ports.Listing, address string, visit func(bitcoin.UTXO) bool) error {
	for offset := 0; ; {
		page, err := s.indexer.Outputs(ctx, listing, address, offset, s.pageSize)
		if err != nil {
			return fmt.Errorf("list %s outputs of %s: %w", listing, address, err)
		}

		for _, utxo := range page {
			if visit(utxo) {
				return nil
			}
		}

		if len(page) < s.pageSize {
			return nil
		}
		offset += len(page)
	}
}
