// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package ports

import (
	"context"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin"
)

// ListingKind defines per address outputs listing of the indexer.
type ListingKind int

const (
	// ListingPlain lists outputs carrying only bitcoin.
	ListingPlain ListingKind = iota
	// ListingInscriptions lists outputs carrying inscriptions.
	ListingInscriptions
	// ListingRunes lists outputs carrying specific rune.
	ListingRunes
)

// Listing identifies outputs listing.
type Listing struct {
	Kind   ListingKind
	RuneID string // ListingRunes only.
}

func (l Listing) String() string {
	switch l.Kind {
	case ListingPlain:
		return "plain"
	case ListingInscriptions:
		return "inscriptions"
	case ListingRunes:
		return "runes(" + l.RuneID + ")"
	default:
		return "unknown"
	}
}

// Indexer provides indexed chain data.
type Indexer interface {
	// Outputs returns page of unspent outputs of the address, short page means no more data.
	Outputs(ctx context.Context, listing Listing, address string, offset, limit int) ([]bitcoin.UTXO, error)
	RawTransaction(ctx context.Context, txID string) (*wire.MsgTx, error)
	// TransactionHeight returns block height of the transaction, 0 while it is in mempool.
	// Returns domain.ErrNotFound if the transaction is unknown.
	TransactionHeight(ctx context.Context, txID string) (uint32, error)
	BlockHeight(ctx context.Context) (uint32, error)
}
