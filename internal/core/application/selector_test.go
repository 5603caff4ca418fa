// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package application_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/runes"
	"github.com/BoostyLabs/staking/internal/core/application"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
)

const testAddress = "bc1p5d7rjq7g6rdk2yhzks9smlaqtedr4dekq08ge8ztwac72sfr9rusxg3297"

func testTxHash(n int) string {
	return fmt.Sprintf("%064x", n)
}

func plainUTXO(n int, amount int64) bitcoin.UTXO {
	return bitcoin.UTXO{TxHash: testTxHash(n), Index: uint32(n % 3), Amount: big.NewInt(amount), Address: testAddress}
}

func TestFindSpendableOutput(t *testing.T) {
	ctx := context.Background()
	plain := ports.Listing{Kind: ports.ListingPlain}

	t.Run("not found after short page", func(t *testing.T) {
		indexer := newFakeIndexer()
		for i := 0; i < 5; i++ {
			indexer.add(plain, testAddress, plainUTXO(i, 1000))
		}

		_, err := application.NewSelector(indexer, 5).FindSpendableOutput(ctx, testAddress, big.NewInt(5000))
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Equal(t, 2, indexer.calls)
	})

	t.Run("found on the second page", func(t *testing.T) {
		indexer := newFakeIndexer()
		for i := 0; i < 5; i++ {
			indexer.add(plain, testAddress, plainUTXO(i, 1000))
		}
		indexer.add(plain, testAddress, plainUTXO(5, 4000), plainUTXO(6, 9000), plainUTXO(7, 12000))

		utxo, err := application.NewSelector(indexer, 5).FindSpendableOutput(ctx, testAddress, big.NewInt(5000))
		require.NoError(t, err)
		require.Equal(t, testTxHash(6), utxo.TxHash)
		require.Equal(t, 2, indexer.calls)
	})

	t.Run("exact value", func(t *testing.T) {
		indexer := newFakeIndexer()
		indexer.add(plain, testAddress, plainUTXO(1, 5000))

		utxo, err := application.NewSelector(indexer, 5).FindSpendableOutput(ctx, testAddress, big.NewInt(5000))
		require.NoError(t, err)
		require.Equal(t, testTxHash(1), utxo.TxHash)
		require.Equal(t, 1, indexer.calls)
	})

	t.Run("asset outputs are skipped", func(t *testing.T) {
		inscribed := plainUTXO(1, 100000)
		inscribed.Inscriptions = []bitcoin.InscriptionRef{{ID: testTxHash(1) + "i0"}}
		runic := plainUTXO(2, 100000)
		runic.Runes = []bitcoin.RuneUTXO{{RuneID: runes.RuneID{Block: 840000, TxID: 3}, Amount: big.NewInt(1)}}

		indexer := newFakeIndexer()
		indexer.add(plain, testAddress, inscribed, runic, plainUTXO(3, 6000))

		utxo, err := application.NewSelector(indexer, 5).FindSpendableOutput(ctx, testAddress, big.NewInt(5000))
		require.NoError(t, err)
		require.Equal(t, testTxHash(3), utxo.TxHash)
		require.False(t, utxo.HasAssets())
	})

	t.Run("indexer failure", func(t *testing.T) {
		indexer := newFakeIndexer()
		indexer.fail(plain, testAddress, domain.ErrUpstreamTimeout)

		_, err := application.NewSelector(indexer, 5).FindSpendableOutput(ctx, testAddress, big.NewInt(5000))
		require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
		require.False(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestFindSpecificOutput(t *testing.T) {
	ctx := context.Background()
	listing := ports.Listing{Kind: ports.ListingInscriptions}

	indexer := newFakeIndexer()
	for i := 0; i < 7; i++ {
		indexer.add(listing, testAddress, plainUTXO(i, 330))
	}
	selector := application.NewSelector(indexer, 3)

	utxo, err := selector.FindSpecificOutput(ctx, listing, testAddress, testTxHash(5), 2)
	require.NoError(t, err)
	require.True(t, utxo.IsOutpoint(testTxHash(5), 2))

	_, err = selector.FindSpecificOutput(ctx, listing, testAddress, testTxHash(5), 0)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = selector.FindSpecificOutput(ctx, ports.Listing{Kind: ports.ListingPlain}, testAddress, testTxHash(5), 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAllOutputs(t *testing.T) {
	ctx := context.Background()
	runeID := runes.RuneID{Block: 840000, TxID: 3}
	other := runes.RuneID{Block: 840001, TxID: 7}

	inscriptions := ports.Listing{Kind: ports.ListingInscriptions}
	runeListing := ports.Listing{Kind: ports.ListingRunes, RuneID: runeID.String()}

	indexer := newFakeIndexer()
	for i := 0; i < 4; i++ {
		utxo := plainUTXO(i, 330)
		utxo.Inscriptions = []bitcoin.InscriptionRef{{ID: testTxHash(i) + "i0", Moved: i%2 == 1}}
		indexer.add(inscriptions, testAddress, utxo)
	}
	for i := 0; i < 3; i++ {
		utxo := plainUTXO(10+i, 546)
		id := runeID
		if i == 1 {
			id = other
		}
		utxo.Runes = []bitcoin.RuneUTXO{{RuneID: id, Amount: big.NewInt(100)}}
		indexer.add(runeListing, testAddress, utxo)
	}
	selector := application.NewSelector(indexer, 2)

	t.Run("without predicate", func(t *testing.T) {
		utxos, err := selector.ListAllOutputs(ctx, inscriptions, testAddress, nil)
		require.NoError(t, err)
		require.Len(t, utxos, 4)
	})

	t.Run("non moved inscriptions", func(t *testing.T) {
		utxos, err := selector.ListAllOutputs(ctx, inscriptions, testAddress, application.NonMovedInscriptions())
		require.NoError(t, err)
		require.Len(t, utxos, 2)
		require.Equal(t, testTxHash(0), utxos[0].TxHash)
		require.Equal(t, testTxHash(2), utxos[1].TxHash)
	})

	t.Run("carries rune", func(t *testing.T) {
		utxos, err := selector.ListAllOutputs(ctx, runeListing, testAddress, application.CarriesRune(runeID))
		require.NoError(t, err)
		require.Len(t, utxos, 2)
		require.Equal(t, testTxHash(10), utxos[0].TxHash)
		require.Equal(t, testTxHash(12), utxos[1].TxHash)
	})

	t.Run("empty listing", func(t *testing.T) {
		utxos, err := selector.ListAllOutputs(ctx, ports.Listing{Kind: ports.ListingPlain}, testAddress, nil)
		require.NoError(t, err)
		require.Empty(t, utxos)
	})
}
