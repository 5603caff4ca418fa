// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package unisat

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/runes"
	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
)

// unconfirmedHeight is reported by unisat for outputs of mempool transactions.
const unconfirmedHeight = 4194303

var _ ports.Indexer = (*Client)(nil)

type utxoPage struct {
	Cursor int        `json:"cursor"`
	Total  int        `json:"total"`
	UTXO   []utxoData `json:"utxo"`
}

type utxoData struct {
	TxID         string            `json:"txid"`
	Vout         uint32            `json:"vout"`
	Satoshi      uint64            `json:"satoshi"`
	ScriptPk     string            `json:"scriptPk"`
	Address      string            `json:"address"`
	Height       uint64            `json:"height"`
	Inscriptions []inscriptionData `json:"inscriptions"`
	Runes        []runeData        `json:"runes"`
}

type inscriptionData struct {
	InscriptionID string `json:"inscriptionId"`
	Offset        uint64 `json:"offset"`
	Moved         bool   `json:"moved"`
}

type runeData struct {
	RuneID string `json:"runeid"`
	Amount string `json:"amount"`
}

// Outputs returns page of unspent outputs of the address.
func (c *Client) Outputs(ctx context.Context, listing ports.Listing, address string, offset, limit int) ([]bitcoin.UTXO, error) {
	query := url.Values{}
	var path string
	switch listing.Kind {
	case ports.ListingPlain:
		path = fmt.Sprintf("/v1/indexer/address/%s/utxo-data", url.PathEscape(address))
		query.Set("cursor", strconv.Itoa(offset))
		query.Set("size", strconv.Itoa(limit))
	case ports.ListingInscriptions:
		path = fmt.Sprintf("/v1/indexer/address/%s/inscription-utxo-data", url.PathEscape(address))
		query.Set("cursor", strconv.Itoa(offset))
		query.Set("size", strconv.Itoa(limit))
	case ports.ListingRunes:
		path = fmt.Sprintf("/v1/indexer/address/%s/runes/%s/utxo", url.PathEscape(address), url.PathEscape(listing.RuneID))
		query.Set("start", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))
	default:
		return nil, fmt.Errorf("unsupported listing %s", listing)
	}

	var page utxoPage
	if err := c.get(ctx, path+"?"+query.Encode(), &page); err != nil {
		return nil, err
	}

	utxos := make([]bitcoin.UTXO, 0, len(page.UTXO))
	for _, data := range page.UTXO {
		utxo, err := data.toUTXO()
		if err != nil {
			return nil, errors.Join(domain.ErrUpstream, err)
		}
		utxos = append(utxos, utxo)
	}

	return utxos, nil
}

func (d utxoData) toUTXO() (bitcoin.UTXO, error) {
	script, err := hex.DecodeString(d.ScriptPk)
	if err != nil {
		return bitcoin.UTXO{}, fmt.Errorf("invalid script of %s:%d: %w", d.TxID, d.Vout, err)
	}

	height := d.Height
	if height == unconfirmedHeight {
		height = 0
	}

	utxo := bitcoin.UTXO{
		TxHash:  d.TxID,
		Index:   d.Vout,
		Amount:  new(big.Int).SetUint64(d.Satoshi),
		Script:  script,
		Address: d.Address,
		Height:  height,
	}
	for _, inscription := range d.Inscriptions {
		utxo.Inscriptions = append(utxo.Inscriptions, bitcoin.InscriptionRef{
			ID:     inscription.InscriptionID,
			Offset: inscription.Offset,
			Moved:  inscription.Moved,
		})
	}
	for _, r := range d.Runes {
		runeID, err := runes.NewRuneIDFromString(r.RuneID)
		if err != nil {
			return bitcoin.UTXO{}, fmt.Errorf("invalid rune of %s:%d: %w", d.TxID, d.Vout, err)
		}
		amount, ok := new(big.Int).SetString(r.Amount, 10)
		if !ok {
			return bitcoin.UTXO{}, fmt.Errorf("invalid rune amount %q of %s:%d", r.Amount, d.TxID, d.Vout)
		}
		utxo.Runes = append(utxo.Runes, bitcoin.RuneUTXO{RuneID: runeID, Amount: amount})
	}

	return utxo, nil
}

// RawTransaction returns transaction by id.
func (c *Client) RawTransaction(ctx context.Context, txID string) (*wire.MsgTx, error) {
	var rawTx string
	if err := c.get(ctx, "/v1/indexer/rawtx/"+url.PathEscape(txID), &rawTx); err != nil {
		return nil, err
	}
	if rawTx == "" {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("transaction %s not found", txID))
	}

	raw, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, errors.Join(domain.ErrUpstream, fmt.Errorf("invalid transaction %s hex: %w", txID, err))
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Join(domain.ErrUpstream, fmt.Errorf("invalid transaction %s: %w", txID, err))
	}

	return tx, nil
}

// TransactionHeight returns block height of the transaction, 0 while it is in mempool.
func (c *Client) TransactionHeight(ctx context.Context, txID string) (uint32, error) {
	var info *struct {
		TxID   string `json:"txid"`
		Height uint32 `json:"height"`
	}
	if err := c.get(ctx, "/v1/indexer/tx/"+url.PathEscape(txID), &info); err != nil {
		return 0, err
	}
	if info == nil || info.TxID == "" {
		return 0, errors.Join(domain.ErrNotFound, fmt.Errorf("transaction %s not found", txID))
	}
	if info.Height == unconfirmedHeight {
		return 0, nil
	}

	return info.Height, nil
}

// BlockHeight returns indexed chain height.
func (c *Client) BlockHeight(ctx context.Context) (uint32, error) {
	var info struct {
		Blocks uint32 `json:"blocks"`
	}
	if err := c.get(ctx, "/v1/indexer/blockchain/info", &info); err != nil {
		return 0, err
	}

	return info.Blocks, nil
}
