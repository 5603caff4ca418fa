// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"math/big"

	"github.com/BoostyLabs/staking/bitcoin/runes"
)

// UTXO describes unspent transaction output data.
type UTXO struct {
	TxHash       string
	Index        uint32   // output index in transaction outputs.
	Amount       *big.Int // in Satoshi.
	Script       []byte   // ScriptPubKey.
	Address      string   // output recipient address.
	Height       uint64   // confirmation height, 0 while unconfirmed.
	Runes        []RuneUTXO
	Inscriptions []InscriptionRef
}

// RuneUTXO describes linked to UTXO runes transaction.
type RuneUTXO struct {
	RuneID runes.RuneID
	Amount *big.Int // in rune units.
}

// InscriptionRef describes inscription linked to UTXO.
type InscriptionRef struct {
	ID     string
	Offset uint64
	Moved  bool
}

// IsOutpoint returns true if utxo is located at provided outpoint.
func (u *UTXO) IsOutpoint(txHash string, index uint32) bool {
	return u.TxHash == txHash && u.Index == index
}

// HasAssets returns true if utxo carries inscriptions or runes.
func (u *UTXO) HasAssets() bool {
	return len(u.Inscriptions) > 0 || len(u.Runes) > 0
}

// HasActiveInscription returns true if at least one linked inscription was not moved.
func (u *UTXO) HasActiveInscription() bool {
	for _, inscription := range u.Inscriptions {
		if !inscription.Moved {
			return true
		}
	}

	return false
}

// RuneAmount returns amount of the rune linked to utxo, zero if none.
func (u *UTXO) RuneAmount(runeID runes.RuneID) *big.Int {
	for _, r := range u.Runes {
		if r.RuneID == runeID {
			return new(big.Int).Set(r.Amount)
		}
	}

	return big.NewInt(0)
}
