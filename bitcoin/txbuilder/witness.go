// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
)

// EncodeWitnessStack serializes witness stack as it is stored in PSBT final witness field:
// varint elements count followed by varint length prefixed elements.
func EncodeWitnessStack(elements [][]byte) ([]byte, error) {
	w := bytes.NewBuffer(nil)
	if err := wire.WriteVarInt(w, 0, uint64(len(elements))); err != nil {
		return nil, err
	}

	for _, element := range elements {
		if err := wire.WriteVarBytes(w, 0, element); err != nil {
			return nil, err
		}
	}

	return w.Bytes(), nil
}
