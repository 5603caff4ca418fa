// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// idSeparator defines separator between TxID and Index in inscription ID.
const idSeparator string = "i"

// ID describes inscription identifier.
type ID struct {
	TxID  chainhash.Hash // Reveal transaction ID.
	Index uint32         // The index of the envelope in the reveal transaction.
}

// NewIDFromString parses inscription ID from string.
func NewIDFromString(idStr string) (*ID, error) {
	txID, index, ok := strings.Cut(idStr, idSeparator)
	if !ok || len(txID) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("invalid inscription ID format: %s", idStr)
	}

	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, err
	}

	idx, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid inscription index: %s", idStr)
	}

	return &ID{TxID: *hash, Index: uint32(idx)}, nil
}

// NewIDFromDataPush parses inscription ID from script data push,
// reversed tx id followed by little-endian index with trailing zeros omitted.
func NewIDFromDataPush(data []byte) (*ID, error) {
	if len(data) < chainhash.HashSize || len(data) > chainhash.HashSize+4 {
		return nil, fmt.Errorf("invalid inscription ID push: %x", data)
	}

	id := new(ID)
	copy(id.TxID[:], data[:chainhash.HashSize])

	index := make([]byte, 4)
	copy(index, data[chainhash.HashSize:])
	id.Index = binary.LittleEndian.Uint32(index)

	return id, nil
}

// String returns inscription ID as string.
func (id ID) String() string {
	return id.TxID.String() + idSeparator + strconv.FormatUint(uint64(id.Index), 10)
}

// IntoDataPush returns ID as bytes for script data push.
func (id ID) IntoDataPush() []byte {
	index := make([]byte, 4)
	binary.LittleEndian.PutUint32(index, id.Index)

	size := len(index)
	for size > 0 && index[size-1] == 0 {
		size--
	}

	return append(id.TxID[:], index[:size]...)
}
