// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/aviate-labs/leb128"
	"github.com/btcsuite/btcd/txscript"
)

var (
	// ErrCenotaph defines invalid runestone produced malformed payload.
	ErrCenotaph = errors.New("cenotaph")
	// ErrTruncated defines that payload is do not have required fields.
	ErrTruncated = errors.New("truncated payload")
	// ErrNotRunestone defines that script is not a runestone output.
	ErrNotRunestone = errors.New("not a runestone")
	// ErrUnsupportedField defines valid runestone field which is not handled by this package (etching, terms).
	ErrUnsupportedField = errors.New("unsupported runestone field")
)

// Runestone defines the subset of runestone fields used for transfers.
type Runestone struct {
	Edicts  []Edict
	Mint    *RuneID
	Pointer *uint32
}

// NewTransferRunestone returns runestone which moves amount of rune to output.
// Unallocated runes go to pointer output when it is set.
func NewTransferRunestone(runeID RuneID, amount *big.Int, output uint32, pointer *uint32) *Runestone {
	return &Runestone{
		Edicts: []Edict{{
			RuneID: runeID,
			Amount: new(big.Int).Set(amount),
			Output: output,
		}},
		Pointer: pointer,
	}
}

// ParseRunestone parses Runestone from script code.
func ParseRunestone(script []byte) (*Runestone, error) {
	payload, err := PreparePayload(script)
	if err != nil {
		return nil, err
	}

	sequence, err := PayloadIntoIntSequence(payload)
	if err != nil {
		return nil, err
	}

	message, err := ParseMessage(sequence)
	if err != nil {
		return nil, err
	}

	runestone := &Runestone{Edicts: message.Edicts}
	for tag, ints := range message.Fields {
		switch {
		case tag == TagMint:
			if len(ints) != 2 || !ints[0].IsUint64() || !ints[1].IsUint64() {
				return nil, ErrCenotaph
			}

			runestone.Mint = &RuneID{Block: ints[0].Uint64(), TxID: uint32(ints[1].Uint64())}
		case tag == TagPointer:
			if len(ints) != 1 || !ints[0].IsUint64() || ints[0].Uint64() > uint64(^uint32(0)) {
				return nil, ErrCenotaph
			}

			pointer := uint32(ints[0].Uint64())
			runestone.Pointer = &pointer
		case tag == TagCenotaph || (!tag.IsOdd() && tag > TagPointer):
			return nil, ErrCenotaph
		case !tag.IsOdd():
			return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedField, tag)
		}
	}

	return runestone, nil
}

// IntoScript returns Runestone as script bytes.
func (runestone *Runestone) IntoScript() ([]byte, error) {
	payload, err := runestone.Serialize()
	if err != nil {
		return nil, err
	}

	payloadSize := len(payload)
	if payloadSize < txscript.OP_DATA_1 || payloadSize > txscript.OP_DATA_75 {
		return nil, errors.New("payload is out of PUSH_DATA bounds")
	}

	// OP_RETURN + OP_13 + OP_PUSH_<num> + payload.
	return append([]byte{txscript.OP_RETURN, txscript.OP_13, byte(payloadSize)}, payload...), nil
}

// Serialize returns Runestone as bytes array.
func (runestone *Runestone) Serialize() ([]byte, error) {
	message := Message{
		Edicts: runestone.Edicts,
		Fields: map[Tag][]*big.Int{},
	}

	if runestone.Mint != nil {
		message.Fields[TagMint] = runestone.Mint.ToIntSeq()
	}

	if runestone.Pointer != nil {
		message.Fields[TagPointer] = []*big.Int{big.NewInt(int64(*runestone.Pointer))}
	}

	return IntSequenceIntoPayload(message.ToIntSeq())
}

// Verify returns ErrCenotaph if runestone references outputs out of range [0;outputsNumber).
func (runestone *Runestone) Verify(outputsNumber int) error {
	if runestone.Pointer != nil && int(*runestone.Pointer) >= outputsNumber {
		return ErrCenotaph
	}

	for _, edict := range runestone.Edicts {
		if edict.RuneID.Block == 0 && edict.RuneID.TxID != 0 {
			return ErrCenotaph
		}

		// output equal to outputs number means even split over all outputs.
		if int(edict.Output) > outputsNumber {
			return ErrCenotaph
		}
	}

	return nil
}

// PreparePayload validates raw script payload, removes OP_<...> bytes,
// returns collected data from OP_PUSH_<...> commands.
func PreparePayload(rawPayload []byte) ([]byte, error) {
	if !IsPossibleRunestone(rawPayload) {
		return nil, ErrNotRunestone
	}

	payload := make([]byte, 0, len(rawPayload)-3)
	buffer := bytes.NewReader(rawPayload[2:])
	for buffer.Len() > 0 {
		op, err := buffer.ReadByte()
		if err != nil {
			return nil, err
		}

		if op < txscript.OP_DATA_1 || op > txscript.OP_DATA_75 {
			return nil, ErrCenotaph
		}

		data := make([]byte, op)
		n, err := buffer.Read(data)
		if err != nil || n != int(op) {
			return nil, ErrTruncated
		}

		payload = append(payload, data...)
	}

	return payload, nil
}

// IsPossibleRunestone returns true if the script starts with rune protocol bytes sequence.
func IsPossibleRunestone(script []byte) bool {
	switch {
	case len(script) < 4: // OP_RETURN + OP_13 + OP_PUSH_<num> + data(at least 1 byte).
		return false
	case script[0] != txscript.OP_RETURN:
		return false
	case script[1] != txscript.OP_13:
		return false
	case script[2] < txscript.OP_DATA_1 || script[2] > txscript.OP_DATA_75:
		return false
	}

	return true
}

// PayloadIntoIntSequence decodes payload in LEB128 into integer sequence.
func PayloadIntoIntSequence(payload []byte) ([]*big.Int, error) {
	sequence := make([]*big.Int, 0)
	data := bytes.NewReader(payload)
	for data.Len() > 0 {
		num, err := leb128.DecodeUnsigned(data)
		if err != nil {
			return nil, err
		}

		sequence = append(sequence, num)
	}

	return sequence, nil
}

// IntSequenceIntoPayload encodes integer sequence into payload in LEB128.
func IntSequenceIntoPayload(sequence []*big.Int) ([]byte, error) {
	payload := make([]byte, 0)
	for _, num := range sequence {
		encoded, err := leb128.EncodeUnsigned(num)
		if err != nil {
			return nil, err
		}

		payload = append(payload, encoded...)
	}

	return payload, nil
}
