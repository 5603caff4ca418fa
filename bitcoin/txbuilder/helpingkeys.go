// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
)

// ErrUnknownInputsHelpingKey defines that inputs help keys is unknown.
var ErrUnknownInputsHelpingKey = errors.New("unknown inputs help keys")

// InputsHelpingKey defines type for additional data in PSBT Unknowns field
// to distinguish input types and their indexes.
type InputsHelpingKey byte

const (
	// StakerInputsHelpingKey defines key for staker taproot (key-path) inputs.
	StakerInputsHelpingKey InputsHelpingKey = 0x10
	// LockedInputsHelpingKey defines key for time-locked script inputs.
	LockedInputsHelpingKey InputsHelpingKey = 0x30
)

// InputsHelpingKeyFromBytes parses bytes array into InputsHelpingKey if any.
func InputsHelpingKeyFromBytes(b []byte) (InputsHelpingKey, error) {
	if len(b) != 1 {
		return 0, ErrUnknownInputsHelpingKey
	}

	switch b[0] {
	case StakerInputsHelpingKey.Byte():
		return StakerInputsHelpingKey, nil
	case LockedInputsHelpingKey.Byte():
		return LockedInputsHelpingKey, nil
	}

	return 0, ErrUnknownInputsHelpingKey
}

// Byte returns InputsHelpingKey as byte.
func (k InputsHelpingKey) Byte() byte {
	return byte(k)
}

// Bytes returns InputsHelpingKey as bytes array.
func (k InputsHelpingKey) Bytes() []byte {
	return []byte{byte(k)}
}
