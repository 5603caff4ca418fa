// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
)

// ExtractInputIndexes returns map with input kinds and indexes to sign.
func ExtractInputIndexes(packet *psbt.Packet) (map[InputsHelpingKey][]int, error) {
	var result = make(map[InputsHelpingKey][]int, 2)
	for _, unknown := range packet.Unknowns {
		key, err := InputsHelpingKeyFromBytes(unknown.Key)
		if err != nil {
			return nil, err
		}

		result[key] = make([]int, len(unknown.Value))
		for idx, val := range unknown.Value {
			result[key][idx] = int(val)
		}
	}

	return result, nil
}

// addInputsHelpingKeys appends helping keys with input indexes into PSBT global unknowns.
func addInputsHelpingKeys(packet *psbt.Packet, indexes map[InputsHelpingKey][]int) {
	for _, key := range []InputsHelpingKey{StakerInputsHelpingKey, LockedInputsHelpingKey} {
		idxs, ok := indexes[key]
		if !ok || len(idxs) == 0 {
			continue
		}

		value := make([]byte, len(idxs))
		for i, idx := range idxs {
			value[i] = byte(idx)
		}

		packet.Unknowns = append(packet.Unknowns, &psbt.Unknown{Key: key.Bytes(), Value: value})
	}
}
