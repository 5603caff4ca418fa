// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"cmp"
	"math/big"
	"slices"
)

// Message defines helping struct for serialising and deserializing Runestone.
type Message struct {
	Edicts []Edict
	Fields map[Tag][]*big.Int
}

// ParseMessage parses Message from integer sequence.
func ParseMessage(seq []*big.Int) (*Message, error) {
	message := &Message{
		Fields: make(map[Tag][]*big.Int),
	}

	for i := 0; i < len(seq); i += 2 {
		if !seq[i].IsUint64() || seq[i].Uint64() > uint64(TagNop) {
			// tags above Nop are unknown even or odd values, which are handled below.
			if seq[i].Bit(0) == 0 {
				return nil, ErrCenotaph
			}

			continue
		}

		tag := Tag(seq[i].Uint64())
		if tag == TagBody {
			edicts, err := ParseEdicts(seq[i+1:])
			if err != nil {
				return nil, err
			}

			message.Edicts = edicts
			break
		}

		if i+1 >= len(seq) {
			return nil, ErrTruncated
		}

		message.Fields[tag] = append(message.Fields[tag], seq[i+1])
	}

	if len(message.Fields) == 0 {
		message.Fields = nil
	}

	return message, nil
}

// ToIntSeq returns Message as sequence on integers, fields ordered by tag.
func (message *Message) ToIntSeq() []*big.Int {
	tags := make([]Tag, 0, len(message.Fields))
	for tag := range message.Fields {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b Tag) int { return cmp.Compare(a, b) })

	sequence := make([]*big.Int, 0, len(message.Fields)*2+len(message.Edicts)*4+1)
	for _, tag := range tags {
		for _, val := range message.Fields[tag] {
			sequence = append(sequence, tag.BigInt(), val)
		}
	}

	if len(message.Edicts) > 0 {
		sequence = append(sequence, TagBody.BigInt())
		sequence = append(sequence, EdictsToIntSeq(message.Edicts)...)
	}

	return sequence
}
