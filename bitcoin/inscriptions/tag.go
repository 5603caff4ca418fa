// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

// Tag defines envelope field tag.
type Tag byte

const (
	// TagContentType defines MIME type of the body.
	TagContentType Tag = 1
	// TagPointer defines offset of the sat the inscription is made on, little-endian.
	TagPointer Tag = 2
	// TagParent defines parent inscription ID, may be repeated.
	TagParent Tag = 3
	// TagMetadata defines CBOR metadata, pushes are concatenated.
	TagMetadata Tag = 5
	// TagMetaprotocol defines metaprotocol identifier.
	TagMetaprotocol Tag = 7
	// TagContentEncoding defines encoding of the body.
	TagContentEncoding Tag = 9
	// TagDelegate defines inscription whose content is served instead.
	TagDelegate Tag = 11
	// TagRune defines rune name commitment.
	TagRune Tag = 13
	// TagNote defines free-form note.
	TagNote Tag = 15
	// TagUnbound defines unbound tag.
	TagUnbound Tag = 66
	// TagNop defines no-op tag.
	TagNop Tag = 255
)
