// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ErrMalformedInscription defines that inscription is malformed and failed to parse.
var ErrMalformedInscription = errors.New("inscription is malformed")

// ErrRepeatedFieldData defines that already filled field met while parsing.
var ErrRepeatedFieldData = errors.New("field already filled")

// inscriptionOrdTag defines ord tag for inscription to disambiguate inscriptions from other uses of envelopes.
const inscriptionOrdTag string = "ord"

// maxBodyDataPushLen defines maximum size of the data push for bitcoin scripts.
const maxBodyDataPushLen int = 520

// taprootAnnexTag defines first byte of the optional annex, the last witness element.
const taprootAnnexTag byte = 0x50

// Inscription describes inscription type of the inscription protocol,
// which inscribe sats with arbitrary content, creating bitcoin-native digital artifacts.
type Inscription struct {
	ID              ID
	Body            []byte
	ContentEncoding string
	ContentType     string
	Delegate        *ID
	Metadata        []byte
	Metaprotocol    string
	Parents         []ID
	Pointer         *big.Int
	Rune            *big.Int
}

// token describes single tokenized script instruction.
type token struct {
	op   byte
	data []byte
}

// push returns pushed bytes if token is a push instruction.
func (t token) push() ([]byte, bool) {
	switch {
	case t.op == txscript.OP_0:
		return []byte{}, true
	case t.op <= txscript.OP_PUSHDATA4:
		return t.data, true
	case t.op == txscript.OP_1NEGATE:
		return []byte{0x81}, true
	case t.op >= txscript.OP_1 && t.op <= txscript.OP_16:
		return []byte{t.op - txscript.OP_1 + 1}, true
	default:
		return nil, false
	}
}

// ParseFromTransaction parses every inscription revealed by transaction inputs.
// Inscriptions are indexed in the order of their envelopes across the inputs.
func ParseFromTransaction(tx *wire.MsgTx) []*Inscription {
	var (
		txID   = tx.TxHash()
		result []*Inscription
	)
	for _, in := range tx.TxIn {
		script := tapscript(in.Witness)
		if script == nil {
			continue
		}

		// inputs without valid envelopes are not inscriptions.
		envelopes, err := ParseScript(script)
		if err != nil {
			continue
		}

		for _, inscription := range envelopes {
			inscription.ID = ID{TxID: txID, Index: uint32(len(result))}
			result = append(result, inscription)
		}
	}

	return result
}

// tapscript returns leaf script of the script path spend witness, nil if witness is not one.
func tapscript(witness wire.TxWitness) []byte {
	if len(witness) >= 3 {
		if last := witness[len(witness)-1]; len(last) > 0 && last[0] == taprootAnnexTag {
			witness = witness[:len(witness)-1]
		}
	}
	if len(witness) < 2 {
		return nil
	}

	return witness[len(witness)-2]
}

// ParseScript parses every inscription envelope of the script.
func ParseScript(script []byte) ([]*Inscription, error) {
	var tokens []token
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		tokens = append(tokens, token{op: tokenizer.Opcode(), data: tokenizer.Data()})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, errors.Join(ErrMalformedInscription, err)
	}

	var result []*Inscription
	for idx := 0; idx+2 < len(tokens); idx++ {
		if !isEnvelopeStart(tokens[idx:]) {
			continue
		}

		inscription, next, err := parseEnvelope(tokens[idx+3:])
		if err != nil {
			return nil, err
		}

		result = append(result, inscription)
		idx += 3 + next - 1
	}

	return result, nil
}

// isEnvelopeStart returns true for OP_FALSE OP_IF OP_PUSH "ord" sequence.
func isEnvelopeStart(tokens []token) bool {
	return tokens[0].op == txscript.OP_FALSE &&
		tokens[1].op == txscript.OP_IF &&
		tokens[2].op <= txscript.OP_PUSHDATA4 &&
		string(tokens[2].data) == inscriptionOrdTag
}

// parseEnvelope parses envelope fields and body up to OP_ENDIF, returns count of consumed tokens.
func parseEnvelope(tokens []token) (*Inscription, int, error) {
	inscription := new(Inscription)
	for idx := 0; idx < len(tokens); {
		if tokens[idx].op == txscript.OP_ENDIF {
			return inscription, idx + 1, nil
		}

		tag, ok := tokens[idx].push()
		if !ok {
			return nil, 0, ErrMalformedInscription
		}

		// OP_0 means that all next data pushes are body parts.
		if tokens[idx].op == txscript.OP_0 {
			for idx++; idx < len(tokens); idx++ {
				if tokens[idx].op == txscript.OP_ENDIF {
					return inscription, idx + 1, nil
				}

				part, ok := tokens[idx].push()
				if !ok {
					return nil, 0, ErrMalformedInscription
				}
				inscription.Body = append(inscription.Body, part...)
			}

			break
		}

		if len(tag) != 1 || idx+1 >= len(tokens) {
			return nil, 0, ErrMalformedInscription
		}
		value, ok := tokens[idx+1].push()
		if !ok {
			return nil, 0, ErrMalformedInscription
		}

		if err := inscription.fillFieldByTag(Tag(tag[0]), value); err != nil {
			return nil, 0, err
		}
		idx += 2
	}

	return nil, 0, ErrMalformedInscription
}

// fillFieldByTag fills Inscription fields by provided tag.
func (i *Inscription) fillFieldByTag(tag Tag, value []byte) error {
	switch tag {
	case TagContentType:
		if len(i.ContentType) != 0 {
			return ErrRepeatedFieldData
		}

		i.ContentType = string(value)
	case TagPointer:
		if i.Pointer != nil {
			return ErrRepeatedFieldData
		}

		i.Pointer = littleEndianInt(value)
	case TagParent:
		id, err := NewIDFromDataPush(value)
		if err != nil {
			return errors.Join(ErrMalformedInscription, err)
		}

		i.Parents = append(i.Parents, *id)
	case TagMetadata:
		i.Metadata = append(i.Metadata, value...)
	case TagMetaprotocol:
		if len(i.Metaprotocol) != 0 {
			return ErrRepeatedFieldData
		}

		i.Metaprotocol = string(value)
	case TagContentEncoding:
		if len(i.ContentEncoding) != 0 {
			return ErrRepeatedFieldData
		}

		i.ContentEncoding = string(value)
	case TagDelegate:
		if i.Delegate != nil {
			return ErrRepeatedFieldData
		}

		id, err := NewIDFromDataPush(value)
		if err != nil {
			return errors.Join(ErrMalformedInscription, err)
		}

		i.Delegate = id
	case TagRune:
		i.Rune = littleEndianInt(value)
	case TagNote, TagNop, TagUnbound:
	default:
		// odd tags are optional to recognize.
		if tag%2 == 0 {
			return ErrMalformedInscription
		}
	}

	return nil
}

// IntoScript returns Inscription as an envelope script.
func (i *Inscription) IntoScript() ([]byte, error) {
	scriptBuilder := txscript.NewScriptBuilder()

	// inscription protocol start.
	scriptBuilder.AddOp(txscript.OP_FALSE)
	scriptBuilder.AddOp(txscript.OP_IF)
	scriptBuilder.AddData([]byte(inscriptionOrdTag))

	addField := func(tag Tag, value []byte) {
		scriptBuilder.AddOps([]byte{txscript.OP_DATA_1, byte(tag)})
		scriptBuilder.AddData(value)
	}

	if len(i.ContentType) != 0 {
		addField(TagContentType, []byte(i.ContentType))
	}
	if i.Pointer != nil {
		addField(TagPointer, intoLittleEndian(i.Pointer))
	}
	for _, parent := range i.Parents {
		addField(TagParent, parent.IntoDataPush())
	}
	for _, chunk := range chunks(i.Metadata) {
		addField(TagMetadata, chunk)
	}
	if len(i.Metaprotocol) != 0 {
		addField(TagMetaprotocol, []byte(i.Metaprotocol))
	}
	if len(i.ContentEncoding) != 0 {
		addField(TagContentEncoding, []byte(i.ContentEncoding))
	}
	if i.Delegate != nil {
		addField(TagDelegate, i.Delegate.IntoDataPush())
	}
	if i.Rune != nil {
		addField(TagRune, intoLittleEndian(i.Rune))
	}

	if len(i.Body) == 0 {
		// inscription protocol end.
		scriptBuilder.AddOp(txscript.OP_ENDIF)

		return scriptBuilder.Script()
	}

	scriptBuilder.AddOp(txscript.OP_0)
	script, err := scriptBuilder.Script()
	if err != nil {
		return nil, err
	}

	// body pushes are built separately to stay under builder script size limit.
	for _, chunk := range chunks(i.Body) {
		part, err := txscript.NewScriptBuilder().AddData(chunk).Script()
		if err != nil {
			return nil, err
		}

		script = append(script, part...)
	}

	// inscription protocol end.
	return append(script, txscript.OP_ENDIF), nil
}

// IntoScriptForWitness returns Inscription script with x-only public key check at the beginning for witness data.
func (i *Inscription) IntoScriptForWitness(xOnlyPubKey []byte) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().AddData(xOnlyPubKey).AddOp(txscript.OP_CHECKSIG).Script()
	if err != nil {
		return nil, err
	}

	envelope, err := i.IntoScript()
	if err != nil {
		return nil, err
	}

	return append(script, envelope...), nil
}

// chunks splits data into maxBodyDataPushLen sized parts.
func chunks(data []byte) [][]byte {
	var result [][]byte
	for len(data) > maxBodyDataPushLen {
		result = append(result, data[:maxBodyDataPushLen])
		data = data[maxBodyDataPushLen:]
	}
	if len(data) > 0 {
		result = append(result, data)
	}

	return result
}

func littleEndianInt(value []byte) *big.Int {
	reversed := make([]byte, len(value))
	for idx, b := range value {
		reversed[len(value)-1-idx] = b
	}

	return new(big.Int).SetBytes(reversed)
}

func intoLittleEndian(value *big.Int) []byte {
	data := value.Bytes()
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}

	return data
}
