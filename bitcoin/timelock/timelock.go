// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package timelock

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// LockTimeThreshold is the value below which lock time is interpreted as block height.
const LockTimeThreshold uint32 = txscript.LockTimeThreshold

// ScriptType defines how lock script is wrapped into an address.
type ScriptType string

const (
	// P2SH wraps lock script into legacy script hash payment.
	P2SH ScriptType = "p2sh"
	// P2WSH wraps lock script into native segwit script hash payment.
	P2WSH ScriptType = "p2wsh"
)

var (
	// ErrTimelock defines errors class for the timelock package.
	ErrTimelock = errors.New("timelock")
	// ErrInvalidLockHeight defines height which is not encodable as block height lock time.
	ErrInvalidLockHeight = errors.New("lock height must be positive and below lock time threshold")
	// ErrNotLockScript defines script which does not match lock script template.
	ErrNotLockScript = errors.New("script is not a lock script")
)

// ParseScriptType parses ScriptType from string.
func ParseScriptType(s string) (ScriptType, error) {
	switch ScriptType(s) {
	case P2SH, P2WSH:
		return ScriptType(s), nil
	}

	return "", fmt.Errorf("unknown lock script type: %s", s)
}

// Lock describes time-locked payment of the staker.
type Lock struct {
	PubKey   []byte // 33 bytes compressed public key.
	LockTime uint32 // encoded block height.
	Script   []byte // redeem script for P2SH, witness script for P2WSH.
	Type     ScriptType
	Address  btcutil.Address
	PkScript []byte
}

// Deriver derives time-locked and staker addresses from staker public key.
type Deriver struct {
	networkParams *chaincfg.Params
	scriptType    ScriptType
}

// NewDeriver is a constructor for Deriver.
func NewDeriver(networkParams *chaincfg.Params, scriptType ScriptType) *Deriver {
	if scriptType == "" {
		scriptType = P2SH
	}

	return &Deriver{
		networkParams: networkParams,
		scriptType:    scriptType,
	}
}

// ScriptType returns the wrapping used by the deriver.
func (d *Deriver) ScriptType() ScriptType {
	return d.scriptType
}

// Lock returns payment spendable by the key only after the chain reaches height.
func (d *Deriver) Lock(pubKeyHex string, height uint32) (_ *Lock, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrTimelock, err)
		}
	}()

	pubKey, err := parsePubKey(pubKeyHex)
	if err != nil {
		return nil, err
	}

	lockTime, err := EncodeLockTime(height)
	if err != nil {
		return nil, err
	}

	script, err := NewLockScript(pubKey.SerializeCompressed(), lockTime)
	if err != nil {
		return nil, err
	}

	lock := &Lock{
		PubKey:   pubKey.SerializeCompressed(),
		LockTime: lockTime,
		Script:   script,
		Type:     d.scriptType,
	}

	switch d.scriptType {
	case P2SH:
		lock.Address, err = btcutil.NewAddressScriptHash(script, d.networkParams)
	case P2WSH:
		hash := sha256.Sum256(script)
		lock.Address, err = btcutil.NewAddressWitnessScriptHash(hash[:], d.networkParams)
	default:
		err = fmt.Errorf("unknown lock script type: %s", d.scriptType)
	}
	if err != nil {
		return nil, err
	}

	lock.PkScript, err = txscript.PayToAddrScript(lock.Address)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// StakerAddress returns key-path only taproot address of the staker.
func (d *Deriver) StakerAddress(pubKeyHex string) (*btcutil.AddressTaproot, error) {
	pubKey, err := parsePubKey(pubKeyHex)
	if err != nil {
		return nil, errors.Join(ErrTimelock, err)
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(pubKey)
	address, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), d.networkParams)
	if err != nil {
		return nil, errors.Join(ErrTimelock, err)
	}

	return address, nil
}

// EncodeLockTime encodes block height as absolute lock time (BIP65).
func EncodeLockTime(height uint32) (uint32, error) {
	if height == 0 || height >= LockTimeThreshold {
		return 0, ErrInvalidLockHeight
	}

	return height, nil
}

// NewLockScript builds script: <lockTime> OP_CHECKLOCKTIMEVERIFY OP_DROP <pubKey> OP_CHECKSIG.
func NewLockScript(pubKey []byte, lockTime uint32) ([]byte, error) {
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return nil, errors.New("compressed public key is required")
	}

	return txscript.NewScriptBuilder().
		AddInt64(int64(lockTime)).
		AddOp(txscript.OP_CHECKLOCKTIMEVERIFY).
		AddOp(txscript.OP_DROP).
		AddData(pubKey).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// MustLockScript uses NewLockScript, panics in case of error.
func MustLockScript(pubKey []byte, lockTime uint32) []byte {
	script, err := NewLockScript(pubKey, lockTime)
	if err != nil {
		panic(err)
	}

	return script
}

// ParseLockScript returns public key and lock time of the lock script.
func ParseLockScript(script []byte) (pubKey []byte, lockTime uint32, err error) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)

	var ops []scriptOp
	for tokenizer.Next() {
		ops = append(ops, scriptOp{opcode: tokenizer.Opcode(), data: tokenizer.Data()})
	}
	if tokenizer.Err() != nil || len(ops) != 5 {
		return nil, 0, ErrNotLockScript
	}

	if ops[1].opcode != txscript.OP_CHECKLOCKTIMEVERIFY || ops[2].opcode != txscript.OP_DROP ||
		ops[3].opcode != txscript.OP_DATA_33 || ops[4].opcode != txscript.OP_CHECKSIG {
		return nil, 0, ErrNotLockScript
	}

	height, err := scriptNum(ops[0])
	if err != nil {
		return nil, 0, err
	}

	pubKey = ops[3].data
	rebuilt, err := NewLockScript(pubKey, height)
	if err != nil || !bytes.Equal(rebuilt, script) {
		return nil, 0, ErrNotLockScript
	}

	return pubKey, height, nil
}

// IsLockScript returns true if script matches lock script template.
func IsLockScript(script []byte) bool {
	_, _, err := ParseLockScript(script)
	return err == nil
}

// Spend returns unlocking data for the lock: signature script and witness stack.
func (l *Lock) Spend(signature []byte) (sigScript []byte, witness [][]byte, err error) {
	if len(signature) == 0 {
		return nil, nil, errors.New("empty signature")
	}

	switch l.Type {
	case P2SH:
		sigScript, err = txscript.NewScriptBuilder().
			AddData(signature).
			AddData(l.Script).
			Script()

		return sigScript, nil, err
	case P2WSH:
		return nil, [][]byte{signature, l.Script}, nil
	}

	return nil, nil, fmt.Errorf("unknown lock script type: %s", l.Type)
}

// LockFromScript restores Lock from lock script and wrapping type.
func LockFromScript(script []byte, scriptType ScriptType, networkParams *chaincfg.Params) (*Lock, error) {
	pubKey, lockTime, err := ParseLockScript(script)
	if err != nil {
		return nil, err
	}

	return NewDeriver(networkParams, scriptType).Lock(hex.EncodeToString(pubKey), lockTime)
}

// scriptOp is a single tokenized script operation.
type scriptOp struct {
	opcode byte
	data   []byte
}

// scriptNum decodes minimally encoded script number.
func scriptNum(op scriptOp) (uint32, error) {
	switch {
	case op.opcode >= txscript.OP_1 && op.opcode <= txscript.OP_16:
		return uint32(op.opcode - (txscript.OP_1 - 1)), nil
	case len(op.data) == 0 || len(op.data) > 5:
		return 0, ErrNotLockScript
	}

	var value uint64
	for i, b := range op.data {
		value |= uint64(b) << (8 * i)
	}

	if op.data[len(op.data)-1]&0x80 != 0 {
		return 0, ErrNotLockScript
	}
	if value >= uint64(LockTimeThreshold) || value == 0 {
		return 0, ErrInvalidLockHeight
	}

	return uint32(value), nil
}

// parsePubKey parses compressed hex public key.
func parsePubKey(pubKeyHex string) (*btcec.PublicKey, error) {
	pubKeyBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, err
	}

	if len(pubKeyBytes) != btcec.PubKeyBytesLenCompressed {
		return nil, errors.New("compressed public key is required")
	}

	return btcec.ParsePubKey(pubKeyBytes)
}
