// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/bitcoin"
	"github.com/BoostyLabs/staking/bitcoin/runes"
	"github.com/BoostyLabs/staking/bitcoin/timelock"
	"github.com/BoostyLabs/staking/internal/numbers"
)

const (
	// txVersion defines transaction version for this builder.
	txVersion int32 = 2
	// signHashType define signature hash type for input signing.
	signHashType = txscript.SigHashAll

	// LockedInputSequence enables lock time check and keeps the input not final.
	LockedInputSequence uint32 = wire.MaxTxInSequenceNum - 1
	// KeyPathInputSequence defines sequence of staker key-path inputs.
	KeyPathInputSequence uint32 = 0
	// LockedOutput defines index of the output which pays the lock in stake and restake transactions.
	LockedOutput uint32 = 0
)

var (
	// nonDustBitcoinAmount defined the smallest needed amount in satoshi to link to rune output
	// and the smallest change worth an output.
	nonDustBitcoinAmount = big.NewInt(546)

	// runeReturnOutput defines output which receives unstaked rune remainder.
	runeReturnOutput uint32 = 1
)

var (
	// ErrTxBuilder defines errors class for the transaction builder.
	ErrTxBuilder = errors.New("tx builder")
	// ErrNoLockedOutputs defines that there is nothing to sweep from locked address.
	ErrNoLockedOutputs = errors.New("no outputs found at locked address")
	// ErrMissingAssetOutput defines that asset stake has no asset output.
	ErrMissingAssetOutput = errors.New("asset output is required")
	// ErrInvalidAmount defines non positive amount to stake.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// StakeKind defines shape of the stake transaction.
type StakeKind int

const (
	// StakeBTC locks plain satoshi amount.
	StakeBTC StakeKind = iota
	// StakeInscription locks the whole output carrying an inscription.
	StakeInscription
	// StakeRune locks rune amount with the runestone assigning it to the locked output.
	StakeRune
)

// String returns StakeKind name.
func (k StakeKind) String() string {
	switch k {
	case StakeBTC:
		return "btc"
	case StakeInscription:
		return "inscription"
	case StakeRune:
		return "rune"
	}

	return fmt.Sprintf("unknown(%d)", int(k))
}

// StakeParams describes data needed to build stake transaction.
type StakeParams struct {
	Kind            StakeKind
	Lock            *timelock.Lock
	StakerPubKey    string        // compressed staker public key in hex.
	StakerAddress   string        // staker taproot address, spends asset and fee outputs, receives change.
	TreasuryAddress string        // service fee recipient.
	Amount          *big.Int      // satoshi for btc, rune amount for runes, ignored for inscriptions.
	RuneID          runes.RuneID  // rune to stake, for runes only.
	AssetUTXO       *bitcoin.UTXO // output carrying inscription or runes.
	FeeUTXO         *bitcoin.UTXO // plain output covering amount and fees, may be nil for funding estimation.
	ServiceFee      *big.Int      // satoshi.
	FeeRate         *big.Int      // satoshi per virtual byte.
}

// LockedUTXO is the output held by locked address.
type LockedUTXO struct {
	bitcoin.UTXO
	PrevTx *wire.MsgTx // previous transaction, mandatory for p2sh locks.
}

// SweepParams describes data needed to build transaction spending every locked output.
type SweepParams struct {
	Lock               *timelock.Lock
	LockedUTXOs        []LockedUTXO  // assets first.
	StakerPubKey       string        // compressed staker public key in hex.
	StakerAddress      string        // staker taproot address, spends fee output and receives change.
	DestinationAddress string        // receives swept values, staker address on claim and new lock on restake.
	TreasuryAddress    string        // service fee recipient.
	FeeUTXO            *bitcoin.UTXO // plain output covering fees, may be nil for funding estimation.
	ServiceFee         *big.Int      // satoshi.
	FeeRate            *big.Int      // satoshi per virtual byte.
}

// Funding describes fee requirements of the transaction before the fee output is chosen.
type Funding struct {
	VSize      int64
	NetworkFee *big.Int
	Required   *big.Int // minimal value of the fee output.
}

// Template is an unsigned transaction wrapped into PSBT for external signing.
type Template struct {
	Packet     *psbt.Packet
	VSize      int64
	NetworkFee *big.Int // effective network fee, includes dust change.
	Change     *big.Int
}

// Serialize returns serialized PSBT.
func (t *Template) Serialize() ([]byte, error) {
	w := bytes.NewBuffer(nil)
	if err := t.Packet.Serialize(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// Hex returns hex encoded PSBT.
func (t *Template) Hex() (string, error) {
	data, err := t.Serialize()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(data), nil
}

// output defines transaction output before it is added to the transaction.
type output struct {
	amount   *big.Int
	pkScript []byte
}

// input defines transaction input with its psbt preparation data.
type input struct {
	utxo     *bitcoin.UTXO
	prevTx   *wire.MsgTx
	sequence uint32
	builder  *PSBTInputBuilder
}

// plan defines transaction shape shared by funding estimation and building.
type plan struct {
	inputs       []input // without fee input.
	outputs      []output
	lockedInputs int
	lock         *timelock.Lock
	runestone    []byte
	lockTime     uint32
	// outlay is the part of outputs paid from the fee input.
	outlay *big.Int
}

// TxBuilder provides transaction building related logic.
type TxBuilder struct {
	networkParams *chaincfg.Params
}

// NewTxBuilder is a constructor for TxBuilder.
func NewTxBuilder(networkParams *chaincfg.Params) *TxBuilder {
	return &TxBuilder{
		networkParams: networkParams,
	}
}

// StakeFunding returns size, network fee and minimal fee output value for the stake transaction.
func (b *TxBuilder) StakeFunding(params StakeParams) (*Funding, error) {
	stakerBuilder, err := NewPSBTInputBuilder(params.StakerPubKey, params.StakerAddress, b.networkParams)
	if err != nil {
		return nil, err
	}

	p, err := b.stakePlan(params, stakerBuilder)
	if err != nil {
		return nil, errors.Join(ErrTxBuilder, err)
	}

	return b.funding(p, len(stakerBuilder.PkScript()), params.FeeRate)
}

// SweepFunding returns size, network fee and minimal fee output value for the sweep transaction.
func (b *TxBuilder) SweepFunding(params SweepParams) (*Funding, error) {
	stakerBuilder, err := NewPSBTInputBuilder(params.StakerPubKey, params.StakerAddress, b.networkParams)
	if err != nil {
		return nil, err
	}

	p, err := b.sweepPlan(params)
	if err != nil {
		return nil, errors.Join(ErrTxBuilder, err)
	}

	return b.funding(p, len(stakerBuilder.PkScript()), params.FeeRate)
}

// BuildStake constructs stake transaction template.
//
//	Tx struct
//	inputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│       0 │ asset input  │ optional, inscription or rune output   │
//	│         │              │ of the staker.                         │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│     0/1 │ fee input    │ plain staker output, covers amount,    │
//	│         │              │ service and network fees.              │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
//	outputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│       0 │ locked       │ mandatory, btc amount or asset output  │
//	│         │              │ value to the locked address.           │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       1 │ rune return  │ optional, runes only, receives rune    │
//	│         │              │ remainder by runestone pointer.        │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       n │ service fee  │ treasury commission, if not 0.         │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│     n+1 │ change       │ staker change, if not dust.            │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│    last │ runestone    │ runes only, 0 sats, edict assigns      │
//	│         │              │ staked amount to output 0.             │
//	└─────────┴──────────────┴────────────────────────────────────────┘
func (b *TxBuilder) BuildStake(params StakeParams) (*Template, error) {
	stakerBuilder, err := NewPSBTInputBuilder(params.StakerPubKey, params.StakerAddress, b.networkParams)
	if err != nil {
		return nil, err
	}

	p, err := b.stakePlan(params, stakerBuilder)
	if err != nil {
		return nil, errors.Join(ErrTxBuilder, err)
	}

	return b.build(p, stakerBuilder, params.FeeUTXO, params.FeeRate)
}

// BuildSweep constructs transaction spending every locked output after the lock expires.
// Used for claim (destination is the staker) and restake (destination is another lock).
//
//	Tx struct
//	inputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│   0 - k │ locked       │ locked address outputs, assets first,  │
//	│         │              │ sequence 0xfffffffe.                   │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│     k+1 │ fee input    │ plain staker output, sequence 0.       │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
//	outputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│   0 - k │ swept        │ value preserving output per locked     │
//	│         │              │ input to the destination.              │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│     k+1 │ service fee  │ treasury commission, if not 0.         │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│     k+2 │ change       │ staker change, if not dust.            │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
// Transaction lock time equals the lock height.
func (b *TxBuilder) BuildSweep(params SweepParams) (*Template, error) {
	stakerBuilder, err := NewPSBTInputBuilder(params.StakerPubKey, params.StakerAddress, b.networkParams)
	if err != nil {
		return nil, err
	}

	p, err := b.sweepPlan(params)
	if err != nil {
		return nil, errors.Join(ErrTxBuilder, err)
	}

	return b.build(p, stakerBuilder, params.FeeUTXO, params.FeeRate)
}

// stakePlan returns stake transaction shape.
func (b *TxBuilder) stakePlan(params StakeParams, stakerBuilder *PSBTInputBuilder) (*plan, error) {
	if params.Lock == nil {
		return nil, errors.New("lock is required")
	}

	p := &plan{lock: params.Lock, outlay: big.NewInt(0)}

	switch params.Kind {
	case StakeBTC:
		if params.Amount == nil || !numbers.IsPositive(params.Amount) {
			return nil, ErrInvalidAmount
		}

		p.outputs = append(p.outputs, output{new(big.Int).Set(params.Amount), params.Lock.PkScript})
		p.outlay.Add(p.outlay, params.Amount)
	case StakeInscription:
		if params.AssetUTXO == nil {
			return nil, ErrMissingAssetOutput
		}

		p.inputs = append(p.inputs, input{utxo: params.AssetUTXO, sequence: KeyPathInputSequence, builder: stakerBuilder})
		p.outputs = append(p.outputs, output{new(big.Int).Set(params.AssetUTXO.Amount), params.Lock.PkScript})
	case StakeRune:
		if params.AssetUTXO == nil {
			return nil, ErrMissingAssetOutput
		}
		if params.Amount == nil || !numbers.IsPositive(params.Amount) {
			return nil, ErrInvalidAmount
		}

		runeAmount := params.AssetUTXO.RuneAmount(params.RuneID)
		if numbers.IsLess(runeAmount, params.Amount) {
			return nil, NewInsufficientError(InsufficientErrorTypeRune, params.Amount, runeAmount).setCauser(CauserAsset)
		}

		p.inputs = append(p.inputs, input{utxo: params.AssetUTXO, sequence: KeyPathInputSequence, builder: stakerBuilder})
		p.outputs = append(p.outputs, output{new(big.Int).Set(params.AssetUTXO.Amount), params.Lock.PkScript})

		var pointer *uint32
		if numbers.IsGreater(runeAmount, params.Amount) {
			p.outputs = append(p.outputs, output{new(big.Int).Set(nonDustBitcoinAmount), stakerBuilder.PkScript()})
			p.outlay.Add(p.outlay, nonDustBitcoinAmount)
			pointer = &runeReturnOutput
		}

		runestone := runes.NewTransferRunestone(params.RuneID, params.Amount, LockedOutput, pointer)

		var err error
		p.runestone, err = runestone.IntoScript()
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown stake kind: %s", params.Kind)
	}

	if err := b.addServiceFee(p, params.TreasuryAddress, params.ServiceFee); err != nil {
		return nil, err
	}

	return p, nil
}

// sweepPlan returns sweep transaction shape.
func (b *TxBuilder) sweepPlan(params SweepParams) (*plan, error) {
	if params.Lock == nil {
		return nil, errors.New("lock is required")
	}
	if len(params.LockedUTXOs) == 0 {
		return nil, ErrNoLockedOutputs
	}

	destination, err := b.payToAddress(params.DestinationAddress)
	if err != nil {
		return nil, err
	}

	p := &plan{
		lock:         params.Lock,
		lockedInputs: len(params.LockedUTXOs),
		lockTime:     params.Lock.LockTime,
		outlay:       big.NewInt(0),
	}

	lockedBuilder := NewLockedPSBTInputBuilder(params.Lock)
	for i := range params.LockedUTXOs {
		locked := &params.LockedUTXOs[i]
		p.inputs = append(p.inputs, input{
			utxo:     &locked.UTXO,
			prevTx:   locked.PrevTx,
			sequence: LockedInputSequence,
			builder:  lockedBuilder,
		})
		p.outputs = append(p.outputs, output{new(big.Int).Set(locked.Amount), destination})
	}

	if err = b.addServiceFee(p, params.TreasuryAddress, params.ServiceFee); err != nil {
		return nil, err
	}

	return p, nil
}

// addServiceFee adds treasury output paid from the fee input.
func (b *TxBuilder) addServiceFee(p *plan, treasuryAddress string, serviceFee *big.Int) error {
	if serviceFee == nil || !numbers.IsPositive(serviceFee) {
		return nil
	}

	treasury, err := b.payToAddress(treasuryAddress)
	if err != nil {
		return err
	}

	p.outputs = append(p.outputs, output{new(big.Int).Set(serviceFee), treasury})
	p.outlay.Add(p.outlay, serviceFee)

	return nil
}

// funding estimates virtual size with change output and derives required fee output value.
func (b *TxBuilder) funding(p *plan, changeScriptSize int, feeRate *big.Int) (*Funding, error) {
	if feeRate == nil || feeRate.Sign() < 0 {
		return nil, errors.Join(ErrTxBuilder, errors.New("invalid fee rate"))
	}

	txOuts := make([]*wire.TxOut, 0, len(p.outputs)+1)
	for _, out := range p.outputs {
		txOuts = append(txOuts, wire.NewTxOut(out.amount.Int64(), out.pkScript))
	}
	if p.runestone != nil {
		txOuts = append(txOuts, wire.NewTxOut(0, p.runestone))
	}

	numTaprootIns := len(p.inputs) - p.lockedInputs + 1
	vsize := EstimateVirtualSize(numTaprootIns, p.lock, p.lockedInputs, txOuts, changeScriptSize)

	networkFee := new(big.Int).Mul(big.NewInt(vsize), feeRate)

	return &Funding{
		VSize:      vsize,
		NetworkFee: networkFee,
		Required:   new(big.Int).Add(networkFee, p.outlay),
	}, nil
}

// build assembles the transaction from plan and fee input, wraps it into PSBT.
func (b *TxBuilder) build(p *plan, stakerBuilder *PSBTInputBuilder, feeUTXO *bitcoin.UTXO, feeRate *big.Int) (*Template, error) {
	if feeUTXO == nil {
		return nil, errors.Join(ErrTxBuilder, errors.New("fee output is required"))
	}

	funding, err := b.funding(p, len(stakerBuilder.PkScript()), feeRate)
	if err != nil {
		return nil, err
	}

	if numbers.IsLess(feeUTXO.Amount, funding.Required) {
		return nil, NewInsufficientError(InsufficientErrorTypeBitcoin, funding.Required, feeUTXO.Amount).setCauser(CauserStaker)
	}

	inputs := append(p.inputs, input{utxo: feeUTXO, sequence: KeyPathInputSequence, builder: stakerBuilder})

	tx := wire.NewMsgTx(txVersion)
	tx.LockTime = p.lockTime

	bitcoinAmount := big.NewInt(0)
	for _, in := range inputs {
		utxoHash, err := chainhash.NewHashFromStr(in.utxo.TxHash)
		if err != nil {
			return nil, errors.Join(ErrTxBuilder, err)
		}

		txIn := wire.NewTxIn(wire.NewOutPoint(utxoHash, in.utxo.Index), nil, nil)
		txIn.Sequence = in.sequence
		tx.AddTxIn(txIn)
		bitcoinAmount.Add(bitcoinAmount, in.utxo.Amount)
	}

	// subtract fee.
	networkFee := new(big.Int).Set(funding.NetworkFee)
	bitcoinAmount.Sub(bitcoinAmount, networkFee)

	for _, out := range p.outputs {
		if err = addOutput(tx, out.amount, bitcoinAmount, out.pkScript); err != nil {
			return nil, errors.Join(ErrTxBuilder, err)
		}
	}

	// change btc output.
	change := big.NewInt(0)
	switch {
	case !numbers.IsLess(bitcoinAmount, nonDustBitcoinAmount):
		change.Set(bitcoinAmount)
		if err = addOutput(tx, change, bitcoinAmount, stakerBuilder.PkScript()); err != nil {
			return nil, errors.Join(ErrTxBuilder, err)
		}
	case numbers.IsPositive(bitcoinAmount):
		// dust change goes to miners.
		networkFee.Add(networkFee, bitcoinAmount)
		bitcoinAmount.SetInt64(0)
	}

	// runestone output, always the last one.
	if p.runestone != nil {
		tx.AddTxOut(wire.NewTxOut(0, p.runestone))
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, errors.Join(ErrTxBuilder, err)
	}

	indexes := make(map[InputsHelpingKey][]int, 2)
	for idx, in := range inputs {
		if err = in.builder.PrepareInput(&packet.Inputs[idx], in.utxo, in.prevTx); err != nil {
			return nil, err
		}

		key := in.builder.InputsHelpingKey()
		indexes[key] = append(indexes[key], idx)
	}
	addInputsHelpingKeys(packet, indexes)

	return &Template{
		Packet:     packet,
		VSize:      funding.VSize,
		NetworkFee: networkFee,
		Change:     change,
	}, nil
}

// payToAddress returns output script of the address.
func (b *TxBuilder) payToAddress(address string) ([]byte, error) {
	recipientAddress, err := btcutil.DecodeAddress(address, b.networkParams)
	if err != nil {
		return nil, err
	}

	if !recipientAddress.IsForNet(b.networkParams) {
		return nil, fmt.Errorf("address %s is not for %s", address, b.networkParams.Name)
	}

	return txscript.PayToAddrScript(recipientAddress)
}

// addOutput adds output to transaction, subtracts amount from unallocated amount.
func addOutput(tx *wire.MsgTx, amount, unallocatedAmount *big.Int, pkScript []byte) error {
	if numbers.IsLess(unallocatedAmount, amount) {
		return errors.New("unallocated amount is less than the amount in provided inputs")
	}

	tx.AddTxOut(wire.NewTxOut(amount.Int64(), pkScript))
	unallocatedAmount.Sub(unallocatedAmount, amount)

	return nil
}
