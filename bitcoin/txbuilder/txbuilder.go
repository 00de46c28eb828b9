// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/rs/zerolog"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

const (
	// txVersion defines transaction version for this builder.
	txVersion int32 = 2
	// rbfSequence defines input sequence which signals opt-in replace-by-fee.
	rbfSequence uint32 = wire.MaxTxInSequenceNum - 2
	// changePlaceholder defines temporary change value used to shape the transaction during fee convergence.
	changePlaceholder btcutil.Amount = 1
)

// Keyring signs transaction inputs with keys it owns.
type Keyring interface {
	// SignInput adds signature of the input to the packet.
	SignInput(ctx context.Context, req SignInputRequest) error
}

// SignInputRequest describes input to be signed by the keyring.
type SignInputRequest struct {
	Packet      *psbt.Packet
	InputIndex  int
	PublicKey   []byte
	SigHashType txscript.SigHashType
	// TapMerkleRoot is a script tree root committed by taproot tweak, empty for key path only outputs.
	TapMerkleRoot []byte
}

// OutputKind defines the role of the output in transaction.
type OutputKind int

const (
	// OutputSpend defines output paying recipient.
	OutputSpend OutputKind = iota
	// OutputChange defines the single change output which absorbs leftovers and fee adjustments.
	OutputChange
	// OutputReturn defines output returning a unit of spent output to the owner unchanged.
	OutputReturn
)

// String returns kind name.
func (k OutputKind) String() string {
	switch k {
	case OutputSpend:
		return "spend"
	case OutputChange:
		return "change"
	case OutputReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Input describes transaction input.
type Input struct {
	UTXO       bitcoin.UTXO
	PublicKey  []byte
	ScriptType string
}

// Output describes transaction output.
type Output struct {
	Address  string
	Amount   btcutil.Amount
	Kind     OutputKind
	PkScript []byte
}

// Params describes data needed to create Builder.
type Params struct {
	Network       bitcoin.Network
	PublicKey     []byte
	ChangeAddress string
	FeeRate       btcutil.Amount // fee rate in satoshi per kilo virtual byte.
	Keyring       Keyring
	Logger        zerolog.Logger
}

// Builder accumulates inputs and outputs of a single transaction and keeps
// unspent = sum(inputs) - sum(outputs). Builder is single use and must not be shared.
type Builder struct {
	networkParams *chaincfg.Params
	publicKey     []byte
	changeAddress string
	changeScript  []byte
	feeRate       btcutil.Amount
	keyring       Keyring
	log           zerolog.Logger

	inputs      []Input
	outputs     []Output
	changeIndex int
	expected    map[string]int // inscription id to index of the output it leaves through.
}

// NewBuilder is a constructor for Builder.
func NewBuilder(params Params) (*Builder, error) {
	if params.FeeRate <= 0 {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "fee rate must be positive")
	}
	if params.Keyring == nil {
		return nil, errors.New("keyring is not set")
	}
	if _, err := btcec.ParsePubKey(params.PublicKey); err != nil {
		return nil, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageRequest, err)
	}

	b := &Builder{
		networkParams: params.Network.Params(),
		publicKey:     params.PublicKey,
		feeRate:       params.FeeRate,
		keyring:       params.Keyring,
		log:           params.Logger,
		changeIndex:   -1,
	}

	return b, b.SetChangeAddress(params.ChangeAddress)
}

// FeeRateFromSatPerVByte converts fee rate in satoshi per virtual byte to satoshi per kilo virtual byte, rounding up.
func FeeRateFromSatPerVByte(satPerVByte float64) btcutil.Amount {
	return btcutil.Amount(math.Ceil(satPerVByte * 1000))
}

// SetChangeAddress sets address of the change, updates existing change output.
func (b *Builder) SetChangeAddress(address string) error {
	script, err := b.addressScript(address)
	if err != nil {
		return err
	}

	b.changeAddress, b.changeScript = address, script
	if b.changeIndex >= 0 {
		b.outputs[b.changeIndex].Address = address
		b.outputs[b.changeIndex].PkScript = script
	}

	return nil
}

// ChangeAddress returns address of the change.
func (b *Builder) ChangeAddress() string {
	return b.changeAddress
}

// AddInput appends utxo to the inputs.
func (b *Builder) AddInput(utxo bitcoin.UTXO) error {
	if err := utxo.Validate(); err != nil {
		return walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageSelect, err)
	}

	for _, input := range b.inputs {
		if strings.EqualFold(input.UTXO.OutPoint(), utxo.OutPoint()) {
			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageSelect, "duplicate input %s", utxo.OutPoint())
		}
	}

	scriptType, err := ScriptType(utxo.Script)
	if err != nil {
		return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageSelect, "input %s: %v", utxo.OutPoint(), err)
	}

	b.inputs = append(b.inputs, Input{UTXO: utxo, PublicKey: b.publicKey, ScriptType: scriptType})

	return nil
}

// AddOutput appends spend output to the outputs.
func (b *Builder) AddOutput(address string, amount btcutil.Amount) error {
	script, err := b.addressScript(address)
	if err != nil {
		return err
	}

	b.outputs = append(b.outputs, Output{Address: address, Amount: amount, Kind: OutputSpend, PkScript: script})

	return nil
}

// AddReturnOutput appends output to the change address which is never merged or adjusted.
func (b *Builder) AddReturnOutput(amount btcutil.Amount) {
	b.outputs = append(b.outputs, Output{Address: b.changeAddress, Amount: amount, Kind: OutputReturn, PkScript: b.changeScript})
}

// AddChangeOutput increases change output by amount, creates it if absent.
// Only the last output is ever increased: when other outputs were appended after
// the change output, it is kept as is and new change output is appended.
func (b *Builder) AddChangeOutput(amount btcutil.Amount) {
	last := len(b.outputs) - 1
	if b.changeIndex >= 0 && b.changeIndex == last {
		b.outputs[last].Amount += amount
		return
	}
	if b.changeIndex >= 0 {
		b.outputs[b.changeIndex].Kind = OutputReturn
	}

	b.outputs = append(b.outputs, Output{Address: b.changeAddress, Amount: amount, Kind: OutputChange, PkScript: b.changeScript})
	b.changeIndex = len(b.outputs) - 1
}

// RemoveChangeOutput removes change output if any.
func (b *Builder) RemoveChangeOutput() {
	if b.changeIndex < 0 {
		return
	}

	b.outputs = append(b.outputs[:b.changeIndex], b.outputs[b.changeIndex+1:]...)
	b.changeIndex = -1
}

// RemoveRecentOutputs removes n last outputs.
func (b *Builder) RemoveRecentOutputs(n int) {
	if n <= 0 {
		return
	}
	if n > len(b.outputs) {
		n = len(b.outputs)
	}

	b.outputs = b.outputs[:len(b.outputs)-n]
	if b.changeIndex >= len(b.outputs) {
		b.changeIndex = -1
	}
}

// TotalInput returns sum of inputs amounts.
func (b *Builder) TotalInput() btcutil.Amount {
	var total btcutil.Amount
	for _, input := range b.inputs {
		total += input.UTXO.Amount
	}

	return total
}

// TotalOutput returns sum of outputs amounts.
func (b *Builder) TotalOutput() btcutil.Amount {
	var total btcutil.Amount
	for _, output := range b.outputs {
		total += output.Amount
	}

	return total
}

// Unspent returns inputs amount not allocated to outputs, negative value means lack of funds.
func (b *Builder) Unspent() btcutil.Amount {
	return b.TotalInput() - b.TotalOutput()
}

// EstimateVirtualSize returns worst case virtual size of the signed transaction.
func (b *Builder) EstimateVirtualSize() int {
	var p2pkh, p2tr, p2wpkh, nested int
	for _, input := range b.inputs {
		switch input.ScriptType {
		case P2PKH:
			p2pkh++
		case P2TR:
			p2tr++
		case P2WPKH:
			p2wpkh++
		case P2SHP2WPKH:
			nested++
		}
	}

	return txsizes.EstimateVirtualSize(p2pkh, p2tr, p2wpkh, nested, b.txOuts(), 0)
}

// CalculateNetworkFee returns fee of the current transaction shape in satoshi.
func (b *Builder) CalculateNetworkFee() btcutil.Amount {
	return feeForVirtualSize(b.feeRate, b.EstimateVirtualSize())
}

// IsEnoughFee returns true if unspent amount covers network fee.
func (b *Builder) IsEnoughFee() bool {
	return b.Unspent() >= b.CalculateNetworkFee()
}

// AdjustFee converges outputs to pay network fee.
//
// With force, missing fee is deducted from the last spend output.
// Otherwise, change output is shaped first and set to what is left after fee,
// or dropped when the left amount is dust. Change output followed by other
// outputs is only ever decreased and never dropped, so satoshis of the
// following outputs keep their order.
func (b *Builder) AdjustFee(force bool) error {
	if force {
		return b.deductFee()
	}

	if b.changeIndex < 0 {
		b.AddChangeOutput(changePlaceholder)
	}

	var (
		isLast    = b.changeIndex == len(b.outputs)-1
		change    = b.outputs[b.changeIndex].Amount
		available = b.Unspent() + change
		fee       = b.CalculateNetworkFee()
		left      = available - fee
	)
	switch {
	case !isLast && left > change:
		return nil
	case left >= bitcoin.DustAmount:
		b.outputs[b.changeIndex].Amount = left
		b.log.Info().Int64("fee", int64(fee)).Int64("change", int64(left)).Msg("fee adjusted")
		return nil
	case !isLast:
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageFee,
			NewInsufficientError(b.TotalOutput()-change+bitcoin.DustAmount+fee, b.TotalInput()).setCauser(CauserFee))
	}

	b.RemoveChangeOutput()
	fee = b.CalculateNetworkFee()
	if b.Unspent() < fee {
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageFee,
			NewInsufficientError(b.TotalOutput()+fee, b.TotalInput()).setCauser(CauserFee))
	}

	b.log.Info().Int64("fee", int64(fee)).Int64("excess", int64(b.Unspent()-fee)).Msg("fee adjusted without change")

	return nil
}

// deductFee takes missing fee from the last spend output.
func (b *Builder) deductFee() error {
	fee := b.CalculateNetworkFee()
	missing := fee - b.Unspent()
	if missing <= 0 {
		return nil
	}

	idx := b.spendOutputIndex()
	if idx < 0 {
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageFee,
			NewInsufficientError(b.TotalOutput()+fee, b.TotalInput()).setCauser(CauserFee))
	}

	amount := b.outputs[idx].Amount - missing
	if amount < bitcoin.DustAmount {
		need := b.TotalOutput() - b.outputs[idx].Amount + bitcoin.DustAmount + fee
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageFee,
			NewInsufficientError(need, b.TotalInput()).setCauser(CauserFee))
	}

	b.outputs[idx].Amount = amount
	b.log.Info().Int64("fee", int64(fee)).Int64("output", int64(amount)).Msg("fee deducted from spend output")

	return nil
}

// Inputs returns copy of the inputs.
func (b *Builder) Inputs() []Input {
	return append([]Input(nil), b.inputs...)
}

// Outputs returns copy of the outputs.
func (b *Builder) Outputs() []Output {
	return append([]Output(nil), b.outputs...)
}

// ChangeOutput returns change output if any.
func (b *Builder) ChangeOutput() (Output, bool) {
	if b.changeIndex < 0 {
		return Output{}, false
	}

	return b.outputs[b.changeIndex], true
}

// spendOutputIndex returns index of the last spend output, -1 if absent.
func (b *Builder) spendOutputIndex() int {
	for i := len(b.outputs) - 1; i >= 0; i-- {
		if b.outputs[i].Kind == OutputSpend {
			return i
		}
	}

	return -1
}

// lastOutput returns pointer to the last output, nil if absent.
func (b *Builder) lastOutput() *Output {
	if len(b.outputs) == 0 {
		return nil
	}

	return &b.outputs[len(b.outputs)-1]
}

// addressScript decodes address on builder network into locking script.
func (b *Builder) addressScript(address string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, b.networkParams)
	if err != nil {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "address %q: %v", address, err)
	}
	if !decoded.IsForNet(b.networkParams) {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "address %q is not for %s", address, b.networkParams.Name)
	}

	return txscript.PayToAddrScript(decoded)
}

// txOuts returns outputs in wire format.
func (b *Builder) txOuts() []*wire.TxOut {
	txOuts := make([]*wire.TxOut, 0, len(b.outputs))
	for _, output := range b.outputs {
		txOuts = append(txOuts, wire.NewTxOut(int64(output.Amount), output.PkScript))
	}

	return txOuts
}

// feeForVirtualSize returns fee for provided size and rate in satoshi per kilo virtual byte, rounding up.
func feeForVirtualSize(satPerKVByte btcutil.Amount, vSize int) btcutil.Amount {
	return (satPerKVByte*btcutil.Amount(vSize) + 999) / 1000
}
