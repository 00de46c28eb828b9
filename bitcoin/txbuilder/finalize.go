// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// TxType defines kind of the built transaction.
type TxType string

const (
	// TxTypeSendBitcoin defines plain value transfer.
	TxTypeSendBitcoin TxType = "SEND_BITCOIN"
	// TxTypeSendInscription defines inscription transfer.
	TxTypeSendInscription TxType = "SEND_INSCRIPTION"
)

// SignedTx describes signed and finalized transaction.
type SignedTx struct {
	TxID        string         `json:"txId"`
	PSBTHex     string         `json:"psbtHex"`
	RawTx       string         `json:"rawtx"`
	TxType      TxType         `json:"txType"`
	Fee         btcutil.Amount `json:"fee"`
	VirtualSize int64          `json:"vsize"`
}

// CreateSignedTransaction builds transaction from inputs and outputs, signs every input
// with keyring, validates signatures against spent scripts and serializes result.
// Nothing is returned unless every input is valid.
func (b *Builder) CreateSignedTransaction(ctx context.Context) (*SignedTx, error) {
	if err := b.checkOutputs(); err != nil {
		return nil, err
	}

	packet, err := b.buildPSBT()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageFinalize, err)
	}

	for i := range packet.Inputs {
		err = b.keyring.SignInput(ctx, SignInputRequest{
			Packet:        packet,
			InputIndex:    i,
			PublicKey:     b.inputs[i].PublicKey,
			SigHashType:   packet.Inputs[i].SighashType,
			TapMerkleRoot: packet.Inputs[i].TaprootMerkleRoot,
		})
		if err != nil {
			return nil, walleterr.Wrap(walleterr.CodeSignatureValidationFailed, walleterr.StageSign,
				fmt.Errorf("input %d: %w", i, err))
		}

		if err = FinalizeInput(packet, i, b.inputs[i].ScriptType); err != nil {
			return nil, walleterr.Wrap(walleterr.CodeSignatureValidationFailed, walleterr.StageFinalize,
				fmt.Errorf("input %d: %w", i, err))
		}
	}

	tx, err := psbt.Extract(packet)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.CodeSignatureValidationFailed, walleterr.StageFinalize, err)
	}

	if err = b.verifyInputs(tx); err != nil {
		return nil, err
	}

	var rawTx, rawPSBT bytes.Buffer
	if err = tx.Serialize(&rawTx); err != nil {
		return nil, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageFinalize, err)
	}
	if err = packet.Serialize(&rawPSBT); err != nil {
		return nil, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageFinalize, err)
	}

	signed := &SignedTx{
		TxID:        tx.TxHash().String(),
		PSBTHex:     hex.EncodeToString(rawPSBT.Bytes()),
		RawTx:       hex.EncodeToString(rawTx.Bytes()),
		Fee:         b.Unspent(),
		VirtualSize: mempool.GetTxVirtualSize(btcutil.NewTx(tx)),
	}

	b.log.Info().
		Str("txid", signed.TxID).
		Int("inputs", len(tx.TxIn)).
		Int("outputs", len(tx.TxOut)).
		Int64("fee", int64(signed.Fee)).
		Int64("vsize", signed.VirtualSize).
		Msg("transaction signed")

	return signed, nil
}

// checkOutputs rejects transactions with lack of funds or non standard outputs.
func (b *Builder) checkOutputs() error {
	if len(b.inputs) == 0 || len(b.outputs) == 0 {
		return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize, "transaction has no inputs or outputs")
	}
	if b.Unspent() < 0 {
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageFinalize,
			NewInsufficientError(b.TotalOutput(), b.TotalInput()))
	}

	for i, output := range b.outputs {
		txOut := wire.NewTxOut(int64(output.Amount), output.PkScript)
		if output.Kind != OutputReturn && output.Amount < bitcoin.DustAmount {
			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize,
				"%s output %d is dust: %d sat", output.Kind, i, int64(output.Amount))
		}
		// returned units keep their size down to the relay dust limit of the script.
		if output.Kind == OutputReturn && mempool.IsDust(txOut, mempool.DefaultMinRelayTxFee) {
			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize,
				"%s output %d is below relay dust limit: %d sat", output.Kind, i, int64(output.Amount))
		}

		// txrules dust is not witness aware, dust is checked above.
		err := txrules.CheckOutput(txOut, txrules.DefaultRelayFeePerKb)
		if err != nil && !errors.Is(err, txrules.ErrOutputIsDust) {
			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize,
				"%s output %d: %v", output.Kind, i, err)
		}
	}

	return b.checkSatFlow()
}

// buildPSBT creates packet from unsigned transaction and fills inputs data needed to sign them.
func (b *Builder) buildPSBT() (*psbt.Packet, error) {
	tx := wire.NewMsgTx(txVersion)
	for _, input := range b.inputs {
		hash, err := chainhash.NewHashFromStr(input.UTXO.TxHash)
		if err != nil {
			return nil, err
		}

		txIn := wire.NewTxIn(wire.NewOutPoint(hash, input.UTXO.Index), nil, nil)
		txIn.Sequence = rbfSequence
		tx.AddTxIn(txIn)
	}
	tx.TxOut = b.txOuts()

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, err
	}

	indexes := make(map[InputsHelpingKey][]byte, 2)
	for i, input := range b.inputs {
		pib, err := NewPSBTInputBuilder(input.PublicKey, input.UTXO.Script)
		if err != nil {
			return nil, err
		}

		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(int64(input.UTXO.Amount), input.UTXO.Script)
		pib.PrepareInput(&packet.Inputs[i])

		if i <= math.MaxUint8 {
			key := pib.InputsHelpingKey(input.UTXO.HasInscriptions())
			indexes[key] = append(indexes[key], byte(i))
		}
	}
	if len(b.inputs) <= math.MaxUint8+1 {
		appendUnknowns(packet, indexes)
	}

	return packet, nil
}

// FinalizeInput moves signatures of the signed input into final script sig and witness.
// Legacy inputs described by witness utxo only get script sig built from their single signature.
func FinalizeInput(packet *psbt.Packet, index int, scriptType string) error {
	if scriptType != P2PKH {
		return psbt.Finalize(packet, index)
	}

	input := &packet.Inputs[index]
	if len(input.PartialSigs) != 1 {
		return errors.New("expected one signature")
	}

	sigScript, err := txscript.NewScriptBuilder().
		AddData(input.PartialSigs[0].Signature).
		AddData(input.PartialSigs[0].PubKey).
		Script()
	if err != nil {
		return err
	}

	input.FinalScriptSig = sigScript
	input.PartialSigs = nil
	input.SighashType = 0

	return nil
}

// verifyInputs executes every input script against the output it spends.
func (b *Builder) verifyInputs(tx *wire.MsgTx) error {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		prevOuts[txIn.PreviousOutPoint] = wire.NewTxOut(int64(b.inputs[i].UTXO.Amount), b.inputs[i].UTXO.Script)
	}

	var (
		fetcher   = txscript.NewMultiPrevOutFetcher(prevOuts)
		sigHashes = txscript.NewTxSigHashes(tx, fetcher)
	)
	for i, input := range b.inputs {
		vm, err := txscript.NewEngine(
			input.UTXO.Script, tx, i,
			txscript.StandardVerifyFlags, nil, sigHashes,
			int64(input.UTXO.Amount), fetcher,
		)
		if err == nil {
			err = vm.Execute()
		}
		if err != nil {
			return walleterr.New(walleterr.CodeSignatureValidationFailed, walleterr.StageFinalize,
				"input %d (%s): %v", i, input.UTXO.OutPoint(), err)
		}
	}

	return nil
}
