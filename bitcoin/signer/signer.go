// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrInvalidInputIndex defines that input with provided index is absent.
	ErrInvalidInputIndex = errors.New("invalid input index")
	// ErrMissingWitnessUtxo defines that input has no spent output data.
	ErrMissingWitnessUtxo = errors.New("missing witness utxo")
	// ErrMissingRedeemScript defines that script hash input has no redeem script.
	ErrMissingRedeemScript = errors.New("missing redeem script")
	// ErrUnsupportedScript defines that spent output script can not be signed.
	ErrUnsupportedScript = errors.New("unsupported script")
)

// SignPSBTParams defines parameters for SignPSBT method.
type SignPSBTParams struct {
	SerializedPSBT []byte
	Inputs         []int // inputs indexes.
	PrivateKey     *btcec.PrivateKey
}

// SignPSBT signs inputs by provided indexes, returns updated serialized PSBT.
func SignPSBT(params SignPSBTParams) ([]byte, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewBuffer(params.SerializedPSBT), false)
	if err != nil {
		return nil, err
	}

	for _, input := range params.Inputs {
		if err = SignInput(packet, input, params.PrivateKey); err != nil {
			return nil, err
		}
	}

	w := bytes.NewBuffer(nil)
	err = packet.Serialize(w)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// SignInput signs input depending on spent output script type:
// taproot key path signature goes to TaprootKeySpendSig, others to PartialSigs.
func SignInput(packet *psbt.Packet, index int, privateKey *btcec.PrivateKey) error {
	if index < 0 || index >= len(packet.Inputs) {
		return ErrInvalidInputIndex
	}

	input := &packet.Inputs[index]
	if input.WitnessUtxo == nil {
		return ErrMissingWitnessUtxo
	}

	var (
		tx          = packet.UnsignedTx
		value       = input.WitnessUtxo.Value
		pkScript    = input.WitnessUtxo.PkScript
		sigHashType = input.SighashType
		sigHashes   = txscript.NewTxSigHashes(tx, PrevOutputFetcher(packet))
		sig         []byte
		err         error
	)

	switch txscript.GetScriptClass(pkScript) {
	case txscript.WitnessV1TaprootTy:
		input.TaprootKeySpendSig, err = txscript.RawTxInTaprootSignature(
			tx, sigHashes, index, value, pkScript,
			input.TaprootMerkleRoot, sigHashType, privateKey,
		)

		return err
	case txscript.WitnessV0PubKeyHashTy:
		sig, err = txscript.RawTxInWitnessSignature(tx, sigHashes, index, value, pkScript, ecdsaSigHash(sigHashType), privateKey)
	case txscript.ScriptHashTy:
		if len(input.RedeemScript) == 0 {
			return ErrMissingRedeemScript
		}

		sig, err = txscript.RawTxInWitnessSignature(tx, sigHashes, index, value, input.RedeemScript, ecdsaSigHash(sigHashType), privateKey)
	case txscript.PubKeyHashTy:
		sig, err = txscript.RawTxInSignature(tx, index, pkScript, ecdsaSigHash(sigHashType), privateKey)
	default:
		return ErrUnsupportedScript
	}
	if err != nil {
		return err
	}

	input.PartialSigs = append(input.PartialSigs, &psbt.PartialSig{
		PubKey:    privateKey.PubKey().SerializeCompressed(),
		Signature: sig,
	})

	return nil
}

// PrevOutputFetcher returns fetcher of outputs spent by the packet inputs.
func PrevOutputFetcher(packet *psbt.Packet) txscript.PrevOutputFetcher {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(packet.Inputs))
	for idx, in := range packet.Inputs {
		if in.WitnessUtxo != nil {
			prevOuts[packet.UnsignedTx.TxIn[idx].PreviousOutPoint] = in.WitnessUtxo
		}
	}

	return txscript.NewMultiPrevOutFetcher(prevOuts)
}

// ecdsaSigHash returns SigHashAll for unset sighash type.
func ecdsaSigHash(sigHashType txscript.SigHashType) txscript.SigHashType {
	if sigHashType == txscript.SigHashDefault {
		return txscript.SigHashAll
	}

	return sigHashType
}
