// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
)

// ErrPSBTInputBuilder defines errors class for prepare input data method.
var ErrPSBTInputBuilder = errors.New("prepare input data")

const (
	// P2PKH defines P2PKH (public key hash) script type of the spent output.
	P2PKH = "P2PKH"
	// P2SHP2WPKH defines P2SH wrapped P2WPKH script type of the spent output.
	P2SHP2WPKH = "P2SH-P2WPKH"
	// P2WPKH defines P2WPKH (witness public key hash) script type of the spent output.
	P2WPKH = "P2WPKH"
	// P2TR defines P2TR (taproot) script type of the spent output.
	P2TR = "P2TR"
)

// PSBTInputBuilder is a helping tool to prepare psbt input based on spent output script type.
type PSBTInputBuilder struct {
	scriptType   string
	publicKey    *btcec.PublicKey
	xOnlyPubKey  []byte
	redeemScript []byte
}

// NewPSBTInputBuilder is a constructor for PSBTInputBuilder.
func NewPSBTInputBuilder(pubKey, pkScript []byte) (pib *PSBTInputBuilder, err error) {
	pib = new(PSBTInputBuilder)

	defer func(err *error) {
		if err != nil && *err != nil {
			*err = errors.Join(ErrPSBTInputBuilder, *err)
		}
	}(&err)

	pib.scriptType, err = ScriptType(pkScript)
	if err != nil {
		return pib, err
	}

	pib.publicKey, err = btcec.ParsePubKey(pubKey)
	if err != nil {
		return pib, err
	}
	pib.xOnlyPubKey = schnorr.SerializePubKey(pib.publicKey)

	if pib.scriptType == P2SHP2WPKH {
		pib.redeemScript, err = txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(btcutil.Hash160(pib.publicKey.SerializeCompressed())).
			Script()
		if err != nil {
			return pib, err
		}

		if !bytes.Equal(btcutil.Hash160(pib.redeemScript), pkScript[2:22]) {
			return pib, errors.New("public key does not match script hash")
		}
	}

	return pib, nil
}

// PrepareInput updates input with required data based on script type.
func (pib *PSBTInputBuilder) PrepareInput(input *psbt.PInput) {
	input.SighashType = pib.SigHashType()

	switch pib.scriptType {
	case P2TR:
		input.TaprootInternalKey = pib.xOnlyPubKey
	case P2SHP2WPKH:
		input.RedeemScript = pib.redeemScript
	}
}

// SigHashType returns signature hash type used for the script type.
// Taproot inputs use SIGHASH_DEFAULT, so 64-byte signature is produced.
func (pib *PSBTInputBuilder) SigHashType() txscript.SigHashType {
	if pib.scriptType == P2TR {
		return txscript.SigHashDefault
	}

	return txscript.SigHashAll
}

// InputsHelpingKey return InputsHelpingKey for wallet input indexes distinguishing.
func (pib *PSBTInputBuilder) InputsHelpingKey(isOrdinal bool) InputsHelpingKey {
	if isOrdinal {
		return OrdinalInputsHelpingKey
	}

	return PaymentInputsHelpingKey
}

// ScriptType returns underlying script type.
func (pib *PSBTInputBuilder) ScriptType() string {
	return pib.scriptType
}

// ScriptType returns spendable script type of the locking script.
func ScriptType(pkScript []byte) (string, error) {
	switch txscript.GetScriptClass(pkScript) {
	case txscript.WitnessV1TaprootTy:
		return P2TR, nil
	case txscript.WitnessV0PubKeyHashTy:
		return P2WPKH, nil
	case txscript.ScriptHashTy:
		return P2SHP2WPKH, nil
	case txscript.PubKeyHashTy:
		return P2PKH, nil
	default:
		return "", errors.New("unsupported script type")
	}
}
