// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/BoostyLabs/ordwallet/bitcoin/txbuilder"
	"github.com/BoostyLabs/ordwallet/bitcoin/utils"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// SignPSBTRequest describes request to sign inputs of the foreign packet.
type SignPSBTRequest struct {
	PSBTHex string
	// Inputs are indexes of inputs to sign, inputs spending the current account outputs are signed when empty.
	Inputs   []int
	Finalize bool
}

// SignPSBT signs packet inputs with the current account key, returns hex encoded packet.
func (w *Wallet) SignPSBT(ctx context.Context, req SignPSBTRequest) (string, error) {
	raw, err := hex.DecodeString(req.PSBTHex)
	if err != nil {
		return "", walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "psbt is not hex encoded")
	}

	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return "", walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "invalid psbt: %v", err)
	}

	account, err := w.keyring.CurrentAccount()
	if err != nil {
		return "", err
	}

	script, err := utils.AddressToScript(account.Address, w.config.Network.Params())
	if err != nil {
		return "", err
	}

	indexes, err := inputsToSign(packet, script, req.Inputs)
	if err != nil {
		return "", err
	}

	prompt := Prompt{
		Title:       "Sign PSBT",
		Description: fmt.Sprintf("Sign %d of %d inputs with %s", len(indexes), len(packet.Inputs), account.Address),
		Fields: []Field{
			{Name: "txid", Value: packet.UnsignedTx.TxHash().String()},
			{Name: "inputs", Value: fmt.Sprint(indexes)},
			{Name: "finalize", Value: fmt.Sprint(req.Finalize)},
		},
	}
	if err = w.confirm(ctx, prompt); err != nil {
		return "", err
	}

	pib, err := txbuilder.NewPSBTInputBuilder(account.PublicKey(), script)
	if err != nil {
		return "", err
	}

	for _, index := range indexes {
		input := &packet.Inputs[index]

		sigHashType := input.SighashType
		pib.PrepareInput(input)
		if sigHashType != 0 {
			input.SighashType = sigHashType
		}

		err = w.keyring.SignInput(ctx, txbuilder.SignInputRequest{
			Packet:      packet,
			InputIndex:  index,
			PublicKey:   account.PublicKey(),
			SigHashType: input.SighashType,
		})
		if err != nil {
			return "", walleterr.Wrap(walleterr.CodeSignatureValidationFailed, walleterr.StageSign, err)
		}

		if req.Finalize {
			scriptType, err := inputScriptType(input, script)
			if err != nil {
				return "", err
			}
			if err = txbuilder.FinalizeInput(packet, index, scriptType); err != nil {
				return "", walleterr.Wrap(walleterr.CodeSignatureValidationFailed, walleterr.StageFinalize, err)
			}
		}
	}

	var buf bytes.Buffer
	if err = packet.Serialize(&buf); err != nil {
		return "", err
	}

	w.log.Info().Ints("inputs", indexes).Bool("finalized", req.Finalize).Msg("psbt signed")

	return hex.EncodeToString(buf.Bytes()), nil
}

// inputsToSign returns requested input indexes, or indexes of inputs spending script when none requested.
func inputsToSign(packet *psbt.Packet, script []byte, requested []int) ([]int, error) {
	if len(requested) > 0 {
		for _, index := range requested {
			if index < 0 || index >= len(packet.Inputs) {
				return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
					"input index %d is out of range [0, %d)", index, len(packet.Inputs))
			}
		}

		return requested, nil
	}

	var indexes []int
	for i, input := range packet.Inputs {
		if input.WitnessUtxo != nil && bytes.Equal(input.WitnessUtxo.PkScript, script) {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"psbt has no inputs of the current account")
	}

	return indexes, nil
}

// inputScriptType returns script type of the output spent by input, account script is used when input has no witness utxo.
func inputScriptType(input *psbt.PInput, script []byte) (string, error) {
	if input.WitnessUtxo != nil {
		script = input.WitnessUtxo.PkScript
	}

	scriptType, err := txbuilder.ScriptType(script)
	if err != nil {
		return "", walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StageFinalize, err)
	}

	return scriptType, nil
}
