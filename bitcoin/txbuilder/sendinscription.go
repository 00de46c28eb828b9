// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/units"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// SendInscriptionParams describes data needed to build inscription transfer.
type SendInscriptionParams struct {
	Params
	UTXOs         []bitcoin.UTXO
	ToAddress     string
	InscriptionID inscriptions.ID
	// OutputValue is a value of the output carrying inscription to the recipient.
	OutputValue btcutil.Amount
}

// SendInscription builds and signs transaction moving inscription to the recipient.
//
// The unit holding inscription becomes the recipient output, other units of the
// same output return to the change address. Plain outputs fund the network fee.
func SendInscription(ctx context.Context, params SendInscriptionParams) (*SignedTx, error) {
	if params.InscriptionID.IsZero() {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "inscription id is empty")
	}
	if params.OutputValue < bitcoin.DustAmount {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"output value %d sat is below dust threshold", int64(params.OutputValue))
	}

	b, err := NewBuilder(params.Params)
	if err != nil {
		return nil, err
	}

	plain, ordinal, err := units.Partition(params.UTXOs)
	if err != nil {
		return nil, err
	}
	units.SortByLastUnit(ordinal)

	spendIndex := -1
	for _, ordUTXO := range ordinal {
		spendIndex, err = b.moveInscriptionUnit(ordUTXO, params.ToAddress, params.InscriptionID)
		if err != nil {
			return nil, err
		}
		if spendIndex >= 0 {
			break
		}
	}
	if spendIndex < 0 {
		return nil, walleterr.New(walleterr.CodeInscriptionNotFound, walleterr.StageSelect,
			"inscription %s not found in provided outputs", params.InscriptionID)
	}

	b.outputs[spendIndex].Amount = params.OutputValue
	b.expectInscription(params.InscriptionID, spendIndex)

	for _, utxo := range plain {
		if err = b.AddInput(utxo); err != nil {
			return nil, err
		}
	}

	if err = b.allocateLeftover(); err != nil {
		return nil, err
	}

	if !b.IsEnoughFee() {
		if err = b.AdjustFee(false); err != nil {
			return nil, err
		}
	}

	signed, err := b.CreateSignedTransaction(ctx)
	if err != nil {
		return nil, err
	}

	signed.TxType = TxTypeSendInscription

	return signed, nil
}

// moveInscriptionUnit adds outputs for units of the output if it holds inscription with provided id.
// Returns index of the recipient output, -1 if inscription is not in the output.
func (b *Builder) moveInscriptionUnit(ordUTXO units.OrdinalUTXO, toAddress string, id inscriptions.ID) (int, error) {
	var (
		spendIndex = -1
		added      int
		carry      btcutil.Amount
	)
	for _, unit := range ordUTXO.Units {
		amount := unit.Amount + carry
		carry = 0

		switch {
		case unit.Contains(id):
			if len(unit.Inscriptions) > 1 {
				b.RemoveRecentOutputs(added)
				return -1, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageSelect,
					"inscription %s shares satoshi with %d other inscriptions", id, len(unit.Inscriptions)-1)
			}

			if err := b.AddOutput(toAddress, amount); err != nil {
				return -1, err
			}
			spendIndex = len(b.outputs) - 1
		case unit.HasOrdinal():
			b.AddReturnOutput(amount)
		case amount < bitcoin.DustAmount:
			// joins the following inscribed unit.
			carry = amount
			continue
		default:
			b.AddChangeOutput(amount)
		}
		added++
	}

	if spendIndex < 0 {
		b.RemoveRecentOutputs(added)
		return -1, nil
	}

	b.log.Debug().Str("outpoint", ordUTXO.UTXO.OutPoint()).Str("inscription", id.String()).Msg("inscription located")

	return spendIndex, b.AddInput(ordUTXO.UTXO)
}
