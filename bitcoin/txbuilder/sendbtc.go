// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/units"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// SendBTCParams describes data needed to build plain value transfer.
type SendBTCParams struct {
	Params
	UTXOs     []bitcoin.UTXO
	ToAddress string
	Amount    btcutil.Amount
	// Force allows to deduct network fee from the sent amount.
	Force bool
}

// SendBTC builds and signs transaction sending amount to the recipient.
//
// Inscription bearing outputs are spent only when their plain units contribute
// to the amount, their inscribed units return to the change address unchanged.
// All plain outputs are spent, leftover returns as change.
func SendBTC(ctx context.Context, params SendBTCParams) (*SignedTx, error) {
	if params.Amount < bitcoin.DustAmount {
		return nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"amount %d sat is below dust threshold", int64(params.Amount))
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

	need := params.Amount
	for _, ordUTXO := range ordinal {
		if err = b.spendOrdinalUnits(ordUTXO, params.ToAddress, &need); err != nil {
			return nil, err
		}
		if need == 0 {
			break
		}
	}

	for _, utxo := range plain {
		if err = b.AddInput(utxo); err != nil {
			return nil, err
		}
	}

	if need > 0 {
		if last := b.lastOutput(); last != nil && last.Kind == OutputSpend {
			last.Amount += need
		} else if err = b.AddOutput(params.ToAddress, need); err != nil {
			return nil, err
		}
	}

	if err = b.allocateLeftover(); err != nil {
		return nil, err
	}

	if !b.IsEnoughFee() {
		if err = b.AdjustFee(params.Force); err != nil {
			return nil, err
		}
	}

	signed, err := b.CreateSignedTransaction(ctx)
	if err != nil {
		return nil, err
	}

	signed.TxType = TxTypeSendBitcoin

	return signed, nil
}

// spendOrdinalUnits walks units of the inscription bearing output and spends its plain units toward need.
// Output is added as input only if any of its units was spent, otherwise outputs added for it are removed.
func (b *Builder) spendOrdinalUnits(ordUTXO units.OrdinalUTXO, toAddress string, need *btcutil.Amount) error {
	var (
		used  bool
		added int
		carry btcutil.Amount
	)
	for _, unit := range ordUTXO.Units {
		amount := unit.Amount + carry
		carry = 0

		switch {
		case unit.HasOrdinal():
			b.AddReturnOutput(amount)
			added++
		case amount < bitcoin.DustAmount:
			// joins the following inscribed unit.
			carry = amount
		case *need > amount+bitcoin.DustAmount:
			if err := b.AddOutput(toAddress, amount); err != nil {
				return err
			}
			*need -= amount
			used = true
			added++
		case *need >= bitcoin.DustAmount && amount >= *need+bitcoin.DustAmount:
			if err := b.AddOutput(toAddress, *need); err != nil {
				return err
			}
			b.AddChangeOutput(amount - *need)
			*need = 0
			used = true
			added += 2
		default:
			b.AddChangeOutput(amount)
			added++
		}
	}

	if !used {
		b.RemoveRecentOutputs(added)
		b.log.Debug().Str("outpoint", ordUTXO.UTXO.OutPoint()).Msg("inscription bearing output skipped")
		return nil
	}

	b.log.Debug().Str("outpoint", ordUTXO.UTXO.OutPoint()).Int64("need", int64(*need)).Msg("inscription bearing output spent")

	return b.AddInput(ordUTXO.UTXO)
}

// allocateLeftover fails if outputs exceed inputs and moves non dust leftover to change output.
func (b *Builder) allocateLeftover() error {
	unspent := b.Unspent()
	if unspent < 0 {
		return walleterr.Wrap(walleterr.CodeInsufficientBalance, walleterr.StageSelect,
			NewInsufficientError(b.TotalOutput(), b.TotalInput()).setCauser(CauserAmount))
	}
	if unspent >= bitcoin.DustAmount {
		b.AddChangeOutput(unspent)
	}

	return nil
}
