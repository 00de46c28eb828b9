// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// expectInscription allows inscription to leave the wallet through output with provided index.
func (b *Builder) expectInscription(id inscriptions.ID, outputIndex int) {
	if b.expected == nil {
		b.expected = make(map[string]int)
	}

	b.expected[id.String()] = outputIndex
}

// checkSatFlow follows satoshi from inputs to outputs in order and checks that every
// inscription lands either in the output it is expected in or in output to the change address.
//
//	inputs:  [ in0          )[ in1    )[ in2        )
//	outputs: [ out0 )[ out1      )[ out2     ) fee ...
func (b *Builder) checkSatFlow() error {
	var start btcutil.Amount
	for _, input := range b.inputs {
		for _, inscription := range input.UTXO.Inscriptions {
			idx := b.outputAt(start + inscription.Offset)

			expected, ok := b.expected[inscription.ID.String()]
			switch {
			case ok && idx == expected:
				continue
			case !ok && idx >= 0 && b.outputs[idx].Address == b.changeAddress:
				continue
			}

			if idx < 0 {
				return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize,
					"inscription %s would be spent as fee", inscription.ID)
			}

			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageFinalize,
				"inscription %s would land in %s output %d", inscription.ID, b.outputs[idx].Kind, idx)
		}

		start += input.UTXO.Amount
	}

	return nil
}

// outputAt returns index of output holding satoshi at position of the inputs flow, -1 if it goes to fee.
func (b *Builder) outputAt(position btcutil.Amount) int {
	var end btcutil.Amount
	for i, output := range b.outputs {
		end += output.Amount
		if position < end {
			return i
		}
	}

	return -1
}
