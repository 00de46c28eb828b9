// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
	"fmt"
)

// ErrUnknownInputsHelpingKey defines that inputs help keys is unknown.
var ErrUnknownInputsHelpingKey = errors.New("unknown inputs help keys")

// InputsHelpingKey marks global PSBT unknown whose value lists indexes of
// wallet inputs of one kind, so signers can tell ordinal inputs from payment ones.
type InputsHelpingKey byte

const (
	// OrdinalInputsHelpingKey defines key for inscription bearing inputs.
	OrdinalInputsHelpingKey InputsHelpingKey = 0x10
	// PaymentInputsHelpingKey defines key for payment (btc) inputs.
	PaymentInputsHelpingKey InputsHelpingKey = 0x20
)

// helpingKeys lists known keys in the order they are written to the packet.
var helpingKeys = []InputsHelpingKey{OrdinalInputsHelpingKey, PaymentInputsHelpingKey}

// InputsHelpingKeyFromBytes parses bytes array into InputsHelpingKey if any.
func InputsHelpingKeyFromBytes(b []byte) (InputsHelpingKey, error) {
	if len(b) == 1 {
		for _, key := range helpingKeys {
			if key.Byte() == b[0] {
				return key, nil
			}
		}
	}

	return 0, ErrUnknownInputsHelpingKey
}

// Byte returns InputsHelpingKey as byte.
func (k InputsHelpingKey) Byte() byte {
	return byte(k)
}

// Bytes returns InputsHelpingKey as bytes array.
func (k InputsHelpingKey) Bytes() []byte {
	return []byte{k.Byte()}
}

// String returns input kind name.
func (k InputsHelpingKey) String() string {
	switch k {
	case OrdinalInputsHelpingKey:
		return "ordinal"
	case PaymentInputsHelpingKey:
		return "payment"
	default:
		return fmt.Sprintf("InputsHelpingKey(%#x)", byte(k))
	}
}
