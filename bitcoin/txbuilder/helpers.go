// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/psbt"
)

// ExtractInputIndexesFromPSBT returns map with input kinds and their indexes.
func ExtractInputIndexesFromPSBT(data []byte) (map[InputsHelpingKey][]int, error) {
	var result = make(map[InputsHelpingKey][]int, 2)
	p, err := psbt.NewFromRawBytes(bytes.NewBuffer(data), false)
	if err != nil {
		return nil, err
	}

	for _, unknown := range p.Unknowns {
		key, err := InputsHelpingKeyFromBytes(unknown.Key)
		if err != nil {
			return nil, err
		}

		result[key] = make([]int, len(unknown.Value))
		for idx, val := range unknown.Value {
			result[key][idx] = int(val)
		}
	}

	return result, nil
}

// ExtractInputIndexesFromPSBTHex decodes hex encoded PSBT and uses ExtractInputIndexesFromPSBT.
func ExtractInputIndexesFromPSBTHex(psbtHex string) (map[InputsHelpingKey][]int, error) {
	data, err := hex.DecodeString(psbtHex)
	if err != nil {
		return nil, err
	}

	return ExtractInputIndexesFromPSBT(data)
}

// appendUnknowns appends helping keys with input indexes to the packet.
func appendUnknowns(packet *psbt.Packet, indexes map[InputsHelpingKey][]byte) {
	for _, key := range helpingKeys {
		if len(indexes[key]) == 0 {
			continue
		}

		packet.Unknowns = append(packet.Unknowns, &psbt.Unknown{Key: key.Bytes(), Value: indexes[key]})
	}
}
