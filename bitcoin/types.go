// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// DustAmount defines the smallest output value in satoshi considered spendable.
const DustAmount btcutil.Amount = 546

// UTXO describes unspent transaction output data.
type UTXO struct {
	TxHash       string
	Index        uint32            // output index in transaction outputs.
	Amount       btcutil.Amount    // in Satoshi.
	Script       []byte            // ScriptPubKey.
	AddressType  AddressType       // type of the address owning the output.
	Address      string            // output recipient address.
	Inscriptions []InscriptionUTXO // inscriptions linked to satoshis of the output.
}

// InscriptionUTXO describes inscription linked to the UTXO satoshi.
type InscriptionUTXO struct {
	ID     inscriptions.ID `json:"id"`
	Number int64           `json:"num"`    // inscription sequence number.
	Offset btcutil.Amount  `json:"offset"` // satoshi offset within the output value.
}

// utxoJSON defines UTXO representation used by the chain service API.
type utxoJSON struct {
	TxID         string            `json:"txId"`
	OutputIndex  uint32            `json:"outputIndex"`
	Satoshis     int64             `json:"satoshis"`
	ScriptPk     string            `json:"scriptPk"`
	AddressType  AddressType       `json:"addressType"`
	Address      string            `json:"address,omitempty"`
	Inscriptions []InscriptionUTXO `json:"inscriptions"`
}

// MarshalJSON implements json.Marshaler.
func (u UTXO) MarshalJSON() ([]byte, error) {
	return json.Marshal(utxoJSON{
		TxID:         u.TxHash,
		OutputIndex:  u.Index,
		Satoshis:     int64(u.Amount),
		ScriptPk:     hex.EncodeToString(u.Script),
		AddressType:  u.AddressType,
		Address:      u.Address,
		Inscriptions: u.Inscriptions,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *UTXO) UnmarshalJSON(data []byte) error {
	var raw utxoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	script, err := hex.DecodeString(raw.ScriptPk)
	if err != nil {
		return fmt.Errorf("invalid scriptPk of %s:%d: %w", raw.TxID, raw.OutputIndex, err)
	}

	*u = UTXO{
		TxHash:       raw.TxID,
		Index:        raw.OutputIndex,
		Amount:       btcutil.Amount(raw.Satoshis),
		Script:       script,
		AddressType:  raw.AddressType,
		Address:      raw.Address,
		Inscriptions: raw.Inscriptions,
	}

	return nil
}

// OutPoint returns output reference as string.
func (u *UTXO) OutPoint() string {
	return fmt.Sprintf("%s:%d", u.TxHash, u.Index)
}

// HasInscriptions returns true if any inscription is linked to the output.
func (u *UTXO) HasInscriptions() bool {
	return len(u.Inscriptions) > 0
}

// Validate checks UTXO data consistency.
func (u *UTXO) Validate() error {
	if _, err := chainhash.NewHashFromStr(u.TxHash); err != nil || len(u.TxHash) != chainhash.MaxHashStringSize {
		return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"invalid utxo tx hash %q", u.TxHash)
	}
	if u.Amount <= 0 {
		return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"utxo %s has non-positive amount %d", u.OutPoint(), u.Amount)
	}
	for _, inscription := range u.Inscriptions {
		if inscription.Offset < 0 || inscription.Offset >= u.Amount {
			return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
				"inscription %s offset %d is out of utxo %s range [0, %d)",
				inscription.ID.String(), inscription.Offset, u.OutPoint(), u.Amount)
		}
	}

	return nil
}

// TotalAmount returns sum of provided UTXOs amounts.
func TotalAmount(utxos []UTXO) btcutil.Amount {
	var total btcutil.Amount
	for _, utxo := range utxos {
		total += utxo.Amount
	}

	return total
}
