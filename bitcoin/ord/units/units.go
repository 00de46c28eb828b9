// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package units

import (
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

// Unit describes contiguous satoshi range of the output.
// Unit with inscriptions starts exactly at the inscribed satoshi.
type Unit struct {
	Offset       btcutil.Amount // unit start within the output value.
	Amount       btcutil.Amount // unit size in satoshi.
	Inscriptions []bitcoin.InscriptionUTXO
}

// HasOrdinal returns true if unit holds inscribed satoshi.
func (u *Unit) HasOrdinal() bool {
	return len(u.Inscriptions) > 0
}

// Contains returns true if inscription with provided id is linked to the unit.
func (u *Unit) Contains(id inscriptions.ID) bool {
	for _, inscription := range u.Inscriptions {
		if inscription.ID.Equal(id) {
			return true
		}
	}

	return false
}

// OrdinalUTXO describes inscription bearing output split into units.
type OrdinalUTXO struct {
	UTXO  bitcoin.UTXO
	Units []Unit // ordered by offset ascending.
}

// HasOrdinal returns true if output holds any inscription.
func (o *OrdinalUTXO) HasOrdinal() bool {
	return o.UTXO.HasInscriptions()
}

// LastUnitAmount returns amount of the highest offset unit.
func (o *OrdinalUTXO) LastUnitAmount() btcutil.Amount {
	if len(o.Units) == 0 {
		return 0
	}

	return o.Units[len(o.Units)-1].Amount
}

// Split splits output value at every inscription offset.
//
//	satoshis:  0 ─────── off1 ─────────── off2 ─────────── amount
//	units:     [ plain  )[ inscription 1 )[ inscription 2 )
//
// Inscriptions sharing one offset are placed into one unit.
func Split(utxo bitcoin.UTXO) (OrdinalUTXO, error) {
	if err := utxo.Validate(); err != nil {
		return OrdinalUTXO{}, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StagePartition, err)
	}

	sorted := make([]bitcoin.InscriptionUTXO, len(utxo.Inscriptions))
	copy(sorted, utxo.Inscriptions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	ordUTXO := OrdinalUTXO{UTXO: utxo}
	if len(sorted) == 0 {
		ordUTXO.Units = []Unit{{Offset: 0, Amount: utxo.Amount}}
		return ordUTXO, nil
	}

	if sorted[0].Offset > 0 {
		ordUTXO.Units = append(ordUTXO.Units, Unit{Offset: 0, Amount: sorted[0].Offset})
	}

	for _, inscription := range sorted {
		last := len(ordUTXO.Units) - 1
		if last >= 0 && ordUTXO.Units[last].HasOrdinal() && ordUTXO.Units[last].Offset == inscription.Offset {
			ordUTXO.Units[last].Inscriptions = append(ordUTXO.Units[last].Inscriptions, inscription)
			continue
		}

		ordUTXO.Units = append(ordUTXO.Units, Unit{
			Offset:       inscription.Offset,
			Inscriptions: []bitcoin.InscriptionUTXO{inscription},
		})
	}

	for i := range ordUTXO.Units {
		end := utxo.Amount
		if i+1 < len(ordUTXO.Units) {
			end = ordUTXO.Units[i+1].Offset
		}

		ordUTXO.Units[i].Amount = end - ordUTXO.Units[i].Offset
	}

	return ordUTXO, nil
}

// Partition separates outputs into plain and inscription bearing ones, keeping input order.
// Every outpoint may be listed once.
func Partition(utxos []bitcoin.UTXO) (plain []bitcoin.UTXO, ordinal []OrdinalUTXO, err error) {
	plain = make([]bitcoin.UTXO, 0, len(utxos))
	seen := make(map[string]struct{}, len(utxos))
	for _, utxo := range utxos {
		outPoint := strings.ToLower(utxo.OutPoint())
		if _, ok := seen[outPoint]; ok {
			return nil, nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StagePartition,
				"duplicate utxo %s", utxo.OutPoint())
		}
		seen[outPoint] = struct{}{}

		if !utxo.HasInscriptions() {
			if err = utxo.Validate(); err != nil {
				return nil, nil, walleterr.Wrap(walleterr.CodeMalformedRequest, walleterr.StagePartition, err)
			}

			plain = append(plain, utxo)
			continue
		}

		ordUTXO, err := Split(utxo)
		if err != nil {
			return nil, nil, err
		}

		ordinal = append(ordinal, ordUTXO)
	}

	return plain, ordinal, nil
}

// SortByLastUnit sorts outputs by last unit amount ascending, keeping order of equal ones.
func SortByLastUnit(ordinal []OrdinalUTXO) {
	sort.SliceStable(ordinal, func(i, j int) bool {
		return ordinal[i].LastUnitAmount() < ordinal[j].LastUnitAmount()
	})
}

// NonOrdinalAmount returns satoshi amount not covered by inscribed units.
func NonOrdinalAmount(utxos []bitcoin.UTXO) (btcutil.Amount, error) {
	var total btcutil.Amount
	for _, utxo := range utxos {
		ordUTXO, err := Split(utxo)
		if err != nil {
			return 0, err
		}

		for _, unit := range ordUTXO.Units {
			if !unit.HasOrdinal() {
				total += unit.Amount
			}
		}
	}

	return total, nil
}
