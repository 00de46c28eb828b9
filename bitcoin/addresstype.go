// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"fmt"
	"strings"
)

// AddressType defines wallet address (locking script) kind.
// Values are stable and used in serialized requests.
type AddressType int

const (
	// AddressTypeP2PKH defines legacy pay to public key hash address.
	AddressTypeP2PKH AddressType = iota
	// AddressTypeP2WPKH defines native segwit address.
	AddressTypeP2WPKH
	// AddressTypeP2TR defines taproot address.
	AddressTypeP2TR
	// AddressTypeP2SHP2WPKH defines nested segwit address.
	AddressTypeP2SHP2WPKH
	// AddressTypeM44P2WPKH defines native segwit address derived by BIP-44 path.
	AddressTypeM44P2WPKH
	// AddressTypeM44P2TR defines taproot address derived by BIP-44 path.
	AddressTypeM44P2TR
)

// addressTypeInfo describes address type derivation and naming data.
type addressTypeInfo struct {
	label   string
	name    string
	purpose uint32
}

var addressTypes = map[AddressType]addressTypeInfo{
	AddressTypeP2PKH:      {"P2PKH", "Legacy (P2PKH)", 44},
	AddressTypeP2WPKH:     {"P2WPKH", "Native Segwit (P2WPKH)", 84},
	AddressTypeP2TR:       {"P2TR", "Taproot (P2TR)", 86},
	AddressTypeP2SHP2WPKH: {"P2SH-P2WPKH", "Nested Segwit (P2SH-P2WPKH)", 49},
	AddressTypeM44P2WPKH:  {"M44_P2WPKH", "Native SegWit (P2WPKH) M44", 44},
	AddressTypeM44P2TR:    {"M44_P2TR", "Taproot (P2TR) M44", 44},
}

// AddressTypes lists all supported address types in derivation order.
var AddressTypes = []AddressType{
	AddressTypeP2PKH,
	AddressTypeP2WPKH,
	AddressTypeP2TR,
	AddressTypeP2SHP2WPKH,
	AddressTypeM44P2WPKH,
	AddressTypeM44P2TR,
}

// ParseAddressType parses address type from its label, e.g. "P2TR" or "M44_P2TR".
func ParseAddressType(s string) (AddressType, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "P2PKH":
		return AddressTypeP2PKH, nil
	case "P2WPKH":
		return AddressTypeP2WPKH, nil
	case "P2TR":
		return AddressTypeP2TR, nil
	case "P2SH_P2WPKH":
		return AddressTypeP2SHP2WPKH, nil
	case "M44_P2WPKH":
		return AddressTypeM44P2WPKH, nil
	case "M44_P2TR":
		return AddressTypeM44P2TR, nil
	}

	return 0, fmt.Errorf("unknown address type %q", s)
}

// IsValid returns true if address type is known.
func (t AddressType) IsValid() bool {
	_, ok := addressTypes[t]
	return ok
}

// String returns address type label.
func (t AddressType) String() string {
	if info, ok := addressTypes[t]; ok {
		return info.label
	}

	return fmt.Sprintf("AddressType(%d)", int(t))
}

// Name returns human-readable address type name.
func (t AddressType) Name() string {
	return addressTypes[t].name
}

// Purpose returns BIP-43 purpose used for key derivation.
func (t AddressType) Purpose() uint32 {
	return addressTypes[t].purpose
}

// ScriptType returns address type with BIP-44 derived variants collapsed to their script kind.
func (t AddressType) ScriptType() AddressType {
	switch t {
	case AddressTypeM44P2WPKH:
		return AddressTypeP2WPKH
	case AddressTypeM44P2TR:
		return AddressTypeP2TR
	default:
		return t
	}
}

// IsTaproot returns true for taproot address types.
func (t AddressType) IsTaproot() bool {
	return t.ScriptType() == AddressTypeP2TR
}
