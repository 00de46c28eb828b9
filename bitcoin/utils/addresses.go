// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/BoostyLabs/ordwallet/bitcoin"
)

// ErrUnsupportedAddressType defines that address type can not be handled.
var ErrUnsupportedAddressType = errors.New("unsupported address type")

// PublicKeyToAddress builds address of provided type over the public key.
// Taproot address commits to the key without script tree.
func PublicKeyToAddress(publicKey *btcec.PublicKey, addressType bitcoin.AddressType, chainParams *chaincfg.Params) (btcutil.Address, error) {
	pubKeyHash := btcutil.Hash160(publicKey.SerializeCompressed())

	switch addressType.ScriptType() {
	case bitcoin.AddressTypeP2PKH:
		return btcutil.NewAddressPubKeyHash(pubKeyHash, chainParams)
	case bitcoin.AddressTypeP2WPKH:
		return btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, chainParams)
	case bitcoin.AddressTypeP2TR:
		return btcutil.NewAddressTaproot(schnorr.SerializePubKey(txscript.ComputeTaprootKeyNoScript(publicKey)), chainParams)
	case bitcoin.AddressTypeP2SHP2WPKH:
		witnessAddress, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, chainParams)
		if err != nil {
			return nil, err
		}

		redeemScript, err := txscript.PayToAddrScript(witnessAddress)
		if err != nil {
			return nil, err
		}

		return btcutil.NewAddressScriptHash(redeemScript, chainParams)
	default:
		return nil, ErrUnsupportedAddressType
	}
}

// AddressToScript decodes address for the network and returns its locking script.
func AddressToScript(address string, chainParams *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, chainParams)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(chainParams) {
		return nil, errors.New("address is for another network")
	}

	return txscript.PayToAddrScript(decoded)
}

// ScriptToAddress returns address of the locking script on the network.
func ScriptToAddress(script []byte, chainParams *chaincfg.Params) (string, error) {
	_, addresses, _, err := txscript.ExtractPkScriptAddrs(script, chainParams)
	if err != nil {
		return "", err
	}
	if len(addresses) != 1 {
		return "", ErrUnsupportedAddressType
	}

	return addresses[0].EncodeAddress(), nil
}

// AddressTypeFromScript returns script address type of the locking script.
func AddressTypeFromScript(script []byte) (bitcoin.AddressType, error) {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy:
		return bitcoin.AddressTypeP2PKH, nil
	case txscript.WitnessV0PubKeyHashTy:
		return bitcoin.AddressTypeP2WPKH, nil
	case txscript.WitnessV1TaprootTy:
		return bitcoin.AddressTypeP2TR, nil
	case txscript.ScriptHashTy:
		return bitcoin.AddressTypeP2SHP2WPKH, nil
	default:
		return 0, ErrUnsupportedAddressType
	}
}
