// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/utils"
)

func TestAddresses(t *testing.T) {
	tests := []struct {
		name        string
		pubKey      string
		addressType bitcoin.AddressType
		address     string
	}{
		{"native segwit", "0330d54fd0dd420a6e5f8d3624f5f3482cae350f79d5f0753bf5beef9c2d91af3c", bitcoin.AddressTypeP2WPKH, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"},
		{"native segwit m44", "0330d54fd0dd420a6e5f8d3624f5f3482cae350f79d5f0753bf5beef9c2d91af3c", bitcoin.AddressTypeM44P2WPKH, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"},
		{"taproot", "02cc8a4bc64d897bddc5fbc2f670f7a8ba0b386779106cf1223c6fc5d7cd6fc115", bitcoin.AddressTypeP2TR, "bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pubKey, err := btcec.ParsePubKey(mustHex(test.pubKey))
			require.NoError(t, err)

			address, err := utils.PublicKeyToAddress(pubKey, test.addressType, &chaincfg.MainNetParams)
			require.NoError(t, err)
			require.Equal(t, test.address, address.EncodeAddress())

			script, err := utils.AddressToScript(test.address, &chaincfg.MainNetParams)
			require.NoError(t, err)

			addressType, err := utils.AddressTypeFromScript(script)
			require.NoError(t, err)
			require.Equal(t, test.addressType.ScriptType(), addressType)

			decoded, err := utils.ScriptToAddress(script, &chaincfg.MainNetParams)
			require.NoError(t, err)
			require.Equal(t, test.address, decoded)
		})
	}

	t.Run("all types round trip", func(t *testing.T) {
		privKey, err := btcec.NewPrivateKey()
		require.NoError(t, err)

		for _, addressType := range bitcoin.AddressTypes {
			address, err := utils.PublicKeyToAddress(privKey.PubKey(), addressType, &chaincfg.TestNet3Params)
			require.NoError(t, err)

			script, err := utils.AddressToScript(address.EncodeAddress(), &chaincfg.TestNet3Params)
			require.NoError(t, err)

			scriptType, err := utils.AddressTypeFromScript(script)
			require.NoError(t, err)
			require.Equal(t, addressType.ScriptType(), scriptType)
		}
	})

	t.Run("wrong network", func(t *testing.T) {
		_, err := utils.AddressToScript("bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", &chaincfg.TestNet3Params)
		require.Error(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := utils.AddressTypeFromScript([]byte{0x6a})
		require.ErrorIs(t, err, utils.ErrUnsupportedAddressType)
	})
}

func mustHex(s string) []byte {
	b, _ := hex.DecodeString(s)

	return b
}
