// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/internal/config"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, _, err := config.Parse(nil)
		require.NoError(t, err)
		require.Equal(t, "mainnet", cfg.Network)
		require.Equal(t, "m/44'/0'/0'/0/0", cfg.DerivationPath)
		require.EqualValues(t, 0, cfg.CoinTypeValue())
		require.Equal(t, "https://ic0.app", cfg.RPCURL)
		require.Equal(t, bitcoin.NetworkMainnet, cfg.BitcoinNetwork())
		require.Equal(t, bitcoin.AddressTypeP2TR, cfg.BitcoinAddressType())
		require.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("local network", func(t *testing.T) {
		cfg, _, err := config.Parse([]string{"--network", "local", "--address-type", "P2WPKH"})
		require.NoError(t, err)
		require.Equal(t, "https://localhost:8000", cfg.RPCURL)
		require.Equal(t, bitcoin.NetworkTestnet, cfg.BitcoinNetwork())
		require.Equal(t, bitcoin.AddressTypeP2WPKH, cfg.BitcoinAddressType())
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("ORDWALLET_NETWORK", "testnet")
		t.Setenv("ORDWALLET_RPC_URL", "https://chain.example")

		cfg, _, err := config.Parse(nil)
		require.NoError(t, err)
		require.Equal(t, "testnet", cfg.Network)
		require.Equal(t, "https://chain.example", cfg.RPCURL)
	})

	t.Run("wrong coin type", func(t *testing.T) {
		_, _, err := config.Parse([]string{"--derivation-path", "m/44'/1'/0'/0/0"})
		require.ErrorIs(t, err, config.ErrWrongCoinType)
		require.EqualError(t, err, "Wrong CoinType in derivation path")

		_, _, err = config.Parse([]string{"--derivation-path", "m/44'/1'/0'/0/0", "--coin-type", "1"})
		require.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		_, _, err := config.Parse([]string{"--derivation-path", "m/44'"})
		require.Error(t, err)

		_, _, err = config.Parse([]string{"--address-type", "P2WSH"})
		require.Error(t, err)

		_, _, err = config.Parse([]string{"--network", "regtest"})
		require.Error(t, err)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("ORDWALLET_LOG_LEVEL=debug\n"), 0o600))

	t.Cleanup(func() { require.NoError(t, os.Unsetenv("ORDWALLET_LOG_LEVEL")) })
	require.NoError(t, config.LoadEnv(filepath.Join(dir, "missing.env"), file))

	cfg, _, err := config.Parse(nil)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
}
