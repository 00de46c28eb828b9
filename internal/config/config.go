// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package config describes wallet configuration loaded from flags, environment and .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/BoostyLabs/ordwallet/bitcoin"
)

// ErrWrongCoinType defines that derivation path coin type differs from configured one.
var ErrWrongCoinType = errors.New("Wrong CoinType in derivation path")

// Network names.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkLocal   = "local"
)

// Defaults describes per network default values.
type Defaults struct {
	DerivationPath string
	CoinType       uint32
	URL            string
}

var networkDefaults = map[string]Defaults{
	NetworkMainnet: {DerivationPath: "m/44'/0'/0'/0/0", CoinType: 0, URL: "https://ic0.app"},
	NetworkTestnet: {DerivationPath: "m/44'/0'/0'/0/0", CoinType: 0, URL: "https://ic0.app"},
	NetworkLocal:   {DerivationPath: "m/44'/0'/0'/0/0", CoinType: 0, URL: "https://localhost:8000"},
}

// DefaultsFor returns defaults of the network, mainnet ones for unknown name.
func DefaultsFor(network string) Defaults {
	if defaults, ok := networkDefaults[strings.ToLower(network)]; ok {
		return defaults
	}

	return networkDefaults[NetworkMainnet]
}

// Config describes wallet configuration.
type Config struct {
	Network        string  `long:"network" env:"ORDWALLET_NETWORK" default:"mainnet" choice:"mainnet" choice:"testnet" choice:"local" description:"Bitcoin network"`
	DerivationPath string  `long:"derivation-path" env:"ORDWALLET_DERIVATION_PATH" description:"Account derivation path, network default when empty"`
	CoinType       *uint32 `long:"coin-type" env:"ORDWALLET_COIN_TYPE" description:"BIP-44 coin type, network default when empty"`
	RPCURL         string  `long:"rpc-url" env:"ORDWALLET_RPC_URL" description:"Chain service URL, network default when empty"`
	RPCToken       string  `long:"rpc-token" env:"ORDWALLET_RPC_TOKEN" description:"Chain service access token"`
	RPCUser        string  `long:"rpc-user" env:"ORDWALLET_RPC_USER" description:"Chain service basic auth user"`
	RPCPassword    string  `long:"rpc-password" env:"ORDWALLET_RPC_PASSWORD" description:"Chain service basic auth password"`
	LogLevel       string  `long:"log-level" env:"ORDWALLET_LOG_LEVEL" default:"info" description:"Log level: debug, info, warn, error"`
	LogJSON        bool    `long:"log-json" env:"ORDWALLET_LOG_JSON" description:"Write logs as JSON"`
	DataDir        string  `long:"data-dir" env:"ORDWALLET_DATA_DIR" default:"ordwallet-data" description:"Directory of the wallet state"`
	Mnemonic       string  `long:"mnemonic" env:"ORDWALLET_MNEMONIC" description:"BIP-39 mnemonic of the wallet"`
	Passphrase     string  `long:"passphrase" env:"ORDWALLET_PASSPHRASE" description:"BIP-39 passphrase"`
	AddressType    string  `long:"address-type" env:"ORDWALLET_ADDRESS_TYPE" default:"P2TR" description:"Address type of the current account"`
	AccountIndex   uint32  `long:"account" env:"ORDWALLET_ACCOUNT" default:"0" description:"Index of the current account"`
}

// LoadEnv reads .env files into process environment, missing files are skipped.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	return nil
}

// Parse reads configuration from arguments and environment, applies network defaults and validates it.
// Unknown options and help flags are returned with the rest arguments.
func Parse(args []string) (*Config, []string, error) {
	cfg := new(Config)
	rest, err := flags.NewParser(cfg, flags.PassDoubleDash|flags.IgnoreUnknown).ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if err = cfg.Prepare(); err != nil {
		return nil, nil, err
	}

	return cfg, rest, nil
}

// Prepare fills empty values with network defaults and validates configuration.
func (c *Config) Prepare() error {
	defaults := DefaultsFor(c.Network)
	if c.DerivationPath == "" {
		c.DerivationPath = defaults.DerivationPath
	}
	if c.CoinType == nil {
		coinType := defaults.CoinType
		c.CoinType = &coinType
	}
	if c.RPCURL == "" {
		c.RPCURL = defaults.URL
	}

	return c.Validate()
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if _, err := bitcoin.ParseNetwork(c.Network); err != nil {
		return err
	}
	if _, err := bitcoin.ParseAddressType(c.AddressType); err != nil {
		return err
	}

	parts := strings.Split(c.DerivationPath, "/")
	if len(parts) != 6 || parts[0] != "m" {
		return fmt.Errorf("invalid derivation path %q", c.DerivationPath)
	}

	coinType, err := strconv.ParseUint(strings.TrimSuffix(parts[2], "'"), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid derivation path %q: %w", c.DerivationPath, err)
	}
	if c.CoinType != nil && uint32(coinType) != *c.CoinType {
		return ErrWrongCoinType
	}

	return nil
}

// BitcoinNetwork returns bitcoin network of the configuration.
func (c *Config) BitcoinNetwork() bitcoin.Network {
	network, _ := bitcoin.ParseNetwork(c.Network)
	return network
}

// BitcoinAddressType returns address type of the current account.
func (c *Config) BitcoinAddressType() bitcoin.AddressType {
	addressType, _ := bitcoin.ParseAddressType(c.AddressType)
	return addressType
}

// CoinTypeValue returns configured coin type.
func (c *Config) CoinTypeValue() uint32 {
	if c.CoinType == nil {
		return DefaultsFor(c.Network).CoinType
	}

	return *c.CoinType
}
