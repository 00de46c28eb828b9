// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network defines bitcoin network the wallet operates on.
type Network int

const (
	// NetworkMainnet defines bitcoin main network.
	NetworkMainnet Network = iota
	// NetworkTestnet defines bitcoin test network.
	NetworkTestnet
)

// ParseNetwork parses network from its name.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "mainnet", "bitcoin", "":
		return NetworkMainnet, nil
	case "testnet", "testnet3", "local":
		return NetworkTestnet, nil
	}

	return 0, fmt.Errorf("unknown network %q", name)
}

// Params returns chain parameters of the network.
func (n Network) Params() *chaincfg.Params {
	if n == NetworkTestnet {
		return &chaincfg.TestNet3Params
	}

	return &chaincfg.MainNetParams
}

// String returns network name.
func (n Network) String() string {
	if n == NetworkTestnet {
		return "testnet"
	}

	return "mainnet"
}
