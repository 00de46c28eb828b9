// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/BoostyLabs/ordwallet/bitcoin/keyring"
	"github.com/BoostyLabs/ordwallet/internal/chainapi"
	"github.com/BoostyLabs/ordwallet/internal/config"
	"github.com/BoostyLabs/ordwallet/internal/storage"
	"github.com/BoostyLabs/ordwallet/wallet"
)

// errNoMnemonic defines that wallet seed is not configured.
var errNoMnemonic = errors.New("mnemonic is required, set --mnemonic or ORDWALLET_MNEMONIC")

// app holds wallet collaborators shared by commands.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      storage.DB
	state   *storage.State
	keyring *keyring.Keyring
	chain   *chainapi.Client
}

// open opens wallet state, restores keyring and connects chain service.
func (a *app) open() (err error) {
	if a.cfg.Mnemonic == "" {
		return errNoMnemonic
	}

	if err = os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return err
	}

	db, err := storage.NewBadger(filepath.Join(a.cfg.DataDir, "state"))
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, db.Close())
			a.db = nil
		}
	}()

	a.db, a.state = db, storage.NewState(db, a.log)

	if err = a.restoreKeyring(); err != nil {
		return err
	}

	httpRecord, _, _, err := a.state.HTTP()
	if err != nil {
		return err
	}

	a.chain = chainapi.New(chainapi.Config{
		URL:      a.cfg.RPCURL,
		Headers:  httpRecord.Headers,
		User:     a.cfg.RPCUser,
		Password: a.cfg.RPCPassword,
		Token:    a.cfg.RPCToken,
	}, a.log)

	err = a.state.SaveConfig(storage.ConfigRecord{
		Network:        a.cfg.Network,
		DerivationPath: a.cfg.DerivationPath,
		CoinType:       a.cfg.CoinTypeValue(),
		URL:            a.cfg.RPCURL,
	})
	if err != nil {
		return err
	}

	return a.state.SaveHTTP(storage.HTTPRecord{Host: a.cfg.RPCURL, Headers: httpRecord.Headers})
}

// restoreKeyring derives keyring from mnemonic and restores accounts saved by previous runs.
func (a *app) restoreKeyring() error {
	kr, err := keyring.NewFromMnemonic(a.cfg.Mnemonic, a.cfg.Passphrase, keyring.Config{
		Network:     a.cfg.BitcoinNetwork(),
		CoinType:    a.cfg.CoinTypeValue(),
		AddressType: a.cfg.BitcoinAddressType(),
		Logger:      a.log,
	})
	if err != nil {
		return err
	}

	record, _, ok, err := a.state.Keyring()
	if err != nil {
		return err
	}
	if ok {
		for _, index := range record.Indexes {
			if _, err = kr.AddAccount(index); err != nil {
				return err
			}
		}
	}

	if _, err = kr.AddAccount(a.cfg.AccountIndex); err != nil {
		return err
	}
	if err = kr.SetCurrent(a.cfg.AccountIndex, a.cfg.BitcoinAddressType()); err != nil {
		return err
	}

	a.keyring = kr

	return a.state.SaveKeyring(storage.KeyringRecord{
		Indexes:      kr.Indexes(),
		CurrentIndex: a.cfg.AccountIndex,
		AddressType:  a.cfg.BitcoinAddressType().String(),
	})
}

// wallet returns wallet asking confirmations in terminal unless yes is set.
func (a *app) wallet(yes bool) *wallet.Wallet {
	var confirmer wallet.Confirmer = newTerminalConfirmer(os.Stdin, os.Stderr)
	if yes {
		confirmer = wallet.AutoConfirmer(true)
	}

	return wallet.New(a.keyring, a.chain, confirmer, a.state, wallet.Config{Network: a.cfg.BitcoinNetwork()}, a.log)
}

// Close closes wallet state.
func (a *app) Close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}
