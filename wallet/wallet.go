// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package wallet joins keyring, chain service and transaction builders into wallet operations.
package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/rs/zerolog"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/keyring"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/units"
	"github.com/BoostyLabs/ordwallet/bitcoin/txbuilder"
	"github.com/BoostyLabs/ordwallet/bitcoin/utils"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
	"github.com/BoostyLabs/ordwallet/internal/chainapi"
	"github.com/BoostyLabs/ordwallet/internal/logger"
	"github.com/BoostyLabs/ordwallet/internal/storage"
)

// Keyring owns wallet accounts and signs with their keys.
type Keyring interface {
	txbuilder.Keyring
	CurrentAccount() (*keyring.Account, error)
	Accounts() ([]keyring.AccountInfo, error)
	AddNextAccount() (uint32, error)
	Indexes() []uint32
	SignMessage(publicKey []byte, message string) (string, error)
}

// Chain is a chain service serving wallet outputs and broadcasting.
type Chain interface {
	GetAddressUTXO(ctx context.Context, address string) ([]bitcoin.UTXO, error)
	GetAddressBalance(ctx context.Context, address string) (chainapi.Balance, error)
	PushTx(ctx context.Context, rawTx string) (string, error)
}

// Store persists keyring state.
type Store interface {
	SaveKeyring(record storage.KeyringRecord) error
}

// Config describes wallet settings.
type Config struct {
	Network bitcoin.Network
	// OutputValue is a default value of the output carrying inscription.
	OutputValue btcutil.Amount
}

// Wallet performs wallet operations of the current account.
type Wallet struct {
	keyring   Keyring
	chain     Chain
	confirmer Confirmer
	store     Store
	config    Config
	log       zerolog.Logger
}

// New is a constructor for Wallet.
func New(kr Keyring, chain Chain, confirmer Confirmer, store Store, config Config, log zerolog.Logger) *Wallet {
	if config.OutputValue == 0 {
		config.OutputValue = bitcoin.DustAmount
	}

	return &Wallet{
		keyring:   kr,
		chain:     chain,
		confirmer: confirmer,
		store:     store,
		config:    config,
		log:       logger.Component(log, logger.ComponentWallet),
	}
}

// SendBTCRequest describes plain value transfer request.
type SendBTCRequest struct {
	To     string
	Amount btcutil.Amount
	// UTXOs are outputs to spend, outputs of the current account are fetched when empty.
	UTXOs []bitcoin.UTXO
	// AutoAdjust allows to deduct network fee from the sent amount.
	AutoAdjust bool
	// FeeRate in satoshi per virtual byte.
	FeeRate float64
}

// SendInscriptionRequest describes inscription transfer request.
type SendInscriptionRequest struct {
	To            string
	InscriptionID inscriptions.ID
	// UTXOs are outputs to spend, outputs of the current account are fetched when empty.
	UTXOs []bitcoin.UTXO
	// FeeRate in satoshi per virtual byte.
	FeeRate float64
	// OutputValue is a value of the output carrying inscription, wallet default when zero.
	OutputValue btcutil.Amount
}

// SendBTC asks for confirmation, then builds and signs transaction sending amount to the recipient.
func (w *Wallet) SendBTC(ctx context.Context, req SendBTCRequest) (*txbuilder.SignedTx, error) {
	if err := w.validateRecipient(req.To); err != nil {
		return nil, err
	}

	prompt := Prompt{
		Title:       "Send BTC",
		Description: fmt.Sprintf("Send %s to %s", req.Amount, req.To),
		Fields: []Field{
			{Name: "to", Value: req.To},
			{Name: "amount", Value: req.Amount.String()},
			{Name: "feeRate", Value: fmt.Sprintf("%g sat/vB", req.FeeRate)},
			{Name: "autoAdjust", Value: fmt.Sprint(req.AutoAdjust)},
		},
	}
	if err := w.confirm(ctx, prompt); err != nil {
		return nil, err
	}

	account, utxos, err := w.prepare(ctx, req.UTXOs)
	if err != nil {
		return nil, err
	}

	signed, err := txbuilder.SendBTC(ctx, txbuilder.SendBTCParams{
		Params:    w.builderParams(account, req.FeeRate),
		UTXOs:     utxos,
		ToAddress: req.To,
		Amount:    req.Amount,
		Force:     req.AutoAdjust,
	})
	if err != nil {
		w.log.Error().Err(err).Str("code", string(walleterr.CodeOf(err))).Msg("send btc failed")
		return nil, err
	}

	w.log.Info().Str("txid", signed.TxID).Int64("fee", int64(signed.Fee)).Msg("send btc signed")

	return signed, nil
}

// SendInscription asks for confirmation, then builds and signs transaction moving inscription to the recipient.
func (w *Wallet) SendInscription(ctx context.Context, req SendInscriptionRequest) (*txbuilder.SignedTx, error) {
	if err := w.validateRecipient(req.To); err != nil {
		return nil, err
	}
	if req.OutputValue == 0 {
		req.OutputValue = w.config.OutputValue
	}

	prompt := Prompt{
		Title:       "Send Inscription",
		Description: fmt.Sprintf("Send inscription %s to %s", req.InscriptionID, req.To),
		Fields: []Field{
			{Name: "to", Value: req.To},
			{Name: "inscriptionId", Value: req.InscriptionID.String()},
			{Name: "outputValue", Value: req.OutputValue.String()},
			{Name: "feeRate", Value: fmt.Sprintf("%g sat/vB", req.FeeRate)},
		},
	}
	if err := w.confirm(ctx, prompt); err != nil {
		return nil, err
	}

	account, utxos, err := w.prepare(ctx, req.UTXOs)
	if err != nil {
		return nil, err
	}

	signed, err := txbuilder.SendInscription(ctx, txbuilder.SendInscriptionParams{
		Params:        w.builderParams(account, req.FeeRate),
		UTXOs:         utxos,
		ToAddress:     req.To,
		InscriptionID: req.InscriptionID,
		OutputValue:   req.OutputValue,
	})
	if err != nil {
		w.log.Error().Err(err).Str("code", string(walleterr.CodeOf(err))).Msg("send inscription failed")
		return nil, err
	}

	w.log.Info().Str("txid", signed.TxID).Str("inscription", req.InscriptionID.String()).
		Int64("fee", int64(signed.Fee)).Msg("send inscription signed")

	return signed, nil
}

// GetAddressUTXO returns unspent outputs of the address, of the current account when address is empty.
func (w *Wallet) GetAddressUTXO(ctx context.Context, address string) ([]bitcoin.UTXO, error) {
	address, err := w.addressOrCurrent(address)
	if err != nil {
		return nil, err
	}

	return w.chain.GetAddressUTXO(ctx, address)
}

// GetAddressBalance returns balance of the address, of the current account when address is empty.
func (w *Wallet) GetAddressBalance(ctx context.Context, address string) (chainapi.Balance, error) {
	address, err := w.addressOrCurrent(address)
	if err != nil {
		return chainapi.Balance{}, err
	}

	return w.chain.GetAddressBalance(ctx, address)
}

// NonOrdinalBalance returns amount of the current account not covered by inscribed units.
func (w *Wallet) NonOrdinalBalance(ctx context.Context) (btcutil.Amount, error) {
	utxos, err := w.GetAddressUTXO(ctx, "")
	if err != nil {
		return 0, err
	}

	return units.NonOrdinalAmount(utxos)
}

// PushTx broadcasts hex encoded raw transaction, returns its id.
func (w *Wallet) PushTx(ctx context.Context, rawTx string) (string, error) {
	if _, err := hex.DecodeString(rawTx); err != nil || rawTx == "" {
		return "", walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest, "raw transaction is not hex encoded")
	}

	return w.chain.PushTx(ctx, rawTx)
}

// Accounts returns addresses of every wallet account.
func (w *Wallet) Accounts() ([]keyring.AccountInfo, error) {
	return w.keyring.Accounts()
}

// AddNextAccount derives account at the next free index and persists keyring indexes.
func (w *Wallet) AddNextAccount() (uint32, error) {
	index, err := w.keyring.AddNextAccount()
	if err != nil {
		return 0, err
	}

	current, err := w.keyring.CurrentAccount()
	if err != nil {
		return 0, err
	}

	err = w.store.SaveKeyring(storage.KeyringRecord{
		Indexes:      w.keyring.Indexes(),
		CurrentIndex: current.Index,
		AddressType:  current.AddressType.String(),
	})
	if err != nil {
		return 0, err
	}

	w.log.Info().Uint32("index", index).Msg("account added")

	return index, nil
}

// SignMessage signs message with the current account key.
func (w *Wallet) SignMessage(message string) (string, error) {
	account, err := w.keyring.CurrentAccount()
	if err != nil {
		return "", err
	}

	return w.keyring.SignMessage(account.PublicKey(), message)
}

// VerifyMessage checks signature of the message made by public key.
func (w *Wallet) VerifyMessage(publicKey []byte, message, signature string) (bool, error) {
	return keyring.VerifyMessage(publicKey, message, signature)
}

// validateRecipient checks that address decodes on the wallet network.
func (w *Wallet) validateRecipient(address string) error {
	if _, err := utils.AddressToScript(address, w.config.Network.Params()); err != nil {
		return walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
			"invalid recipient address %q: %v", address, err)
	}

	return nil
}

// confirm asks confirmer to approve the operation.
func (w *Wallet) confirm(ctx context.Context, prompt Prompt) error {
	ok, err := w.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return walleterr.Wrap(walleterr.CodeUserRejected, walleterr.StageConfirm, err)
	}
	if !ok {
		w.log.Info().Str("operation", prompt.Title).Msg("rejected by user")
		return walleterr.New(walleterr.CodeUserRejected, walleterr.StageConfirm, "%s rejected by user", prompt.Title)
	}

	return nil
}

// prepare returns the current account and its outputs tagged with its address.
func (w *Wallet) prepare(ctx context.Context, utxos []bitcoin.UTXO) (*keyring.Account, []bitcoin.UTXO, error) {
	account, err := w.keyring.CurrentAccount()
	if err != nil {
		return nil, nil, err
	}

	if len(utxos) == 0 {
		if utxos, err = w.chain.GetAddressUTXO(ctx, account.Address); err != nil {
			return nil, nil, err
		}
	}

	tagged := slices.Clone(utxos)
	for i := range tagged {
		if _, err = utils.ScriptToAddress(tagged[i].Script, w.config.Network.Params()); err != nil {
			return nil, nil, walleterr.New(walleterr.CodeMalformedRequest, walleterr.StageRequest,
				"utxo %s script does not decode on %s: %v", tagged[i].OutPoint(), w.config.Network, err)
		}

		tagged[i].Address = account.Address
	}

	w.log.Debug().Str("address", account.Address).Int("utxos", len(tagged)).Msg("outputs prepared")

	return account, tagged, nil
}

func (w *Wallet) builderParams(account *keyring.Account, satPerVByte float64) txbuilder.Params {
	return txbuilder.Params{
		Network:       w.config.Network,
		PublicKey:     account.PublicKey(),
		ChangeAddress: account.Address,
		FeeRate:       txbuilder.FeeRateFromSatPerVByte(satPerVByte),
		Keyring:       w.keyring,
		Logger:        w.log,
	}
}

func (w *Wallet) addressOrCurrent(address string) (string, error) {
	if address != "" {
		return address, nil
	}

	account, err := w.keyring.CurrentAccount()
	if err != nil {
		return "", err
	}

	return account.Address, nil
}
